package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tensorjit/internal/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		signature string
		check     func(t *testing.T, s *Schema)
	}{
		{
			name:      "pure op",
			signature: "add(Tensor self, Tensor other) -> Tensor",
			check: func(t *testing.T, s *Schema) {
				assert.Equal(t, "add", s.Name)
				require.Len(t, s.Arguments, 2)
				assert.Equal(t, "self", s.Arguments[0].Name)
				assert.True(t, types.Dynamic.Equal(s.Arguments[0].Type))
				assert.Nil(t, s.Arguments[0].Alias)
				require.Len(t, s.Returns, 1)
				assert.Nil(t, s.Returns[0].Alias)
			},
		},
		{
			name:      "in-place write annotation",
			signature: "add_(Tensor(a!) self, Tensor other) -> (Tensor(a!))",
			check: func(t *testing.T, s *Schema) {
				require.NotNil(t, s.Arguments[0].Alias)
				assert.Equal(t, "a", s.Arguments[0].Alias.Symbol)
				assert.True(t, s.Arguments[0].Alias.IsWrite)
				assert.Nil(t, s.Arguments[1].Alias)
				require.Len(t, s.Returns, 1)
				require.NotNil(t, s.Returns[0].Alias)
				assert.Equal(t, "a", s.Returns[0].Alias.Symbol)
				assert.True(t, s.Returns[0].Alias.IsWrite)
			},
		},
		{
			name:      "read annotation and list return",
			signature: "chunk(Tensor(a) self, int chunks, int dim) -> (Tensor[])",
			check: func(t *testing.T, s *Schema) {
				require.NotNil(t, s.Arguments[0].Alias)
				assert.False(t, s.Arguments[0].Alias.IsWrite)
				assert.True(t, types.Int.Equal(s.Arguments[1].Type))
				assert.True(t, types.List(types.Dynamic).Equal(s.Returns[0].Type))
			},
		},
		{
			name:      "wildcard annotation",
			signature: "unpack(Tensor[] self) -> (Tensor(*))",
			check: func(t *testing.T, s *Schema) {
				require.NotNil(t, s.Returns[0].Alias)
				assert.True(t, s.Returns[0].Alias.IsWildcard)
			},
		},
		{
			name:      "type variables and containers",
			signature: "index(t[](a) list, int i) -> (t)",
			check: func(t *testing.T, s *Schema) {
				assert.True(t, types.List(types.Var("t")).Equal(s.Arguments[0].Type))
				require.NotNil(t, s.Arguments[0].Alias)
				assert.Equal(t, "a", s.Arguments[0].Alias.Symbol)
				assert.True(t, types.Var("t").Equal(s.Returns[0].Type))
			},
		},
		{
			name:      "optional and scalar",
			signature: "clamp(Tensor self, Scalar? min, Scalar? max) -> Tensor",
			check: func(t *testing.T, s *Schema) {
				assert.True(t, types.Optional(types.Number).Equal(s.Arguments[1].Type))
			},
		},
		{
			name:      "vararg",
			signature: "cat(...) -> Tensor",
			check: func(t *testing.T, s *Schema) {
				assert.True(t, s.IsVararg)
				assert.Empty(t, s.Arguments)
			},
		},
		{
			name:      "varret",
			signature: "unzip(Tensor self) -> (...)",
			check: func(t *testing.T, s *Schema) {
				assert.True(t, s.IsVarret)
				assert.Empty(t, s.Returns)
			},
		},
		{
			name:      "future and tuple types",
			signature: "wait(Future[t] fut) -> ((t, int))",
			check: func(t *testing.T, s *Schema) {
				assert.True(t, types.Future(types.Var("t")).Equal(s.Arguments[0].Type))
				assert.True(t, types.Tuple(types.Var("t"), types.Int).Equal(s.Returns[0].Type))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.signature)
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"add",
		"add(Tensor self",
		"add(Tensor self) Tensor",
		"add(Tensor self) -> ",
		"add(Tensor self) -> Tensor junk and more",
	}
	for _, sig := range bad {
		_, err := Parse(sig)
		assert.Error(t, err, "signature %q", sig)
	}
}

func TestRoundTripString(t *testing.T) {
	sigs := []string{
		"add_(Tensor(a!) self, Tensor other) -> (Tensor(a!))",
		"chunk(Tensor(a) self, int chunks, int dim) -> (Tensor[])",
		"clamp(Tensor self, Scalar? min, Scalar? max) -> (Tensor)",
	}
	for _, sig := range sigs {
		s, err := Parse(sig)
		require.NoError(t, err)
		again, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s.String(), again.String())
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("add(Tensor self, Tensor other) -> Tensor")
	r.MustRegister("add(Tensor self, Tensor other, Scalar alpha) -> Tensor")
	r.MustRegister("cat(Tensor first, ...) -> Tensor")

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"add", "cat"}, r.Names())

	s := r.Lookup("aten::add", 2)
	require.NotNil(t, s)
	assert.Len(t, s.Arguments, 2)

	s = r.Lookup("add", 3)
	require.NotNil(t, s)
	assert.Len(t, s.Arguments, 3)

	assert.Nil(t, r.Lookup("add", 4))
	assert.Nil(t, r.Lookup("mul", 2))

	// vararg accepts anything at or above declared arity
	assert.NotNil(t, r.Lookup("cat", 5))
	assert.Nil(t, r.Lookup("cat", 0))
}

func TestRegistryLoad(t *testing.T) {
	r := NewRegistry()
	err := r.Load([]byte(`
operators:
  - signature: "add(Tensor self, Tensor other) -> Tensor"
  - signature: "add_(Tensor(a!) self, Tensor other) -> (Tensor(a!))"
`))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	require.NotNil(t, r.Lookup("add_", 2))
}

func TestRegistryLoadErrors(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Load([]byte(`operators: [{signature: ""}]`)))
	assert.Error(t, r.Load([]byte(`operators: [{signature: "broken("}]`)))
	assert.Error(t, r.Load([]byte(`{`)))
}
