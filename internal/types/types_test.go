package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtype(t *testing.T) {
	tests := []struct {
		name string
		t    Type
		u    Type
		want bool
	}{
		{"reflexive leaf", Int, Int, true},
		{"int is number", Int, Number, true},
		{"float is number", Float, Number, true},
		{"number is not int", Number, Int, false},
		{"complete tensor is dynamic", CompleteTensor("Float", 2, 3), Dynamic, true},
		{"undefined tensor is dynamic", Undefined, Dynamic, true},
		{"dynamic is not complete", Dynamic, CompleteTensor("Float", 2, 3), false},
		{"bool is not number", Bool, Number, false},
		{"equal lists", List(Int), List(Int), true},
		{"list elem mismatch", List(Int), List(Float), false},
		{"tensor list is not dynamic", List(Dynamic), Dynamic, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subtype(tt.t, tt.u))
		})
	}
}

func TestUnify(t *testing.T) {
	tests := []struct {
		name string
		t    Type
		u    Type
		want Type // nil means no unification
	}{
		{"identical", Int, Int, Int},
		{"int and number", Int, Number, Number},
		{"two tensor refinements", CompleteTensor("Float", 2), CompleteTensor("Double", 4), Dynamic},
		{"none and tensor", None, Dynamic, Optional(Dynamic)},
		{"tensor and none", Dynamic, None, Optional(Dynamic)},
		{"lists elementwise", List(CompleteTensor("Float", 2)), List(Dynamic), List(Dynamic)},
		{"tuples elementwise", Tuple(Int, None), Tuple(Int, Float), Tuple(Int, Optional(Float))},
		{"tuple arity mismatch", Tuple(Int), Tuple(Int, Int), nil},
		{"int and string", Int, String, nil},
		{"list and tuple", List(Int), Tuple(Int), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Unify(tt.t, tt.u)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestMatchBindsVariables(t *testing.T) {
	env := Env{}
	got, err := Match(List(Var("t")), List(Int), env)
	require.NoError(t, err)
	assert.True(t, List(Int).Equal(got))
	assert.True(t, Int.Equal(env["t"]))
}

func TestMatchRebindUnifies(t *testing.T) {
	env := Env{"t": Int}
	got, err := Match(Var("t"), Float, env)
	require.NoError(t, err)
	assert.True(t, Number.Equal(got))
	assert.True(t, Number.Equal(env["t"]))
}

func TestMatchRebindConflict(t *testing.T) {
	env := Env{"t": Int}
	_, err := Match(Var("t"), String, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previously matched")
}

func TestMatchOptionalAgainstConcrete(t *testing.T) {
	env := Env{}
	got, err := Match(Optional(Var("t")), Dynamic, env)
	require.NoError(t, err)
	assert.True(t, Dynamic.Equal(got))
	assert.True(t, Dynamic.Equal(env["t"]))
}

func TestMatchOptionalAgainstNone(t *testing.T) {
	_, err := Match(Optional(Var("t")), None, Env{})
	require.Error(t, err)
}

func TestMatchTupleStructure(t *testing.T) {
	env := Env{}
	formal := Tuple(Var("a"), List(Var("b")))
	actual := Tuple(Int, List(Dynamic))
	got, err := Match(formal, actual, env)
	require.NoError(t, err)
	assert.True(t, Tuple(Int, List(Dynamic)).Equal(got))

	_, err = Match(Tuple(Var("a")), Int, env)
	require.Error(t, err)
}

func TestSubstitute(t *testing.T) {
	env := Env{"t": Int}
	got, err := Substitute(List(List(Var("t"))), env)
	require.NoError(t, err)
	assert.True(t, List(List(Int)).Equal(got))

	_, err = Substitute(Var("u"), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbound type variable")
}

func TestString(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{Dynamic, "Dynamic"},
		{Undefined, "Undefined"},
		{Int, "int"},
		{Float, "float"},
		{Bool, "bool"},
		{None, "None"},
		{String, "string"},
		{Generator, "Generator"},
		{Number, "Number"},
		{List(Dynamic), "Dynamic[]"},
		{Optional(Int), "int?"},
		{Future(Float), "Future[float]"},
		{Tuple(Int, Bool), "(int, bool)"},
		{CompleteTensor("Float", 2, 3), "Float(2, 3)"},
		{Var("t"), "t"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.t.String())
	}
}

func TestCompleteTensorStrides(t *testing.T) {
	ct := CompleteTensor("Float", 2, 3, 4)
	assert.Equal(t, []int64{12, 4, 1}, ct.Strides)

	// transposed layout renders a non-contiguity marker
	tr := &CompleteTensorType{Scalar: "Float", Sizes: []int64{3, 2}, Strides: []int64{1, 3}}
	assert.Equal(t, "Float(3!, 2!)", tr.String())
}

func TestOptionalCollapses(t *testing.T) {
	assert.True(t, Optional(Int).Equal(Optional(Optional(Int))))
}
