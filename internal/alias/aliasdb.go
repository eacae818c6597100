package alias

import (
	"fmt"

	"github.com/roach88/tensorjit/internal/ir"
	"github.com/roach88/tensorjit/internal/schema"
	"github.com/roach88/tensorjit/internal/types"
)

// DB holds the result of analyzing one graph.
type DB struct {
	graph         *ir.Graph
	valueToAlias  map[*ir.Value]*Info
	aliasToWrites map[Symbol]map[*ir.Node]struct{}
	nextSymbol    int
}

// shouldAnnotate reports whether a type could contain mutable state.
func shouldAnnotate(t types.Type) bool {
	if types.IsTensor(t) {
		return true
	}
	switch t.Kind() {
	case types.ListKind, types.TupleKind:
		return true
	case types.OptionalKind:
		return shouldAnnotate(t.(*types.OptionalType).Elem)
	}
	return false
}

// Analyze runs the analysis over g and returns the populated DB. The graph
// must not be mutated while the DB is in use.
func Analyze(g *ir.Graph) (*DB, error) {
	db := &DB{
		graph:         g,
		valueToAlias:  make(map[*ir.Value]*Info),
		aliasToWrites: make(map[Symbol]map[*ir.Node]struct{}),
	}
	db.seedInputs()
	if err := db.analyzeBlock(g.Block()); err != nil {
		return nil, err
	}
	return db, nil
}

// seedInputs assigns aliases to the graph inputs, assuming that all inputs
// of a given type may alias each other: one shared set for every tensor
// input, one per list element kind (tensor subtypes folded to Dynamic), one
// per distinct tuple type. Optionals are unwrapped first.
func (db *DB) seedInputs() {
	tensorAlias := db.freshSymbol()
	listAliases := make(map[types.Kind]Symbol)
	tupleAliases := make(map[string]Symbol)

	for _, input := range db.graph.Inputs() {
		t := input.Type()
		if opt, ok := t.(*types.OptionalType); ok {
			t = opt.Elem
		}

		switch {
		case types.IsTensor(t):
			db.addSymbol(input, tensorAlias)
		case t.Kind() == types.ListKind:
			elem := t.(*types.ListType).Elem
			kind := elem.Kind()
			if types.IsTensor(elem) {
				kind = types.DynamicTensorKind
			}
			sym, ok := listAliases[kind]
			if !ok {
				sym = db.freshSymbol()
				listAliases[kind] = sym
			}
			db.addSymbol(input, sym)
		case t.Kind() == types.TupleKind:
			key := t.String()
			sym, ok := tupleAliases[key]
			if !ok {
				sym = db.freshSymbol()
				tupleAliases[key] = sym
			}
			db.addSymbol(input, sym)
		}
	}
}

func (db *DB) analyzeBlock(b *ir.Block) error {
	for _, n := range b.Nodes() {
		if err := db.analyzeNode(n); err != nil {
			return err
		}
	}
	return nil
}

func isArithmetic(k ir.Kind) bool {
	switch k {
	case "aten::add", "aten::sub", "aten::mul", "aten::div":
		return true
	}
	return false
}

// analyzeNode retrieves alias information for every input and uses the
// node's schema alias annotations to propagate alias and write information
// to the outputs. Structural kinds get dedicated analyzers.
func (db *DB) analyzeNode(n *ir.Node) error {
	switch n.Kind() {
	case ir.KindIf:
		return db.analyzeIf(n)
	case ir.KindLoop:
		return db.analyzeLoop(n)
	case ir.KindFusionGroup, ir.KindDifferentiableGraph:
		return db.analyzeSubgraph(n)
	case ir.KindConstant, ir.KindListConstruct, ir.KindTupleConstruct,
		ir.KindUndefined, ir.KindFusedConcat:
		db.analyzeCreator(n)
		return nil
	case ir.KindTupleUnpack, ir.KindTupleIndex, ir.KindTupleSlice,
		ir.KindListUnpack, ir.KindExternalOp:
		db.analyzeExtractor(n)
		return nil
	case ir.KindConstantChunk:
		db.analyzeChunk(n)
		return nil
	}

	// unschematized combinations of tensor and primitive arithmetic produce
	// fresh tensors
	if isArithmetic(n.Kind()) && n.MaybeSchema() == nil {
		db.analyzeCreator(n)
		return nil
	}

	s := n.MaybeSchema()
	if s == nil || s.IsVararg || s.IsVarret {
		for _, out := range n.Outputs() {
			if shouldAnnotate(out.Type()) {
				return &AnalysisError{
					Code:    ErrCodeUnknownOperator,
					Message: "no alias information for node with mutable outputs; schematize the operator or add an analyzer",
					Node:    string(n.Kind()),
					Source:  n.SourceLocation(),
				}
			}
		}
		return nil
	}
	return db.analyzeSchema(n, s)
}

func (db *DB) analyzeSchema(n *ir.Node, s *schema.Schema) error {
	// Bind formal alias annotations to actual alias sets.
	env := types.Env{}
	formalToActual := map[string]*Info{schema.WildcardSymbol: NewWildcard()}

	for i, arg := range s.Arguments {
		actual := n.Input(i)
		if err := checkArgType(arg.Type, actual.Type(), env); err != nil {
			return &AnalysisError{
				Code:    ErrCodeTypeMismatch,
				Message: fmt.Sprintf("argument %d: %v", i, err),
				Node:    string(n.Kind()),
				Source:  n.SourceLocation(),
			}
		}
		if arg.Alias == nil || arg.Alias.IsWildcard {
			continue
		}
		if _, bound := formalToActual[arg.Alias.Symbol]; bound {
			continue
		}
		actualInfo, ok := db.valueToAlias[actual]
		if !ok {
			// annotated argument of a non-annotatable type carries nothing
			continue
		}
		formalToActual[arg.Alias.Symbol] = actualInfo
		if arg.Alias.IsWrite {
			for sym := range actualInfo.sets {
				db.recordWrite(sym, n)
			}
		}
	}

	// Use the binding to give aliases to the outputs.
	for j, ret := range s.Returns {
		out := n.Output(j)
		if ret.Alias == nil {
			// a fresh tensor
			db.giveFreshAlias(out)
			continue
		}
		key := ret.Alias.Symbol
		if ret.Alias.IsWildcard {
			key = schema.WildcardSymbol
		}
		bound, ok := formalToActual[key]
		if !ok {
			return &AnalysisError{
				Code:    ErrCodeUnknownOperator,
				Message: fmt.Sprintf("return %d names alias set %q which no argument binds", j, key),
				Node:    string(n.Kind()),
				Source:  n.SourceLocation(),
			}
		}
		if ret.Alias.IsWrite {
			for sym := range bound.sets {
				db.recordWrite(sym, n)
			}
		}
		db.addInfo(out, bound)
	}
	return nil
}

// checkArgType verifies that actual satisfies the formal type, binding type
// variables through env.
func checkArgType(formal, actual types.Type, env types.Env) error {
	if formal.HasFreeVariables() {
		_, err := types.Match(formal, actual, env)
		return err
	}
	if types.Subtype(actual, formal) {
		return nil
	}
	if opt, ok := formal.(*types.OptionalType); ok {
		if actual.Kind() == types.NoneKind || types.Subtype(actual, opt.Elem) {
			return nil
		}
	}
	return fmt.Errorf("%s is not a subtype of %s", actual, formal)
}

// analyzeIf unions, per output, the alias info of the corresponding output
// of both branches.
func (db *DB) analyzeIf(n *ir.Node) error {
	trueBlock := n.Blocks()[0]
	falseBlock := n.Blocks()[1]
	if err := db.analyzeBlock(trueBlock); err != nil {
		return err
	}
	if err := db.analyzeBlock(falseBlock); err != nil {
		return err
	}
	for i, out := range n.Outputs() {
		db.addValueAlias(out, trueBlock.Outputs()[i])
		db.addValueAlias(out, falseBlock.Outputs()[i])
	}
	return nil
}

// analyzeLoop iterates the body until the alias info of the carried inputs
// converges: copy carried-input aliases to the body inputs, analyze, copy
// body outputs to the node outputs, then merge body-output aliases back
// onto the carried inputs. Convergence compares the carried input's
// membership against the body output's from the iteration that just ran.
func (db *DB) analyzeLoop(n *ir.Node) error {
	body := n.Blocks()[0]
	carried := n.Inputs()[2:]          // skip trip count, initial condition
	blockInputs := body.Inputs()[1:]   // skip iteration counter
	blockOutputs := body.Outputs()[1:] // skip continue condition
	if len(carried) != len(blockInputs) || len(blockOutputs) != len(n.Outputs()) {
		return &AnalysisError{
			Code:    ErrCodeTypeMismatch,
			Message: "loop body arity does not match the carried values",
			Node:    string(n.Kind()),
			Source:  n.SourceLocation(),
		}
	}

	for {
		db.mapAliases(blockInputs, carried)
		if err := db.analyzeBlock(body); err != nil {
			return err
		}
		db.mapAliases(n.Outputs(), blockOutputs)

		changed := false
		for i, out := range blockOutputs {
			input := carried[i]
			outInfo := db.valueToAlias[out]
			if outInfo != nil {
				inInfo := db.valueToAlias[input]
				if inInfo == nil || !outInfo.SubsetOf(inInfo) {
					changed = true
				}
			}
			db.addValueAlias(input, out)
		}
		if !changed {
			return nil
		}
	}
}

// analyzeSubgraph maps aliases across the subgraph boundary in both
// directions.
func (db *DB) analyzeSubgraph(n *ir.Node) error {
	sub := n.MaybeSubgraph(ir.AttrSubgraph)
	if sub == nil {
		return &AnalysisError{
			Code:    ErrCodeUnknownOperator,
			Message: "subgraph-bearing node has no Subgraph attribute",
			Node:    string(n.Kind()),
			Source:  n.SourceLocation(),
		}
	}
	db.mapAliases(sub.Inputs(), n.Inputs())
	if err := db.analyzeBlock(sub.Block()); err != nil {
		return err
	}
	db.mapAliases(n.Outputs(), sub.Outputs())
	return nil
}

// analyzeCreator gives every output a fresh alias set.
func (db *DB) analyzeCreator(n *ir.Node) {
	for _, out := range n.Outputs() {
		db.giveFreshAlias(out)
	}
}

// analyzeExtractor conservatively gives every output the wildcard set.
func (db *DB) analyzeExtractor(n *ir.Node) {
	for _, out := range n.Outputs() {
		db.addInfo(out, NewWildcard())
	}
}

// analyzeChunk makes all outputs share the input's alias sets.
func (db *DB) analyzeChunk(n *ir.Node) {
	info, ok := db.valueToAlias[n.Input(0)]
	if !ok {
		info = NewWildcard()
	}
	for _, out := range n.Outputs() {
		db.addInfo(out, info)
	}
}

// --- membership bookkeeping --------------------------------------------

func (db *DB) freshSymbol() Symbol {
	s := Symbol(fmt.Sprintf("alias::%d", db.nextSymbol))
	db.nextSymbol++
	return s
}

func (db *DB) recordWrite(sym Symbol, n *ir.Node) {
	writers, ok := db.aliasToWrites[sym]
	if !ok {
		writers = make(map[*ir.Node]struct{})
		db.aliasToWrites[sym] = writers
	}
	writers[n] = struct{}{}
}

// addSymbol adds one set to the value's membership.
func (db *DB) addSymbol(v *ir.Value, sym Symbol) {
	if !shouldAnnotate(v.Type()) {
		return
	}
	info, ok := db.valueToAlias[v]
	if !ok {
		info = NewInfo()
		db.valueToAlias[v] = info
	}
	info.AddSet(sym)
}

// addInfo unions other into the value's membership.
func (db *DB) addInfo(v *ir.Value, other *Info) {
	if !shouldAnnotate(v.Type()) {
		return
	}
	info, ok := db.valueToAlias[v]
	if !ok {
		db.valueToAlias[v] = other.clone()
		return
	}
	info.UnionWith(other)
}

// addValueAlias unions from's membership into v's.
func (db *DB) addValueAlias(v, from *ir.Value) {
	info, ok := db.valueToAlias[from]
	if !ok {
		return
	}
	db.addInfo(v, info)
}

// mapAliases copies membership pairwise from one value list to another.
func (db *DB) mapAliases(to, from []*ir.Value) {
	for i := range to {
		db.addValueAlias(to[i], from[i])
	}
}

// giveFreshAlias mints a new set for v unless it already has membership
// (re-analysis inside a loop body must stay monotonic).
func (db *DB) giveFreshAlias(v *ir.Value) {
	if !shouldAnnotate(v.Type()) {
		return
	}
	if _, ok := db.valueToAlias[v]; ok {
		return
	}
	db.addSymbol(v, db.freshSymbol())
}
