package types

import "fmt"

// Unify computes the least common type of t and u, or reports failure.
//
// Rules, in order:
//   - subtype in either direction wins
//   - any two tensor types unify to Dynamic
//   - any two number types (int, float) unify to Number
//   - None against a concrete type yields Optional(concrete)
//   - lists unify element-wise; tuples unify when arities match and every
//     element unifies
func Unify(t, u Type) (Type, bool) {
	if Subtype(t, u) {
		return u, true
	}
	if Subtype(u, t) {
		return t, true
	}

	if IsTensor(t) && IsTensor(u) {
		return Dynamic, true
	}

	if Subtype(t, Number) && Subtype(u, Number) {
		return Number, true
	}

	if t.Kind() == NoneKind && u.Kind() != NoneKind {
		return Optional(u), true
	}
	if u.Kind() == NoneKind && t.Kind() != NoneKind {
		return Optional(t), true
	}

	if lt, ok := t.(*ListType); ok {
		if lu, ok := u.(*ListType); ok {
			if elem, ok := Unify(lt.Elem, lu.Elem); ok {
				return List(elem), true
			}
		}
		return nil, false
	}
	if tt, ok := t.(*TupleType); ok {
		tu, ok := u.(*TupleType)
		if !ok || len(tt.Elems) != len(tu.Elems) {
			return nil, false
		}
		elems := make([]Type, len(tt.Elems))
		for i := range tt.Elems {
			elem, ok := Unify(tt.Elems[i], tu.Elems[i])
			if !ok {
				return nil, false
			}
			elems[i] = elem
		}
		return Tuple(elems...), true
	}

	return nil, false
}

// Env maps type-variable names to the types they are bound to.
type Env map[string]Type

// Match binds the free variables of formal against actual, extending env.
// It returns the formal type with variables resolved as far as the binding
// allows. Re-binding a variable unifies with its previous binding.
//
// An Optional formal additionally matches a non-None concrete actual
// directly; None itself never matches, since there is no way to determine the
// element type from it.
func Match(formal, actual Type, env Env) (Type, error) {
	if !formal.HasFreeVariables() {
		return formal, nil
	}

	switch f := formal.(type) {
	case *VarType:
		bound, ok := env[f.Name]
		if !ok {
			env[f.Name] = actual
			return actual, nil
		}
		unified, ok := Unify(bound, actual)
		if !ok {
			return nil, fmt.Errorf("type variable %q previously matched to %s is matched to %s",
				f.Name, bound, actual)
		}
		env[f.Name] = unified
		return unified, nil

	case *ListType:
		a, ok := actual.(*ListType)
		if !ok {
			return nil, fmt.Errorf("cannot match a list to %s", actual)
		}
		elem, err := Match(f.Elem, a.Elem, env)
		if err != nil {
			return nil, err
		}
		return List(elem), nil

	case *TupleType:
		a, ok := actual.(*TupleType)
		if !ok {
			return nil, fmt.Errorf("cannot match a tuple to %s", actual)
		}
		if len(f.Elems) != len(a.Elems) {
			return nil, fmt.Errorf("cannot match tuples of mismatched size")
		}
		elems := make([]Type, len(f.Elems))
		for i := range f.Elems {
			elem, err := Match(f.Elems[i], a.Elems[i], env)
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return Tuple(elems...), nil

	case *FutureType:
		a, ok := actual.(*FutureType)
		if !ok {
			return nil, fmt.Errorf("cannot match a future to %s", actual)
		}
		elem, err := Match(f.Elem, a.Elem, env)
		if err != nil {
			return nil, err
		}
		return Future(elem), nil

	case *OptionalType:
		if a, ok := actual.(*OptionalType); ok {
			elem, err := Match(f.Elem, a.Elem, env)
			if err != nil {
				return nil, err
			}
			return Optional(elem), nil
		}
		if actual.Kind() == NoneKind {
			return nil, fmt.Errorf("cannot match %s to None: the element type cannot be determined", formal)
		}
		return Match(f.Elem, actual, env)
	}

	return nil, fmt.Errorf("unhandled free variable container: %s", formal)
}

// Substitute evaluates a formal type to a concrete one under env. Every free
// variable must be bound.
func Substitute(t Type, env Env) (Type, error) {
	if !t.HasFreeVariables() {
		return t, nil
	}
	if v, ok := t.(*VarType); ok {
		bound, ok := env[v.Name]
		if !ok {
			return nil, fmt.Errorf("unbound type variable %q", v.Name)
		}
		return bound, nil
	}
	contained := t.Contained()
	rewritten := make([]Type, len(contained))
	for i, c := range contained {
		sub, err := Substitute(c, env)
		if err != nil {
			return nil, err
		}
		rewritten[i] = sub
	}
	return t.WithContained(rewritten), nil
}
