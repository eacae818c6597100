// Package schema declares operator signatures and the registry that resolves
// a node kind to its schema.
//
// A schema records, for every argument and return, a type from internal/types
// and an optional alias annotation. Annotations drive the alias analysis:
// "(a)" marks an argument as reading alias set a, "(a!)" as writing it, and
// "(*)" binds the wildcard set.
//
// Schemas are declared as flat signature strings,
//
//	add_(Tensor(a!) self, Tensor other) -> (Tensor(a!))
//
// either registered programmatically or loaded from a YAML file of the form
//
//	operators:
//	  - signature: "add_(Tensor(a!) self, Tensor other) -> (Tensor(a!))"
//
// The registry resolves by operator name and argument count; a vararg schema
// accepts any count at or above its declared arity.
package schema
