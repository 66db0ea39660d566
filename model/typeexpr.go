// Package model provides declared entity definitions and the metadata
// derived from them: canonical field shapes, relationship descriptors,
// and the registry that resolves entity names to definitions.
package model

import "fmt"

// ValueKind identifies the storage kind of a scalar value.
type ValueKind int

const (
	// KindInt is a 64-bit signed integer.
	KindInt ValueKind = iota
	// KindFloat is a 64-bit float.
	KindFloat
	// KindBool is a boolean.
	KindBool
	// KindString is a variable-length string.
	KindString
	// KindTime is a timestamp.
	KindTime
)

// String returns the declaration-language name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "double"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindTime:
		return "datetime"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Identifier reports whether the kind can serve as a primary-key or
// foreign-key value.
func (k ValueKind) Identifier() bool {
	return k == KindInt || k == KindString
}

// TypeExpr is a declared field type. It is a closed set of variants:
// the bare types Scalar and EntityRef, optionally wrapped by Rel
// (relationship metadata), Nullable, and List. Wrappers compose in
// exactly that order, outermost first; Unwrap rejects any other
// arrangement.
type TypeExpr interface {
	typeExpr()
}

// Scalar is a plain value type.
type Scalar struct {
	Kind ValueKind
}

// EntityRef names another entity by its registered name. The name may be
// a forward reference; it is never resolved during unwrapping.
type EntityRef struct {
	Target string
}

// Nullable marks the wrapped type as permitting an absent value.
type Nullable struct {
	Elem TypeExpr
}

// List marks the wrapped type as a collection.
type List struct {
	Elem TypeExpr
}

// Rel attaches relationship metadata to the wrapped type. It must be the
// outermost wrapper of a relationship declaration.
type Rel struct {
	Elem TypeExpr
	Meta RelMeta
}

// RelMeta carries declaration-time relationship options. BackRef names
// the reverse field on the target entity; it is informational only and
// never enforced as a live back-reference.
type RelMeta struct {
	BackRef string
}

func (Scalar) typeExpr()    {}
func (EntityRef) typeExpr() {}
func (Nullable) typeExpr()  {}
func (List) typeExpr()      {}
func (Rel) typeExpr()       {}

// Shape is the canonical form of a declared type: the bare type with the
// wrapper information flattened out.
type Shape struct {
	// Bare is a Scalar or EntityRef.
	Bare TypeExpr
	// IsList is true for collection declarations.
	IsList bool
	// IsNullable is true for nullable declarations.
	IsNullable bool
	// Meta is the attached relationship metadata, or nil for plain fields.
	Meta *RelMeta
}

// Unwrap reduces a type expression to its canonical Shape, stripping the
// metadata wrapper first, then nullability, then the collection wrapper.
// Expressions that compose wrappers in any other order are malformed:
// in particular a collection of nullable elements is rejected rather
// than guessed at.
func Unwrap(expr TypeExpr) (Shape, error) {
	var shape Shape

	if r, ok := expr.(Rel); ok {
		meta := r.Meta
		shape.Meta = &meta
		expr = r.Elem
	}
	if n, ok := expr.(Nullable); ok {
		shape.IsNullable = true
		expr = n.Elem
	}
	if l, ok := expr.(List); ok {
		shape.IsList = true
		expr = l.Elem
	}

	switch bare := expr.(type) {
	case Scalar:
		if shape.Meta != nil {
			return Shape{}, &DefinitionError{Message: "relationship metadata attached to scalar type " + bare.Kind.String()}
		}
		shape.Bare = bare
	case EntityRef:
		if bare.Target == "" {
			return Shape{}, &DefinitionError{Message: "entity reference with empty target name"}
		}
		shape.Bare = bare
	case Nullable:
		return Shape{}, &DefinitionError{Message: "nullable wrapper inside a collection is unsupported"}
	case List:
		return Shape{}, &DefinitionError{Message: "nested collection wrappers are unsupported"}
	case Rel:
		return Shape{}, &DefinitionError{Message: "relationship metadata must be the outermost wrapper"}
	default:
		return Shape{}, &DefinitionError{Message: fmt.Sprintf("unknown type expression %T", expr)}
	}

	if shape.IsList && shape.IsNullable {
		// Collection-of-nullable never reaches here (rejected above), but a
		// Nullable[List[...]] declaration would. Only relationships may be
		// collections, and to-many relationships are empty-collection based.
		return Shape{}, &DefinitionError{Message: "a collection declaration cannot also be nullable"}
	}
	if shape.IsList && shape.Meta == nil {
		if _, ok := shape.Bare.(EntityRef); ok {
			return Shape{}, &DefinitionError{Message: "collection of entities requires relationship metadata"}
		}
		return Shape{}, &DefinitionError{Message: "collections of scalars are unsupported"}
	}
	if _, ok := shape.Bare.(EntityRef); ok && shape.Meta == nil {
		return Shape{}, &DefinitionError{Message: "entity reference requires relationship metadata"}
	}

	return shape, nil
}
