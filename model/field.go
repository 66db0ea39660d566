package model

// Constraints are the validation-schema constraints attached to a scalar
// field. They are consumed by the validation collaborator, not by the
// persistence layer (with the exception of MaxLen, which also informs
// column sizing).
type Constraints struct {
	// MaxLen bounds the length of string values; 0 means unbounded.
	MaxLen int
	// Min is the inclusive lower bound for numeric values.
	Min *float64
	// Max is the inclusive upper bound for numeric values.
	Max *float64
}

// FieldDef is a single declared field: a name, a type expression, and
// optional key marking, default value, and validation constraints.
// FieldDefs are created with the builder constructors (Int, String,
// ToOne, ...) and configured by chaining before the definition is built.
type FieldDef struct {
	name        string
	typ         TypeExpr
	key         bool
	hasDefault  bool
	defaultVal  any
	constraints Constraints

	// relationship builder state, folded into typ by finalize
	relTarget  string
	relToMany  bool
	relBackRef string
	optional   bool
	isRel      bool
}

func newScalar(name string, kind ValueKind) *FieldDef {
	return &FieldDef{name: name, typ: Scalar{Kind: kind}}
}

// Int declares a 64-bit integer field.
func Int(name string) *FieldDef { return newScalar(name, KindInt) }

// Float declares a 64-bit float field.
func Float(name string) *FieldDef { return newScalar(name, KindFloat) }

// Bool declares a boolean field.
func Bool(name string) *FieldDef { return newScalar(name, KindBool) }

// String declares a string field.
func String(name string) *FieldDef { return newScalar(name, KindString) }

// Time declares a timestamp field.
func Time(name string) *FieldDef { return newScalar(name, KindTime) }

// ToOne declares a to-one relationship field referencing the named target
// entity. The relationship is required unless Optional is chained. The
// target may be a forward reference to an entity registered later.
func ToOne(name, target string) *FieldDef {
	return &FieldDef{name: name, isRel: true, relTarget: target}
}

// ToMany declares a to-many relationship field referencing the named
// target entity. No foreign key is synthesized for it; the owning side
// is the target entity.
func ToMany(name, target string) *FieldDef {
	return &FieldDef{name: name, isRel: true, relTarget: target, relToMany: true}
}

// Key marks the field as the primary key.
func (f *FieldDef) Key() *FieldDef {
	f.key = true
	return f
}

// Optional marks the field as nullable. On a to-one relationship it makes
// the relationship (and its synthesized foreign key) nullable.
func (f *FieldDef) Optional() *FieldDef {
	f.optional = true
	return f
}

// Default sets the value used when the field is absent at validation time.
func (f *FieldDef) Default(v any) *FieldDef {
	f.hasDefault = true
	f.defaultVal = v
	return f
}

// MaxLen bounds the length of string values.
func (f *FieldDef) MaxLen(n int) *FieldDef {
	f.constraints.MaxLen = n
	return f
}

// Min sets the inclusive lower bound for numeric values.
func (f *FieldDef) Min(v float64) *FieldDef {
	f.constraints.Min = &v
	return f
}

// Max sets the inclusive upper bound for numeric values.
func (f *FieldDef) Max(v float64) *FieldDef {
	f.constraints.Max = &v
	return f
}

// BackRef records the name of the reverse relationship field on the
// target entity. Informational only.
func (f *FieldDef) BackRef(field string) *FieldDef {
	f.relBackRef = field
	return f
}

// Name returns the declared field name.
func (f *FieldDef) Name() string { return f.name }

// Type returns the field's finalized type expression.
func (f *FieldDef) Type() TypeExpr { return f.typ }

// IsKey reports whether the field is marked as the primary key.
func (f *FieldDef) IsKey() bool { return f.key }

// HasDefault reports whether a default value is declared.
func (f *FieldDef) HasDefault() bool { return f.hasDefault }

// DefaultValue returns the declared default value, if any.
func (f *FieldDef) DefaultValue() (any, bool) { return f.defaultVal, f.hasDefault }

// Rules returns the field's validation constraints.
func (f *FieldDef) Rules() Constraints { return f.constraints }

// finalize folds the builder state into a type expression honoring the
// wrapper precedence: relationship metadata outermost, then nullability,
// then the collection wrapper.
func (f *FieldDef) finalize() error {
	if !f.isRel {
		if f.optional {
			f.typ = Nullable{Elem: f.typ}
		}
		return nil
	}
	if f.relToMany && f.optional {
		return &DefinitionError{Field: f.name, Message: "a to-many relationship cannot be optional"}
	}
	var inner TypeExpr = EntityRef{Target: f.relTarget}
	if f.relToMany {
		inner = List{Elem: inner}
	} else if f.optional {
		inner = Nullable{Elem: inner}
	}
	f.typ = Rel{Elem: inner, Meta: RelMeta{BackRef: f.relBackRef}}
	return nil
}
