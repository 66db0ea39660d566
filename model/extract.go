package model

// RelDescriptor describes one relationship field extracted from a
// definition. Target is stored as a name and resolved lazily through the
// registry; extraction never fails on forward references.
type RelDescriptor struct {
	// Field is the declaring field name.
	Field string
	// Target is the referenced entity name, possibly a forward reference.
	Target string
	// ToMany is true for collection relationships. A to-many descriptor
	// never yields a synthesized foreign key; key ownership lives on the
	// to-one side.
	ToMany bool
	// Nullable is true when the relationship may be absent. To-many
	// relationships default to the empty collection and are never
	// null-checked.
	Nullable bool
	// BackRef is the reverse field name on the target, informational only.
	BackRef string
}

// Relationships extracts the relationship descriptors of a definition,
// keyed by field name. Fields without relationship metadata are plain
// scalars and produce no descriptor.
func Relationships(def *Definition) map[string]RelDescriptor {
	rels := make(map[string]RelDescriptor)
	for _, f := range def.Fields() {
		shape, err := Unwrap(f.Type())
		if err != nil || shape.Meta == nil {
			// New rejects malformed expressions, so err is only possible
			// for hand-built FieldDefs that bypassed it.
			continue
		}
		ref := shape.Bare.(EntityRef)
		rels[f.Name()] = RelDescriptor{
			Field:    f.Name(),
			Target:   ref.Target,
			ToMany:   shape.IsList,
			Nullable: shape.IsNullable,
			BackRef:  shape.Meta.BackRef,
		}
	}
	return rels
}
