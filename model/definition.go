package model

import "fmt"

// DefaultKeyField is the field name used as the primary key when no field
// is explicitly marked with Key.
const DefaultKeyField = "id"

// Definition is a named entity declaration: an ordered set of fields.
// Definitions are immutable once registered; the derived persistence
// schema is a separate artifact and never mutates the declaration.
type Definition struct {
	name   string
	table  string
	fields []*FieldDef
	byName map[string]*FieldDef
}

// New builds a Definition from the given fields. It validates the
// declaration shape: names must be unique, non-reserved identifiers,
// every type expression must unwrap to a canonical shape, and at most
// one field may be marked as the key.
func New(name string, fields ...*FieldDef) (*Definition, error) {
	if name == "" {
		return nil, &DefinitionError{Message: "entity name must not be empty"}
	}
	if IsReservedWord(name) {
		return nil, &DefinitionError{Entity: name, Message: fmt.Sprintf("%q is a reserved SQL keyword", name)}
	}

	def := &Definition{
		name:   name,
		fields: fields,
		byName: make(map[string]*FieldDef, len(fields)),
	}

	keySeen := false
	for _, f := range fields {
		if f.name == "" {
			return nil, &DefinitionError{Entity: name, Message: "field name must not be empty"}
		}
		if IsReservedWord(f.name) {
			return nil, &DefinitionError{Entity: name, Field: f.name, Message: fmt.Sprintf("%q is a reserved SQL keyword", f.name)}
		}
		if _, dup := def.byName[f.name]; dup {
			return nil, &DefinitionError{Entity: name, Field: f.name, Message: "duplicate field name"}
		}
		if err := f.finalize(); err != nil {
			if de, ok := err.(*DefinitionError); ok {
				de.Entity = name
			}
			return nil, err
		}
		shape, err := Unwrap(f.typ)
		if err != nil {
			if de, ok := err.(*DefinitionError); ok {
				de.Entity = name
				de.Field = f.name
			}
			return nil, err
		}
		if f.key {
			if keySeen {
				return nil, &DefinitionError{Entity: name, Field: f.name, Message: "multiple fields marked as key"}
			}
			if shape.Meta != nil {
				return nil, &DefinitionError{Entity: name, Field: f.name, Message: "a relationship field cannot be the key"}
			}
			keySeen = true
		}
		def.byName[f.name] = f
	}

	return def, nil
}

// MustNew is like New but panics on error. Intended for package-level
// declarations during application initialization.
func MustNew(name string, fields ...*FieldDef) *Definition {
	def, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return def
}

// Table overrides the storage table name, which defaults to the
// lower-cased entity name. It must be called before the definition is
// registered or derived.
func (d *Definition) Table(name string) *Definition {
	d.table = name
	return d
}

// Name returns the entity name.
func (d *Definition) Name() string { return d.name }

// TableName returns the storage table name for the entity.
func (d *Definition) TableName() string {
	if d.table != "" {
		return d.table
	}
	return TableName(d.name)
}

// Fields returns the declared fields in declaration order.
func (d *Definition) Fields() []*FieldDef { return d.fields }

// Field retrieves a declared field by name.
func (d *Definition) Field(name string) (*FieldDef, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// KeyField returns the primary-key field: the field marked with Key, or
// the field named "id" when none is marked. The second result is false
// when the definition has no key field at all.
func (d *Definition) KeyField() (*FieldDef, bool) {
	for _, f := range d.fields {
		if f.key {
			return f, true
		}
	}
	f, ok := d.byName[DefaultKeyField]
	return f, ok
}
