// Package schema derives persistence schemas from entity definitions:
// storage columns, the primary key, and foreign-key constraints
// synthesized from to-one relationships. It also projects persistence
// schemas into flat transfer schemas for boundary exchange.
package schema

import "github.com/CaliLuke/go-relmap/model"

// Column is one storage column of a derived schema.
type Column struct {
	// Name is the column name.
	Name string
	// Kind is the scalar storage kind.
	Kind model.ValueKind
	// Nullable is true when the column accepts NULL.
	Nullable bool
	// PrimaryKey is true for the primary-key column.
	PrimaryKey bool
	// MaxLen bounds string columns; 0 means unbounded.
	MaxLen int
	// RelField names the to-one relationship field this column was
	// synthesized for; empty for declared scalar columns.
	RelField string
}

// ForeignKey is one synthesized foreign-key constraint.
type ForeignKey struct {
	// Column is the synthesized column on this schema.
	Column string
	// Field is the originating relationship field name.
	Field string
	// RefTable is the target entity's table.
	RefTable string
	// RefColumn is the target entity's primary-key column.
	RefColumn string
}

// Schema is the derived persistence schema of one entity definition.
// It is built once per definition and cached; it never contains raw
// relationship fields as columns, and building it never mutates the
// definition it was derived from.
type Schema struct {
	// Entity is the source entity name.
	Entity string
	// Table is the storage table name.
	Table string
	// PrimaryKey is the primary-key column name.
	PrimaryKey string
	// Columns are the storage columns: declared scalar fields followed by
	// synthesized foreign keys, both in declaration order.
	Columns []Column
	// ForeignKeys are the constraints for the synthesized columns.
	ForeignKeys []ForeignKey
}

// Column retrieves a column by name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
