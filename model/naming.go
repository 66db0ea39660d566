package model

import "github.com/go-openapi/inflect"

// ForeignKeySuffix is appended to a relationship field name to form its
// synthesized foreign-key column.
const ForeignKeySuffix = "_id"

// TableName returns the default storage table name for an entity:
// the underscored, lower-cased entity name (e.g. OrderItem → order_item).
func TableName(entity string) string {
	return inflect.Underscore(entity)
}

// ColumnName returns the storage column name for a declared field.
// Field names are already declared in snake_case by convention; this
// normalizes any camel-cased declarations.
func ColumnName(field string) string {
	return inflect.Underscore(field)
}

// ForeignKeyColumn returns the synthesized foreign-key column name for a
// to-one relationship field. The rule is fixed: {field}_id.
func ForeignKeyColumn(field string) string {
	return ColumnName(field) + ForeignKeySuffix
}
