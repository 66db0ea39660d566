package model

import "strings"

// sqlReservedWords is the set of SQL keywords that cannot be used as
// entity or field names without quoting. The list covers the SQLite
// keywords most likely to collide with domain vocabulary.
var sqlReservedWords = map[string]bool{
	// Statements
	"select": true, "insert": true, "update": true, "delete": true,
	"create": true, "drop": true, "alter": true, "replace": true,
	// Clauses
	"from": true, "where": true, "group": true, "having": true,
	"order": true, "limit": true, "offset": true, "values": true,
	"set": true, "into": true, "join": true, "union": true,
	// Table definition
	"table": true, "index": true, "primary": true, "foreign": true,
	"references": true, "constraint": true, "unique": true,
	"default": true, "check": true, "column": true,
	// Operators and predicates
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"like": true, "between": true, "exists": true, "case": true,
	"when": true, "then": true, "else": true, "end": true,
	// Literals and misc
	"null": true, "true": true, "false": true, "as": true,
	"distinct": true, "all": true, "on": true, "using": true,
	"transaction": true, "commit": true, "rollback": true,
}

// IsReservedWord returns true if the given name is a SQL reserved
// keyword. The check is case-insensitive.
func IsReservedWord(name string) bool {
	return sqlReservedWords[strings.ToLower(name)]
}
