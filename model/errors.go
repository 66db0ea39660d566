package model

import "fmt"

// DefinitionError reports a malformed entity declaration: a bad type
// expression, a duplicate or reserved name, a missing or non-identifier
// primary key, or a synthesized-column collision. It is fatal and is
// never recovered from.
type DefinitionError struct {
	Entity  string
	Field   string
	Message string
}

// Error returns the error message for DefinitionError.
func (e *DefinitionError) Error() string {
	switch {
	case e.Entity != "" && e.Field != "":
		return fmt.Sprintf("definition %s.%s: %s", e.Entity, e.Field, e.Message)
	case e.Entity != "":
		return fmt.Sprintf("definition %s: %s", e.Entity, e.Message)
	default:
		return "definition: " + e.Message
	}
}

// UnregisteredTargetError is returned when a relationship names a target
// entity that has not been registered by the time the target is actually
// needed, at schema derivation or first resolution.
type UnregisteredTargetError struct {
	Entity string
	Field  string
	Target string
}

// Error returns the error message for UnregisteredTargetError.
func (e *UnregisteredTargetError) Error() string {
	return fmt.Sprintf("relationship %s.%s: target entity %q is not registered",
		e.Entity, e.Field, e.Target)
}

// RequiredRelationshipError is returned when a write is attempted while a
// non-nullable relationship's foreign key is unset. It is raised before
// any storage call is made.
type RequiredRelationshipError struct {
	Field  string
	Target string
}

// Error returns the error message for RequiredRelationshipError.
func (e *RequiredRelationshipError) Error() string {
	return fmt.Sprintf("required relationship %q cannot be empty; assign a saved %s instance",
		e.Field, e.Target)
}
