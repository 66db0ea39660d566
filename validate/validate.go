// Package validate is the validation collaborator of the mapper: it
// turns an entity definition's field constraints into a rule map and
// checks value maps against it before any persistence action.
// Relationship fields are not part of the validation schema; they are
// handled by the persistence layer.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/CaliLuke/go-relmap/model"
)

// FieldError is one validation failure, identified by field name.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Error returns the error message for FieldError.
func (e FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// FieldErrors aggregates the validation failures of one value map.
type FieldErrors []FieldError

// Error returns the combined error message.
func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Checker validates value maps against entity definitions using
// constraint rules compiled from the field declarations.
type Checker struct {
	v *validator.Validate
}

// New creates a Checker.
func New() *Checker {
	return &Checker{v: validator.New()}
}

// Rules compiles the definition's scalar fields into a field → rule-tag
// map. Relationship fields never appear in the map.
func (c *Checker) Rules(def *model.Definition) map[string]string {
	rels := model.Relationships(def)
	rules := make(map[string]string)
	for _, f := range def.Fields() {
		if _, isRel := rels[f.Name()]; isRel {
			continue
		}
		rules[f.Name()] = ruleTag(f)
	}
	return rules
}

// Values checks a value map against the definition and returns the
// validated values with declared defaults applied. Failures come back as
// FieldErrors naming each offending field; the map contents are not
// partially applied on failure. Keys that are not declared scalar fields
// are rejected.
func (c *Checker) Values(def *model.Definition, values map[string]any) (map[string]any, error) {
	rels := model.Relationships(def)

	var errs FieldErrors
	out := make(map[string]any, len(values))

	for _, f := range def.Fields() {
		if _, isRel := rels[f.Name()]; isRel {
			continue
		}
		shape, err := model.Unwrap(f.Type())
		if err != nil {
			return nil, err
		}
		v, present := values[f.Name()]
		if !present || v == nil {
			if d, ok := f.DefaultValue(); ok {
				out[f.Name()] = d
				continue
			}
			if !shape.IsNullable {
				errs = append(errs, FieldError{Field: f.Name(), Rule: "required", Message: "value is required"})
				continue
			}
			out[f.Name()] = nil
			continue
		}
		if tag := ruleTag(f); tag != "" {
			if err := c.v.Var(v, tag); err != nil {
				errs = append(errs, FieldError{
					Field:   f.Name(),
					Rule:    tag,
					Message: fmt.Sprintf("value %v violates %q", v, tag),
				})
				continue
			}
		}
		out[f.Name()] = v
	}

	var unknown []string
	for key := range values {
		if _, ok := def.Field(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, FieldError{Field: key, Rule: "known", Message: "unknown field"})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// ruleTag renders a field's constraints as a validator tag expression.
func ruleTag(f *model.FieldDef) string {
	var parts []string
	rules := f.Rules()
	if rules.MaxLen > 0 {
		parts = append(parts, fmt.Sprintf("max=%d", rules.MaxLen))
	}
	if rules.Min != nil {
		parts = append(parts, fmt.Sprintf("min=%v", *rules.Min))
	}
	if rules.Max != nil {
		parts = append(parts, fmt.Sprintf("max=%v", *rules.Max))
	}
	return strings.Join(parts, ",")
}
