// Package orm provides runtime entity instances on top of the derived
// persistence schemas: field access, lazy cross-entity reference
// resolution with per-instance caching, required-relationship checks,
// and the session CRUD surface.
package orm

import (
	"fmt"

	"github.com/CaliLuke/go-relmap/model"
	"github.com/CaliLuke/go-relmap/schema"
)

// refSlot is the per-field resolver cache. loaded distinguishes "never
// resolved" from "resolved to absent": a loaded slot with a nil value
// is a resolved absence and is returned without re-querying.
type refSlot struct {
	loaded bool
	value  *Instance
}

// Instance is a live entity object: a value map shaped by the entity's
// persistence schema plus one resolver cache slot per to-one
// relationship field. Instances are not safe for concurrent use without
// external synchronization; the caches are private to the instance.
type Instance struct {
	def       *model.Definition
	schema    *schema.Schema
	sess      *Session
	rels      map[string]model.RelDescriptor
	values    map[string]any
	refs      map[string]*refSlot
	persisted bool
}

// Definition returns the entity definition the instance was built from.
func (i *Instance) Definition() *model.Definition { return i.def }

// Schema returns the derived persistence schema backing the instance.
func (i *Instance) Schema() *schema.Schema { return i.schema }

// Persisted reports whether the instance has been stored.
func (i *Instance) Persisted() bool { return i.persisted }

// PrimaryKey returns the primary-key value, or nil when unset.
func (i *Instance) PrimaryKey() any { return i.values[i.schema.PrimaryKey] }

// Get returns the value of a declared scalar field or a synthesized
// foreign-key column. Relationship fields are read with Ref.
func (i *Instance) Get(field string) (any, error) {
	if _, isRel := i.rels[field]; isRel {
		return nil, fmt.Errorf("%s.%s is a relationship field; use Ref", i.def.Name(), field)
	}
	col := model.ColumnName(field)
	if _, ok := i.schema.Column(col); !ok {
		return nil, fmt.Errorf("%s has no field %q", i.def.Name(), field)
	}
	return i.values[col], nil
}

// Set assigns the value of a declared scalar field or a synthesized
// foreign-key column. Assigning a foreign-key column directly resets the
// corresponding resolver cache, so the next Ref re-resolves against the
// new key. Relationship fields are written with SetRef.
func (i *Instance) Set(field string, value any) error {
	if _, isRel := i.rels[field]; isRel {
		return fmt.Errorf("%s.%s is a relationship field; use SetRef", i.def.Name(), field)
	}
	col := model.ColumnName(field)
	c, ok := i.schema.Column(col)
	if !ok {
		return fmt.Errorf("%s has no field %q", i.def.Name(), field)
	}
	coerced, err := coerce(c.Kind, value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", i.def.Name(), field, err)
	}
	i.values[col] = coerced
	if c.RelField != "" {
		delete(i.refs, c.RelField)
	}
	return nil
}

// Populate assigns a map of values in one call. Relationship keys accept
// a related *Instance (or nil) and are routed through SetRef; everything
// else goes through Set.
func (i *Instance) Populate(values map[string]any) error {
	for field, value := range values {
		if _, isRel := i.rels[field]; isRel {
			if value == nil {
				if err := i.SetRef(field, nil); err != nil {
					return err
				}
				continue
			}
			related, ok := value.(*Instance)
			if !ok {
				return fmt.Errorf("%s.%s: expected *Instance, got %T", i.def.Name(), field, value)
			}
			if err := i.SetRef(field, related); err != nil {
				return err
			}
			continue
		}
		if err := i.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

// Values returns a copy of the instance's column values.
func (i *Instance) Values() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// scalarFieldValues extracts the declared scalar field values keyed by
// field name, the shape the validation collaborator expects.
func (i *Instance) scalarFieldValues() map[string]any {
	out := make(map[string]any)
	for _, f := range i.def.Fields() {
		if _, isRel := i.rels[f.Name()]; isRel {
			continue
		}
		if v, ok := i.values[model.ColumnName(f.Name())]; ok {
			out[f.Name()] = v
		}
	}
	return out
}

// ValidateRequired checks that every non-nullable to-one relationship
// has a populated foreign key. It stops at the first unset key, in field
// declaration order. Save runs it before any storage call; callers may
// also invoke it directly to pre-check an instance. To-many
// relationships carry no key on this side and are never checked. A
// non-null key pointing at a missing row is not detected here; it
// resolves to absent on read instead.
func (i *Instance) ValidateRequired() error {
	for _, f := range i.def.Fields() {
		desc, isRel := i.rels[f.Name()]
		if !isRel || desc.ToMany || desc.Nullable {
			continue
		}
		if i.values[model.ForeignKeyColumn(desc.Field)] == nil {
			return &model.RequiredRelationshipError{Field: desc.Field, Target: desc.Target}
		}
	}
	return nil
}
