package orm

import (
	"context"
	"fmt"

	"github.com/CaliLuke/go-relmap/model"
)

// Ref resolves a to-one relationship field, lazily. A cached result is
// returned unconditionally, including a cached absence. Otherwise the
// synthesized foreign key drives resolution: a null key caches and
// returns absence without a query; a set key resolves the target entity
// through the registry and issues a single find-by-identifier against
// the store. Whatever comes back is cached; a dangling key resolves to
// absence, never an error.
func (i *Instance) Ref(ctx context.Context, field string) (*Instance, error) {
	desc, isRel := i.rels[field]
	if !isRel {
		return nil, fmt.Errorf("%s has no relationship field %q", i.def.Name(), field)
	}
	if desc.ToMany {
		return nil, fmt.Errorf("%s.%s is a to-many relationship and has no single reference", i.def.Name(), field)
	}

	if slot, ok := i.refs[field]; ok && slot.loaded {
		return slot.value, nil
	}

	fk := i.values[model.ForeignKeyColumn(field)]
	if fk == nil {
		i.refs[field] = &refSlot{loaded: true}
		return nil, nil
	}

	targetDef, ok := i.sess.reg.Lookup(desc.Target)
	if !ok {
		return nil, &model.UnregisteredTargetError{Entity: i.def.Name(), Field: field, Target: desc.Target}
	}
	targetSchema, err := i.sess.builder.Derive(targetDef)
	if err != nil {
		return nil, err
	}

	row, err := i.sess.store.FindByID(ctx, targetSchema, fk)
	if err != nil {
		return nil, fmt.Errorf("resolve %s.%s: %w", i.def.Name(), field, err)
	}
	if row == nil {
		i.refs[field] = &refSlot{loaded: true}
		return nil, nil
	}

	related, err := i.sess.fromRow(targetDef, targetSchema, row)
	if err != nil {
		return nil, fmt.Errorf("resolve %s.%s: %w", i.def.Name(), field, err)
	}
	i.refs[field] = &refSlot{loaded: true, value: related}
	return related, nil
}

// SetRef assigns a to-one relationship field. A non-nil related instance
// must already carry a primary key (it must be saved, or have an
// assigned identifier); the cache slot and the synthesized foreign key
// are updated together. A nil assignment clears both; whether nil is
// ultimately legal on a required relationship is decided at save time,
// not here.
func (i *Instance) SetRef(field string, related *Instance) error {
	desc, isRel := i.rels[field]
	if !isRel {
		return fmt.Errorf("%s has no relationship field %q", i.def.Name(), field)
	}
	if desc.ToMany {
		return fmt.Errorf("%s.%s is a to-many relationship; assign from the owning side", i.def.Name(), field)
	}

	fkCol := model.ForeignKeyColumn(field)
	if related == nil {
		i.values[fkCol] = nil
		i.refs[field] = &refSlot{loaded: true}
		return nil
	}

	if related.def.Name() != desc.Target {
		return fmt.Errorf("%s.%s: expected %s instance, got %s",
			i.def.Name(), field, desc.Target, related.def.Name())
	}
	pk := related.PrimaryKey()
	if pk == nil {
		return fmt.Errorf("%s.%s: related %s has no primary key; save it first",
			i.def.Name(), field, desc.Target)
	}
	i.values[fkCol] = pk
	i.refs[field] = &refSlot{loaded: true, value: related}
	return nil
}

// syncForeignKeys re-extracts foreign-key values from live cache slots
// before a write, so a related instance saved after assignment
// contributes its freshly assigned key.
func (i *Instance) syncForeignKeys() error {
	for field, slot := range i.refs {
		if !slot.loaded {
			continue
		}
		if slot.value == nil {
			continue
		}
		fkCol := model.ForeignKeyColumn(field)
		pk := slot.value.PrimaryKey()
		if pk == nil {
			return fmt.Errorf("%s.%s: related %s has no primary key; save it first",
				i.def.Name(), field, i.rels[field].Target)
		}
		i.values[fkCol] = pk
	}
	return nil
}
