package schema

import (
	"fmt"
	"sync"

	"github.com/CaliLuke/go-relmap/model"
)

// Builder derives persistence schemas against a registry of entity
// definitions. Each definition is derived at most once: the result is
// memoized by definition identity and later calls return the cached
// schema unchanged. First builds are serialized behind a mutex, so a
// concurrent first use of the same definition from several goroutines
// observes exactly one derivation.
type Builder struct {
	reg   *model.Registry
	mu    sync.Mutex
	cache map[*model.Definition]*Schema
}

// NewBuilder creates a Builder resolving relationship targets through
// the given registry.
func NewBuilder(reg *model.Registry) *Builder {
	return &Builder{
		reg:   reg,
		cache: make(map[*model.Definition]*Schema),
	}
}

// Derive returns the persistence schema for the definition, building it
// on first use. Relationship fields never become columns; each to-one
// relationship instead contributes a synthesized {field}_id column whose
// nullability mirrors the relationship and whose kind mirrors the target
// entity's primary key. Unknown targets fail with
// UnregisteredTargetError, structural problems with DefinitionError.
func (b *Builder) Derive(def *model.Definition) (*Schema, error) {
	if def == nil {
		return nil, fmt.Errorf("derive: definition must not be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.cache[def]; ok {
		return s, nil
	}
	s, err := b.derive(def)
	if err != nil {
		return nil, err
	}
	b.cache[def] = s
	return s, nil
}

// MustDerive is like Derive but panics on error.
func (b *Builder) MustDerive(def *model.Definition) *Schema {
	s, err := b.Derive(def)
	if err != nil {
		panic(err)
	}
	return s
}

// Registry returns the registry the builder resolves targets through.
func (b *Builder) Registry() *model.Registry { return b.reg }

func (b *Builder) derive(def *model.Definition) (*Schema, error) {
	rels := model.Relationships(def)

	keyField, ok := def.KeyField()
	if !ok {
		return nil, &model.DefinitionError{
			Entity:  def.Name(),
			Message: fmt.Sprintf("no field marked as key and no %q field present", model.DefaultKeyField),
		}
	}
	keyShape, err := model.Unwrap(keyField.Type())
	if err != nil {
		return nil, err
	}
	keyScalar, isScalar := keyShape.Bare.(model.Scalar)
	if !isScalar || !keyScalar.Kind.Identifier() {
		return nil, &model.DefinitionError{
			Entity:  def.Name(),
			Field:   keyField.Name(),
			Message: "primary key must be an integer or string field",
		}
	}

	s := &Schema{
		Entity:     def.Name(),
		Table:      def.TableName(),
		PrimaryKey: model.ColumnName(keyField.Name()),
	}

	// Declared scalar fields first, in declaration order.
	for _, f := range def.Fields() {
		if _, isRel := rels[f.Name()]; isRel {
			continue
		}
		shape, err := model.Unwrap(f.Type())
		if err != nil {
			return nil, err
		}
		scalar := shape.Bare.(model.Scalar)
		s.Columns = append(s.Columns, Column{
			Name:       model.ColumnName(f.Name()),
			Kind:       scalar.Kind,
			Nullable:   shape.IsNullable,
			PrimaryKey: f == keyField,
			MaxLen:     f.Rules().MaxLen,
		})
	}

	// Synthesized foreign keys next, again in declaration order.
	for _, f := range def.Fields() {
		desc, isRel := rels[f.Name()]
		if !isRel || desc.ToMany {
			continue
		}
		fkName := model.ForeignKeyColumn(desc.Field)
		if _, taken := def.Field(fkName); taken {
			return nil, &model.DefinitionError{
				Entity:  def.Name(),
				Field:   desc.Field,
				Message: fmt.Sprintf("synthesized foreign key %q collides with a declared field", fkName),
			}
		}
		target, registered := b.reg.Lookup(desc.Target)
		if !registered {
			return nil, &model.UnregisteredTargetError{
				Entity: def.Name(),
				Field:  desc.Field,
				Target: desc.Target,
			}
		}
		targetKey, targetKind, err := primaryKeyOf(target)
		if err != nil {
			return nil, err
		}
		s.Columns = append(s.Columns, Column{
			Name:     fkName,
			Kind:     targetKind,
			Nullable: desc.Nullable,
			RelField: desc.Field,
		})
		s.ForeignKeys = append(s.ForeignKeys, ForeignKey{
			Column:    fkName,
			Field:     desc.Field,
			RefTable:  target.TableName(),
			RefColumn: targetKey,
		})
	}

	return s, nil
}

// primaryKeyOf resolves the primary-key column name and kind of a target
// definition without deriving its full schema, so that mutually
// referential entities do not recurse.
func primaryKeyOf(def *model.Definition) (string, model.ValueKind, error) {
	keyField, ok := def.KeyField()
	if !ok {
		return "", 0, &model.DefinitionError{
			Entity:  def.Name(),
			Message: fmt.Sprintf("no field marked as key and no %q field present", model.DefaultKeyField),
		}
	}
	shape, err := model.Unwrap(keyField.Type())
	if err != nil {
		return "", 0, err
	}
	scalar, isScalar := shape.Bare.(model.Scalar)
	if !isScalar || !scalar.Kind.Identifier() {
		return "", 0, &model.DefinitionError{
			Entity:  def.Name(),
			Field:   keyField.Name(),
			Message: "primary key must be an integer or string field",
		}
	}
	return model.ColumnName(keyField.Name()), scalar.Kind, nil
}
