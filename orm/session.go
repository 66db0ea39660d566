package orm

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/CaliLuke/go-relmap/model"
	"github.com/CaliLuke/go-relmap/schema"
	"github.com/CaliLuke/go-relmap/storage"
	"github.com/CaliLuke/go-relmap/validate"
)

// Session binds a registry of entity definitions to a storage backend
// and carries the derived-schema cache, the validation collaborator, and
// the set of tables already ensured. One session per logical unit of
// work; a session must not be shared across goroutines without external
// synchronization.
type Session struct {
	reg     *model.Registry
	builder *schema.Builder
	store   storage.Store
	checker *validate.Checker

	mu      sync.Mutex
	ensured map[string]bool
}

// NewSession creates a session over the given registry and store.
func NewSession(reg *model.Registry, store storage.Store) *Session {
	return &Session{
		reg:     reg,
		builder: schema.NewBuilder(reg),
		store:   store,
		checker: validate.New(),
		ensured: make(map[string]bool),
	}
}

// Builder returns the session's schema builder.
func (s *Session) Builder() *schema.Builder { return s.builder }

// New constructs an empty runtime instance of the named entity. This is
// the entity's first persistence use, so the registry must already hold
// every relationship target needed to derive its schema.
func (s *Session) New(entity string) (*Instance, error) {
	def, ok := s.reg.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("entity %q is not registered", entity)
	}
	sc, err := s.builder.Derive(def)
	if err != nil {
		return nil, err
	}
	return &Instance{
		def:    def,
		schema: sc,
		sess:   s,
		rels:   model.Relationships(def),
		values: make(map[string]any),
		refs:   make(map[string]*refSlot),
	}, nil
}

// Create constructs an instance and populates it in one call.
func (s *Session) Create(entity string, values map[string]any) (*Instance, error) {
	inst, err := s.New(entity)
	if err != nil {
		return nil, err
	}
	if err := inst.Populate(values); err != nil {
		return nil, err
	}
	return inst, nil
}

// Save validates and persists an instance. A string primary key left
// unset is assigned a fresh ULID first; integer keys are
// caller-assigned. Field validation runs next, then the
// required-relationship check, both before any storage call. Either
// check failing leaves storage untouched, so callers never observe a
// partial write.
func (s *Session) Save(ctx context.Context, inst *Instance) error {
	if inst == nil {
		return fmt.Errorf("save: instance must not be nil")
	}
	if err := inst.syncForeignKeys(); err != nil {
		return err
	}
	if err := s.assignKey(inst); err != nil {
		return err
	}

	validated, err := s.checker.Values(inst.def, inst.scalarFieldValues())
	if err != nil {
		return err
	}
	for field, v := range validated {
		inst.values[model.ColumnName(field)] = v
	}

	if err := inst.ValidateRequired(); err != nil {
		return err
	}

	if err := s.ensureTables(ctx, inst.schema); err != nil {
		return err
	}
	if _, err := s.store.Upsert(ctx, inst.schema, inst.values); err != nil {
		return err
	}
	inst.persisted = true
	return nil
}

// Delete removes a previously saved instance from storage.
func (s *Session) Delete(ctx context.Context, inst *Instance) error {
	if inst == nil {
		return fmt.Errorf("delete: instance must not be nil")
	}
	if !inst.persisted {
		return fmt.Errorf("delete %s: instance was never saved", inst.def.Name())
	}
	if err := s.store.Delete(ctx, inst.schema, inst.PrimaryKey()); err != nil {
		return err
	}
	inst.persisted = false
	return nil
}

// FindByID retrieves an instance by primary-key value. It returns
// (nil, nil) when no row matches.
func (s *Session) FindByID(ctx context.Context, entity string, id any) (*Instance, error) {
	def, sc, err := s.lookup(entity)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTables(ctx, sc); err != nil {
		return nil, err
	}
	row, err := s.store.FindByID(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return s.fromRow(def, sc, row)
}

// FindAll retrieves every stored instance of the entity.
func (s *Session) FindAll(ctx context.Context, entity string) ([]*Instance, error) {
	def, sc, err := s.lookup(entity)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTables(ctx, sc); err != nil {
		return nil, err
	}
	rows, err := s.store.FindAll(ctx, sc)
	if err != nil {
		return nil, err
	}
	instances := make([]*Instance, 0, len(rows))
	for _, row := range rows {
		inst, err := s.fromRow(def, sc, row)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func (s *Session) lookup(entity string) (*model.Definition, *schema.Schema, error) {
	def, ok := s.reg.Lookup(entity)
	if !ok {
		return nil, nil, fmt.Errorf("entity %q is not registered", entity)
	}
	sc, err := s.builder.Derive(def)
	if err != nil {
		return nil, nil, err
	}
	return def, sc, nil
}

// fromRow builds a persisted instance from a storage row, coercing
// driver values into canonical kinds column by column.
func (s *Session) fromRow(def *model.Definition, sc *schema.Schema, row map[string]any) (*Instance, error) {
	inst := &Instance{
		def:       def,
		schema:    sc,
		sess:      s,
		rels:      model.Relationships(def),
		values:    make(map[string]any, len(sc.Columns)),
		refs:      make(map[string]*refSlot),
		persisted: true,
	}
	for _, c := range sc.Columns {
		v, err := coerce(c.Kind, row[c.Name])
		if err != nil {
			return nil, fmt.Errorf("hydrate %s.%s: %w", def.Name(), c.Name, err)
		}
		inst.values[c.Name] = v
	}
	return inst, nil
}

// assignKey generates a ULID for an unset string primary key.
func (s *Session) assignKey(inst *Instance) error {
	if inst.PrimaryKey() != nil {
		return nil
	}
	pk, _ := inst.schema.Column(inst.schema.PrimaryKey)
	if pk.Kind == model.KindString {
		inst.values[pk.Name] = ulid.Make().String()
		return nil
	}
	return fmt.Errorf("save %s: primary key %q is not set", inst.def.Name(), pk.Name)
}

// ensureTables creates the schema's table, ensuring tables referenced by
// its foreign keys first. Each table is ensured once per session.
func (s *Session) ensureTables(ctx context.Context, sc *schema.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(ctx, sc, make(map[string]bool))
}

func (s *Session) ensureLocked(ctx context.Context, sc *schema.Schema, inFlight map[string]bool) error {
	if s.ensured[sc.Table] || inFlight[sc.Table] {
		return nil
	}
	inFlight[sc.Table] = true
	for _, fk := range sc.ForeignKeys {
		if fk.RefTable == sc.Table {
			continue
		}
		target, err := s.schemaByTable(fk.RefTable)
		if err != nil {
			return err
		}
		if err := s.ensureLocked(ctx, target, inFlight); err != nil {
			return err
		}
	}
	if err := s.store.EnsureTable(ctx, sc); err != nil {
		return err
	}
	s.ensured[sc.Table] = true
	return nil
}

// schemaByTable derives the schema of the entity whose table matches.
func (s *Session) schemaByTable(table string) (*schema.Schema, error) {
	for _, def := range s.reg.Definitions() {
		if def.TableName() == table {
			return s.builder.Derive(def)
		}
	}
	return nil, fmt.Errorf("no registered entity maps to table %q", table)
}
