package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/CaliLuke/go-relmap/model"
	"github.com/CaliLuke/go-relmap/schema"
)

// SQLiteStore is the SQLite-backed Store implementation, running over
// database/sql with the modernc.org/sqlite driver.
type SQLiteStore struct {
	db     *sql.DB
	cfg    Config
	logger *log.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used when Echo is enabled.
func WithLogger(l *log.Logger) Option {
	return func(s *SQLiteStore) { s.logger = l }
}

// Open opens a SQLite database described by the configuration.
func Open(cfg Config, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := NewStore(db, cfg, opts...)
	if cfg.ForeignKeys {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return store, nil
}

// NewStore wraps an existing database handle. The caller keeps ownership
// of pragmas and pooling; Close still closes the handle.
func NewStore(db *sql.DB, cfg Config, opts ...Option) *SQLiteStore {
	if cfg.StringLength <= 0 {
		cfg.StringLength = 255
	}
	s := &SQLiteStore{db: db, cfg: cfg, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// EnsureTable creates the table for the schema if it does not exist,
// including its foreign-key constraints. Referenced tables must already
// exist when foreign-key enforcement is on.
func (s *SQLiteStore) EnsureTable(ctx context.Context, sc *schema.Schema) error {
	query := s.createTableSQL(sc)
	if _, err := s.exec(ctx, query); err != nil {
		return fmt.Errorf("ensure table %s: %w", sc.Table, err)
	}
	return nil
}

// Upsert inserts the row, updating the existing row on a primary-key
// conflict. Columns missing from the value map are written as NULL.
func (s *SQLiteStore) Upsert(ctx context.Context, sc *schema.Schema, values map[string]any) (any, error) {
	query := s.upsertSQL(sc)
	args := make([]any, len(sc.Columns))
	for i, c := range sc.Columns {
		args[i] = values[c.Name]
	}
	if _, err := s.exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", sc.Table, err)
	}
	return values[sc.PrimaryKey], nil
}

// FindByID returns the row with the given primary-key value, or nil when
// absent.
func (s *SQLiteStore) FindByID(ctx context.Context, sc *schema.Schema, id any) (map[string]any, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		columnList(sc), quote(sc.Table), quote(sc.PrimaryKey))
	s.echo(query, id)

	row := s.db.QueryRowContext(ctx, query, id)
	values, err := scanRow(sc, row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s by id: %w", sc.Table, err)
	}
	return values, nil
}

// FindAll returns every row of the schema's table, ordered by primary key.
func (s *SQLiteStore) FindAll(ctx context.Context, sc *schema.Schema) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		columnList(sc), quote(sc.Table), quote(sc.PrimaryKey))
	s.echo(query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", sc.Table, err)
	}
	defer rows.Close()

	var result []map[string]any
	for rows.Next() {
		values, err := scanRows(sc, rows)
		if err != nil {
			return nil, fmt.Errorf("find all %s: %w", sc.Table, err)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find all %s: %w", sc.Table, err)
	}
	return result, nil
}

// Delete removes the row with the given primary-key value, returning
// ErrNotFound when no row matched.
func (s *SQLiteStore) Delete(ctx context.Context, sc *schema.Schema, id any) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quote(sc.Table), quote(sc.PrimaryKey))
	res, err := s.exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", sc.Table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", sc.Table, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.echo(query, args...)
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLiteStore) echo(query string, args ...any) {
	if s.cfg.Echo {
		s.logger.Printf("sql: %s %v", query, args)
	}
}

// createTableSQL renders CREATE TABLE IF NOT EXISTS with columns in
// schema order and foreign-key clauses last. Output is deterministic for
// a given schema.
func (s *SQLiteStore) createTableSQL(sc *schema.Schema) string {
	defs := make([]string, 0, len(sc.Columns)+len(sc.ForeignKeys))
	for _, c := range sc.Columns {
		def := quote(c.Name) + " " + s.columnType(c)
		if c.PrimaryKey {
			def += " PRIMARY KEY"
		} else if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	for _, fk := range sc.ForeignKeys {
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			quote(fk.Column), quote(fk.RefTable), quote(fk.RefColumn)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(sc.Table), strings.Join(defs, ", "))
}

func (s *SQLiteStore) upsertSQL(sc *schema.Schema) string {
	cols := make([]string, len(sc.Columns))
	params := make([]string, len(sc.Columns))
	var updates []string
	for i, c := range sc.Columns {
		cols[i] = quote(c.Name)
		params[i] = "?"
		if !c.PrimaryKey {
			updates = append(updates, quote(c.Name)+" = excluded."+quote(c.Name))
		}
	}
	conflict := fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", quote(sc.PrimaryKey), strings.Join(updates, ", "))
	if len(updates) == 0 {
		conflict = fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", quote(sc.PrimaryKey))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		quote(sc.Table), strings.Join(cols, ", "), strings.Join(params, ", "), conflict)
}

func (s *SQLiteStore) columnType(c schema.Column) string {
	switch c.Kind {
	case model.KindInt, model.KindBool:
		return "INTEGER"
	case model.KindFloat:
		return "REAL"
	case model.KindTime:
		return "TIMESTAMP"
	case model.KindString:
		length := c.MaxLen
		if length <= 0 {
			length = s.cfg.StringLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	default:
		return "TEXT"
	}
}

func quote(name string) string {
	return `"` + name + `"`
}

func columnList(sc *schema.Schema) string {
	names := sc.ColumnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

func scanRow(sc *schema.Schema, row *sql.Row) (map[string]any, error) {
	dest := scanDest(len(sc.Columns))
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return destToMap(sc, dest), nil
}

func scanRows(sc *schema.Schema, rows *sql.Rows) (map[string]any, error) {
	dest := scanDest(len(sc.Columns))
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return destToMap(sc, dest), nil
}

func scanDest(n int) []any {
	dest := make([]any, n)
	for i := range dest {
		var v any
		dest[i] = &v
	}
	return dest
}

func destToMap(sc *schema.Schema, dest []any) map[string]any {
	values := make(map[string]any, len(dest))
	for i, c := range sc.Columns {
		values[c.Name] = *(dest[i].(*any))
	}
	return values
}
