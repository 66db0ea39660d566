package storage

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/CaliLuke/go-relmap/model"
	"github.com/CaliLuke/go-relmap/schema"
)

func bookSchema(t *testing.T) *schema.Schema {
	t.Helper()
	reg := model.NewRegistry()
	reg.MustRegister(model.MustNew("Author",
		model.Int("id").Key(),
		model.String("name"),
	))
	reg.MustRegister(model.MustNew("Book",
		model.Int("id").Key(),
		model.String("title").MaxLen(80),
		model.ToOne("author", "Author"),
	))
	book, _ := reg.Lookup("Book")
	s, err := schema.NewBuilder(reg).Derive(book)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return s
}

func mockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	store := NewStore(db, DefaultConfig())
	t.Cleanup(func() { store.Close() })
	return store, mock
}

func TestEnsureTable(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	want := `CREATE TABLE IF NOT EXISTS "book" (` +
		`"id" INTEGER PRIMARY KEY, ` +
		`"title" VARCHAR(80) NOT NULL, ` +
		`"author_id" INTEGER NOT NULL, ` +
		`FOREIGN KEY ("author_id") REFERENCES "author" ("id"))`
	mock.ExpectExec(regexp.QuoteMeta(want)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnsureTable(context.Background(), sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUpsert(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	want := `INSERT INTO "book" ("id", "title", "author_id") VALUES (?, ?, ?) ` +
		`ON CONFLICT ("id") DO UPDATE SET "title" = excluded."title", "author_id" = excluded."author_id"`
	mock.ExpectExec(regexp.QuoteMeta(want)).
		WithArgs(int64(1), "Moby-Dick", int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pk, err := store.Upsert(context.Background(), sc, map[string]any{
		"id":        int64(1),
		"title":     "Moby-Dick",
		"author_id": int64(9),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pk != int64(1) {
		t.Errorf("primary key: got %v, want 1", pk)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUpsert_MissingColumnsAreNull(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	mock.ExpectExec("INSERT INTO").
		WithArgs(int64(2), nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if _, err := store.Upsert(context.Background(), sc, map[string]any{"id": int64(2)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestFindByID(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	want := `SELECT "id", "title", "author_id" FROM "book" WHERE "id" = ? LIMIT 1`
	rows := sqlmock.NewRows([]string{"id", "title", "author_id"}).
		AddRow(int64(1), "Moby-Dick", int64(9))
	mock.ExpectQuery(regexp.QuoteMeta(want)).WithArgs(int64(1)).WillReturnRows(rows)

	values, err := store.FindByID(context.Background(), sc, int64(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["title"] != "Moby-Dick" {
		t.Errorf("title: got %v", values["title"])
	}
	if values["author_id"] != int64(9) {
		t.Errorf("author_id: got %v", values["author_id"])
	}
}

func TestFindByID_Absent(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	mock.ExpectQuery("SELECT").WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_id"}))

	values, err := store.FindByID(context.Background(), sc, int64(404))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values != nil {
		t.Errorf("absent row must be nil, got %v", values)
	}
}

func TestFindAll(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	want := `SELECT "id", "title", "author_id" FROM "book" ORDER BY "id"`
	rows := sqlmock.NewRows([]string{"id", "title", "author_id"}).
		AddRow(int64(1), "Moby-Dick", int64(9)).
		AddRow(int64(2), "Typee", int64(9))
	mock.ExpectQuery(regexp.QuoteMeta(want)).WillReturnRows(rows)

	all, err := store.FindAll(context.Background(), sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("rows: got %d, want 2", len(all))
	}
	if all[1]["title"] != "Typee" {
		t.Errorf("second row title: got %v", all[1]["title"])
	}
}

func TestDelete(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	want := `DELETE FROM "book" WHERE "id" = ?`
	mock.ExpectExec(regexp.QuoteMeta(want)).WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Delete(context.Background(), sc, int64(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	store, mock := mockStore(t)
	sc := bookSchema(t)

	mock.ExpectExec("DELETE FROM").WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Delete(context.Background(), sc, int64(404)); err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
