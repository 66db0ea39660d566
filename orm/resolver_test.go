package orm

import (
	"context"
	"testing"
)

func TestRef_LazyResolution(t *testing.T) {
	sess, store := newTestSession(t)
	author := savedAuthor(t, sess, 7, "Melville")

	book, _ := sess.Create("Book", map[string]any{
		"id": int64(1), "title": "Moby-Dick", "author": author,
	})
	if err := sess.Save(context.Background(), book); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Hydrate a fresh copy so the resolver cache starts cold.
	fresh, err := sess.FindByID(context.Background(), "Book", int64(1))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	authorFinds := store.finds["author"]

	related, err := fresh.Ref(context.Background(), "author")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if related == nil {
		t.Fatal("expected a resolved author")
	}
	name, _ := related.Get("name")
	if name != "Melville" {
		t.Errorf("name: got %v, want Melville", name)
	}
	if store.finds["author"] != authorFinds+1 {
		t.Errorf("first Ref should query once: %d extra queries", store.finds["author"]-authorFinds)
	}

	again, err := fresh.Ref(context.Background(), "author")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if again != related {
		t.Error("repeat Ref must return the cached instance")
	}
	if store.finds["author"] != authorFinds+1 {
		t.Errorf("repeat Ref must not query again: %d extra queries", store.finds["author"]-authorFinds)
	}
}

func TestRef_NullKeyResolvesAbsentWithoutQuery(t *testing.T) {
	sess, store := newTestSession(t)
	book, err := sess.Create("Book", map[string]any{"id": int64(1), "title": "Moby-Dick"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	related, err := book.Ref(context.Background(), "author")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if related != nil {
		t.Errorf("null key must resolve to absent, got %v", related.Values())
	}
	if store.finds["author"] != 0 {
		t.Errorf("null key must not query: %d queries", store.finds["author"])
	}
}

func TestRef_DanglingKeyCachesAbsence(t *testing.T) {
	sess, store := newTestSession(t)
	book, err := sess.Create("Book", map[string]any{"id": int64(1), "title": "Moby-Dick"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := book.Set("author_id", int64(404)); err != nil {
		t.Fatalf("set author_id: %v", err)
	}

	related, err := book.Ref(context.Background(), "author")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if related != nil {
		t.Errorf("dangling key must resolve to absent, got %v", related.Values())
	}
	if store.finds["author"] != 1 {
		t.Errorf("dangling key resolves with one query, got %d", store.finds["author"])
	}

	if _, err := book.Ref(context.Background(), "author"); err != nil {
		t.Fatalf("ref: %v", err)
	}
	if store.finds["author"] != 1 {
		t.Errorf("resolved absence must be cached: %d queries", store.finds["author"])
	}
}

func TestRef_ToManyRejected(t *testing.T) {
	sess, _ := newTestSession(t)
	author, err := sess.Create("Author", map[string]any{"id": int64(1), "name": "Melville"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := author.Ref(context.Background(), "books"); err == nil {
		t.Fatal("Ref on a to-many field must fail")
	}
}

func TestSetRef_UpdatesKeyAndCache(t *testing.T) {
	sess, store := newTestSession(t)
	author := savedAuthor(t, sess, 7, "Melville")

	book, err := sess.Create("Book", map[string]any{"id": int64(1), "title": "Moby-Dick"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := book.SetRef("author", author); err != nil {
		t.Fatalf("setref: %v", err)
	}

	fk, _ := book.Get("author_id")
	if fk != int64(7) {
		t.Errorf("author_id: got %v, want 7", fk)
	}
	finds := store.finds["author"]
	related, err := book.Ref(context.Background(), "author")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if related != author {
		t.Error("Ref after SetRef should serve the assigned instance")
	}
	if store.finds["author"] != finds {
		t.Errorf("Ref after SetRef must not query: %d extra", store.finds["author"]-finds)
	}
}

func TestSetRef_NilClearsKeyAndCache(t *testing.T) {
	sess, store := newTestSession(t)
	author := savedAuthor(t, sess, 7, "Melville")

	book, _ := sess.Create("Book", map[string]any{"id": int64(1), "title": "Moby-Dick"})
	if err := book.SetRef("author", author); err != nil {
		t.Fatalf("setref: %v", err)
	}
	if err := book.SetRef("author", nil); err != nil {
		t.Fatalf("setref nil: %v", err)
	}

	fk, _ := book.Get("author_id")
	if fk != nil {
		t.Errorf("author_id should be cleared, got %v", fk)
	}
	finds := store.finds["author"]
	related, err := book.Ref(context.Background(), "author")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if related != nil {
		t.Error("cleared reference must resolve to absent")
	}
	if store.finds["author"] != finds {
		t.Error("cleared reference must not query")
	}
}

func TestSetRef_WrongEntity(t *testing.T) {
	sess, _ := newTestSession(t)
	book1, _ := sess.Create("Book", map[string]any{"id": int64(1), "title": "Moby-Dick"})
	book2, _ := sess.Create("Book", map[string]any{"id": int64(2), "title": "Typee"})

	if err := book1.SetRef("author", book2); err == nil {
		t.Fatal("assigning a Book where an Author is expected must fail")
	}
}

func TestSetRef_TargetWithoutKey(t *testing.T) {
	sess, _ := newTestSession(t)
	author, err := sess.Create("Author", map[string]any{"name": "Melville"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	book, _ := sess.Create("Book", map[string]any{"id": int64(1), "title": "Moby-Dick"})

	if err := book.SetRef("author", author); err == nil {
		t.Fatal("assigning a keyless instance must fail")
	}
}

func TestSet_ForeignKeyResetsCache(t *testing.T) {
	sess, store := newTestSession(t)
	melville := savedAuthor(t, sess, 7, "Melville")
	savedAuthor(t, sess, 8, "Whitman")

	book, _ := sess.Create("Book", map[string]any{"id": int64(1), "title": "Moby-Dick"})
	if err := book.SetRef("author", melville); err != nil {
		t.Fatalf("setref: %v", err)
	}
	if err := book.Set("author_id", int64(8)); err != nil {
		t.Fatalf("set: %v", err)
	}

	finds := store.finds["author"]
	related, err := book.Ref(context.Background(), "author")
	if err != nil {
		t.Fatalf("ref: %v", err)
	}
	if related == nil {
		t.Fatal("expected a resolved author")
	}
	name, _ := related.Get("name")
	if name != "Whitman" {
		t.Errorf("rewritten key should resolve the new target, got %v", name)
	}
	if store.finds["author"] != finds+1 {
		t.Errorf("rewritten key should re-query once, got %d extra", store.finds["author"]-finds)
	}
}
