package model

import "testing"

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	author := MustNew("Author", Int("id").Key(), String("name"))

	if err := reg.Register(author); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := reg.Lookup("Author")
	if !ok {
		t.Fatal("Lookup(Author) should succeed")
	}
	if got != author {
		t.Error("Lookup should return the registered definition")
	}

	if _, ok := reg.Lookup("Book"); ok {
		t.Error("Lookup(Book) should miss")
	}
}

func TestRegistry_RegisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	author := MustNew("Author", Int("id").Key())

	if err := reg.Register(author); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Register(author); err != nil {
		t.Errorf("re-registering the same definition should be a no-op: %v", err)
	}
}

func TestRegistry_RejectsConflictingName(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(MustNew("Author", Int("id").Key()))

	other := MustNew("Author", Int("id").Key(), String("name"))
	if err := reg.Register(other); err == nil {
		t.Error("registering a different definition under a taken name should fail")
	}
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(MustNew("Author", Int("id").Key()))
	reg.MustRegister(MustNew("Book", Int("id").Key()))

	if got := len(reg.Definitions()); got != 2 {
		t.Errorf("Definitions: got %d, want 2", got)
	}
}
