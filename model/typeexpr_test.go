package model

import "testing"

func TestUnwrap_PlainScalar(t *testing.T) {
	shape, err := Unwrap(Scalar{Kind: KindString})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shape.IsList || shape.IsNullable || shape.Meta != nil {
		t.Errorf("plain scalar should carry no wrappers: %+v", shape)
	}
	if s, ok := shape.Bare.(Scalar); !ok || s.Kind != KindString {
		t.Errorf("Bare: got %#v, want string scalar", shape.Bare)
	}
}

func TestUnwrap_NullableScalar(t *testing.T) {
	shape, err := Unwrap(Nullable{Elem: Scalar{Kind: KindInt}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shape.IsNullable {
		t.Error("IsNullable should be true")
	}
	if shape.IsList || shape.Meta != nil {
		t.Errorf("unexpected wrappers: %+v", shape)
	}
}

func TestUnwrap_ToOneRelation(t *testing.T) {
	expr := Rel{Elem: EntityRef{Target: "Author"}, Meta: RelMeta{BackRef: "books"}}
	shape, err := Unwrap(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shape.Meta == nil || shape.Meta.BackRef != "books" {
		t.Fatalf("Meta: got %+v, want BackRef=books", shape.Meta)
	}
	if shape.IsList || shape.IsNullable {
		t.Errorf("to-one required relation should not be list or nullable: %+v", shape)
	}
	if ref, ok := shape.Bare.(EntityRef); !ok || ref.Target != "Author" {
		t.Errorf("Bare: got %#v, want EntityRef{Author}", shape.Bare)
	}
}

func TestUnwrap_NullableToOneRelation(t *testing.T) {
	expr := Rel{Elem: Nullable{Elem: EntityRef{Target: "Category"}}}
	shape, err := Unwrap(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shape.IsNullable {
		t.Error("IsNullable should be true")
	}
	if shape.IsList {
		t.Error("IsList should be false")
	}
	if shape.Meta == nil {
		t.Error("Meta should be present")
	}
}

func TestUnwrap_ToManyRelation(t *testing.T) {
	expr := Rel{Elem: List{Elem: EntityRef{Target: "Book"}}, Meta: RelMeta{BackRef: "author"}}
	shape, err := Unwrap(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shape.IsList {
		t.Error("IsList should be true")
	}
	if shape.IsNullable {
		t.Error("to-many relations default to the empty collection, never nullable")
	}
}

func TestUnwrap_Malformed(t *testing.T) {
	tests := []struct {
		name string
		expr TypeExpr
	}{
		{"metadata on scalar", Rel{Elem: Scalar{Kind: KindInt}}},
		{"collection of nullable", Rel{Elem: List{Elem: Nullable{Elem: EntityRef{Target: "X"}}}}},
		{"nullable collection", Rel{Elem: Nullable{Elem: List{Elem: EntityRef{Target: "X"}}}}},
		{"metadata not outermost", Nullable{Elem: Rel{Elem: EntityRef{Target: "X"}}}},
		{"bare entity ref without metadata", EntityRef{Target: "X"}},
		{"collection of scalars", List{Elem: Scalar{Kind: KindString}}},
		{"nested collections", Rel{Elem: List{Elem: List{Elem: EntityRef{Target: "X"}}}}},
		{"empty target", Rel{Elem: EntityRef{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unwrap(tt.expr); err == nil {
				t.Errorf("Unwrap(%#v) should fail", tt.expr)
			} else if _, ok := err.(*DefinitionError); !ok {
				t.Errorf("error type: got %T, want *DefinitionError", err)
			}
		})
	}
}

func TestValueKind_String(t *testing.T) {
	pairs := map[ValueKind]string{
		KindInt:    "integer",
		KindFloat:  "double",
		KindBool:   "boolean",
		KindString: "string",
		KindTime:   "datetime",
	}
	for kind, want := range pairs {
		if got := kind.String(); got != want {
			t.Errorf("%d.String(): got %q, want %q", kind, got, want)
		}
	}
}

func TestValueKind_Identifier(t *testing.T) {
	if !KindInt.Identifier() || !KindString.Identifier() {
		t.Error("integer and string kinds are identifier-compatible")
	}
	if KindFloat.Identifier() || KindBool.Identifier() || KindTime.Identifier() {
		t.Error("float, bool, and time kinds are not identifier-compatible")
	}
}
