// Package dsl parses the textual entity-definition format into model
// definitions. The format declares one entity per block, scalar fields
// by kind name, and relationship fields with an arrow:
//
//	entity Book {
//	    id     integer @key
//	    title  string  @maxlen(120)
//	    author -> Author @backref(books)
//	}
//	entity Author {
//	    id    integer @key
//	    name  string
//	    books -> many Book @backref(author)
//	}
//
// A trailing ? on a type marks it optional: `editor -> Author?`,
// `summary string?`.
package dsl

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/CaliLuke/go-relmap/model"
)

// --- Participle grammar structs ---

// schemaFile is the top-level grammar: a sequence of entity blocks.
type schemaFile struct {
	Entities []*entityDef `parser:"@@*"`
}

// entityDef parses: entity Name [@table(name)] { field* }
type entityDef struct {
	Name   string      `parser:"'entity' @Ident"`
	Annots []*annot    `parser:"@@*"`
	Fields []*fieldDef `parser:"'{' @@* '}'"`
}

// fieldDef parses one field line: name followed by a scalar kind or a
// relationship arrow, then annotations.
type fieldDef struct {
	Name   string      `parser:"@Ident"`
	Rel    *relType    `parser:"( @@"`
	Scalar *scalarType `parser:"| @@ )"`
	Annots []*annot    `parser:"@@*"`
}

// relType parses: -> [many] Target [?]
type relType struct {
	Many     bool   `parser:"'->' @'many'?"`
	Target   string `parser:"@Ident"`
	Optional bool   `parser:"@'?'?"`
}

// scalarType parses: kind [?]
type scalarType struct {
	Kind     string `parser:"@('integer' | 'double' | 'boolean' | 'string' | 'datetime')"`
	Optional bool   `parser:"@'?'?"`
}

// annot parses: @key, @maxlen(n), @min(n), @max(n), @backref(field), @table(name)
type annot struct {
	Key     bool     `parser:"  @'@key'"`
	MaxLen  *int     `parser:"| '@maxlen' '(' @Number ')'"`
	Min     *float64 `parser:"| '@min' '(' @Number ')'"`
	Max     *float64 `parser:"| '@max' '(' @Number ')'"`
	BackRef string   `parser:"| '@backref' '(' @Ident ')'"`
	Table   string   `parser:"| '@table' '(' @Ident ')'"`
}

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "AnnotKW", Pattern: `@(key|maxlen|min|max|backref|table)`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[(){}?]`},
})

var schemaParser = participle.MustBuild[schemaFile](
	participle.Lexer(schemaLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses entity declarations from source text into definitions,
// in declaration order. Targets may reference entities declared later
// in the same text or registered separately.
func Parse(src string) ([]*model.Definition, error) {
	file, err := schemaParser.ParseString("schema", src)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	defs := make([]*model.Definition, 0, len(file.Entities))
	for _, e := range file.Entities {
		def, err := convertEntity(e)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ParseFile reads and parses entity declarations from a file.
func ParseFile(path string) ([]*model.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(string(data))
}

// Load parses the source text and registers every definition into the
// registry.
func Load(reg *model.Registry, src string) error {
	defs, err := Parse(src)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile parses a schema file and registers its definitions.
func LoadFile(reg *model.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	return Load(reg, string(data))
}

func convertEntity(e *entityDef) (*model.Definition, error) {
	fields := make([]*model.FieldDef, 0, len(e.Fields))
	for _, f := range e.Fields {
		field, err := convertField(e.Name, f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	def, err := model.New(e.Name, fields...)
	if err != nil {
		return nil, err
	}
	for _, a := range e.Annots {
		switch {
		case a.Table != "":
			def.Table(a.Table)
		default:
			return nil, fmt.Errorf("entity %s: unsupported entity annotation", e.Name)
		}
	}
	return def, nil
}

func convertField(entity string, f *fieldDef) (*model.FieldDef, error) {
	var field *model.FieldDef

	switch {
	case f.Rel != nil:
		if f.Rel.Many {
			field = model.ToMany(f.Name, f.Rel.Target)
		} else {
			field = model.ToOne(f.Name, f.Rel.Target)
		}
		if f.Rel.Optional {
			field.Optional()
		}
	case f.Scalar != nil:
		switch f.Scalar.Kind {
		case "integer":
			field = model.Int(f.Name)
		case "double":
			field = model.Float(f.Name)
		case "boolean":
			field = model.Bool(f.Name)
		case "string":
			field = model.String(f.Name)
		case "datetime":
			field = model.Time(f.Name)
		default:
			return nil, fmt.Errorf("%s.%s: unknown kind %q", entity, f.Name, f.Scalar.Kind)
		}
		if f.Scalar.Optional {
			field.Optional()
		}
	default:
		return nil, fmt.Errorf("%s.%s: field has no type", entity, f.Name)
	}

	for _, a := range f.Annots {
		switch {
		case a.Key:
			field.Key()
		case a.MaxLen != nil:
			field.MaxLen(*a.MaxLen)
		case a.Min != nil:
			field.Min(*a.Min)
		case a.Max != nil:
			field.Max(*a.Max)
		case a.BackRef != "":
			if f.Rel == nil {
				return nil, fmt.Errorf("%s.%s: @backref on a non-relationship field", entity, f.Name)
			}
			field.BackRef(a.BackRef)
		case a.Table != "":
			return nil, fmt.Errorf("%s.%s: @table is an entity annotation", entity, f.Name)
		}
	}
	return field, nil
}
