package schema

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/CaliLuke/go-relmap/model"
)

// Strategy selects how Project treats relationship-origin fields.
type Strategy int

const (
	// StrategyOmit drops relationship fields and their synthesized
	// foreign keys entirely.
	StrategyOmit Strategy = iota
	// StrategyOpaqueOptional keeps each relationship field as an
	// unconstrained optional slot the caller populates manually; the
	// synthesized foreign keys remain as ordinary columns.
	StrategyOpaqueOptional
	// StrategyIDOnly drops the relationship fields but keeps their
	// synthesized foreign keys.
	StrategyIDOnly
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyOmit:
		return "omit"
	case StrategyOpaqueOptional:
		return "opaque-optional"
	case StrategyIDOnly:
		return "id-only"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// TransferField is one field of a transfer schema.
type TransferField struct {
	// Name is the field name.
	Name string
	// Kind is the scalar kind; meaningless when Opaque is set.
	Kind model.ValueKind
	// Optional is true when the field may be absent.
	Optional bool
	// Opaque marks an unconstrained relationship slot produced by
	// StrategyOpaqueOptional. Opaque fields carry no kind and are never
	// resolved automatically.
	Opaque bool
}

// TransferSchema is a flat, non-lazy projection of a persistence schema
// for boundary exchange. No resolver is ever installed on it.
type TransferSchema struct {
	// Entity is the source entity name.
	Entity string
	// Strategy is the projection strategy that produced the schema.
	Strategy Strategy
	// Fields are the projected fields in schema order, with opaque
	// relationship slots (if any) appended last.
	Fields []TransferField
}

// Field retrieves a projected field by name.
func (t *TransferSchema) Field(name string) (TransferField, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return TransferField{}, false
}

// Project emits a transfer schema from a persistence schema using the
// given strategy for relationship-origin fields. The projection is a
// fresh artifact; the persistence schema is not modified.
func Project(s *Schema, strategy Strategy) (*TransferSchema, error) {
	if s == nil {
		return nil, fmt.Errorf("project: schema must not be nil")
	}
	t := &TransferSchema{Entity: s.Entity, Strategy: strategy}

	for _, c := range s.Columns {
		if c.RelField != "" && strategy == StrategyOmit {
			continue
		}
		t.Fields = append(t.Fields, TransferField{
			Name:     c.Name,
			Kind:     c.Kind,
			Optional: c.Nullable,
		})
	}

	if strategy == StrategyOpaqueOptional {
		for _, fk := range s.ForeignKeys {
			t.Fields = append(t.Fields, TransferField{
				Name:     fk.Field,
				Optional: true,
				Opaque:   true,
			})
		}
	}

	return t, nil
}

// EncodeRecord serializes a value map shaped by the transfer schema into
// msgpack. Keys that are not projected fields are dropped; no constraint
// checking happens here.
func (t *TransferSchema) EncodeRecord(values map[string]any) ([]byte, error) {
	record := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		if v, ok := values[f.Name]; ok {
			record[f.Name] = v
		}
	}
	data, err := msgpack.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", t.Entity, err)
	}
	return data, nil
}

// DecodeRecord deserializes a msgpack record into a value map, keeping
// only projected fields.
func (t *TransferSchema) DecodeRecord(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", t.Entity, err)
	}
	record := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		if v, ok := raw[f.Name]; ok {
			record[f.Name] = v
		}
	}
	return record, nil
}
