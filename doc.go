// Package gorelmap provides a dual-schema object mapper for Go.
//
// One declared entity definition yields both a validation schema,
// enforced before any persistence action, and a derived relational
// persistence schema with explicit columns, primary keys, and
// foreign-key constraints synthesized from to-one relationships.
// Cross-entity references resolve lazily with per-instance caching.
//
// The module is organized into six packages:
//
//   - model: entity definitions, type expressions, relationship extraction, and the registry
//   - schema: persistence-schema derivation and transfer-schema projection
//   - orm: runtime instances, lazy reference resolution, and session CRUD
//   - storage: the SQLite-backed storage collaborator
//   - validate: the field-constraint validation collaborator
//   - dsl: the textual entity-definition format
//
// Every package compiles and tests without CGo: the storage backend
// runs on the pure-Go modernc.org/sqlite driver.
package gorelmap
