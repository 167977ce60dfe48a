// Package sqlite provides SQLite-based implementations of the library's driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each store owns its own database file
// under the storage root:
//
//   - MetadataStore: books and chapters (metadata/library.db)
//   - TopicRegistry: topics and topic occurrences (topics/topics.db)
//   - VectorIndex: chunk text, metadata and embeddings (vectors/vectors.db)
//
// Store opens all three together for the application wiring.
//
// # Schema
//
// Each database is managed through versioned migrations embedded from the
// migrations/ directory and recorded in a schema_migrations table.
//
// # Thread Safety
//
// All operations are thread-safe. The stores use database-level locking provided
// by SQLite in WAL mode.
package sqlite
