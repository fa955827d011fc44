// Package sqlite provides a SQLite-based implementation of the library stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database connection backs:
//
//   - ItemStore: ingested books and papers
//   - ChunkStore: page-addressed chunks and their embeddings
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Embeddings
//
// Vectors are stored as packed little-endian float32 blobs (see package vector)
// together with the name of the model that produced them.
//
// # Data Location
//
// By default, the database is stored at ~/.groundwork/library.db
package sqlite
