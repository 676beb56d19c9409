// Package sqlite provides the SQLite-backed evidence store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database holds:
//
//   - abstracts: PubMed abstracts keyed by PMID
//   - chunks: fixed-size windows over abstracts with float32 embeddings
//   - index_meta: bookkeeping such as the last build time
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.reinfect/data/evidence.db
//
// # Embeddings
//
// Embeddings are stored as little-endian float32 blobs.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
