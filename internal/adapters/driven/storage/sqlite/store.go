package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/reinfect/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// metaBuiltAt is the index_meta key holding the last build time.
const metaBuiltAt = "built_at"

// sqliteMaxVars bounds the placeholders used in a single IN clause.
const sqliteMaxVars = 500

// Ensure Store implements the interface.
var _ driven.EvidenceStore = (*Store)(nil)

// Store is a SQLite-backed evidence store holding abstracts and their
// embedded chunks.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates or opens the evidence database in dataDir.
// If dataDir is empty, defaults to ~/.reinfect/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".reinfect", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, domain.EvidenceDBFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_evidence.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveAbstracts inserts or replaces abstracts by PMID.
func (s *Store) SaveAbstracts(ctx context.Context, abstracts []domain.Abstract) error {
	if len(abstracts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO abstracts (pmid, text, topic, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(pmid) DO UPDATE SET
			text = excluded.text,
			topic = excluded.topic,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range abstracts {
		if _, err := stmt.ExecContext(ctx, a.PMID, a.Text, a.Topic, a.FetchedAt.UTC()); err != nil {
			return fmt.Errorf("saving abstract %s: %w", a.PMID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListAbstracts returns every abstract in insertion order.
func (s *Store) ListAbstracts(ctx context.Context) ([]domain.Abstract, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pmid, text, topic, fetched_at FROM abstracts ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying abstracts: %w", err)
	}
	defer rows.Close()

	var abstracts []domain.Abstract //nolint:prealloc // size unknown from query
	for rows.Next() {
		var a domain.Abstract
		var fetchedAt sql.NullTime
		if err := rows.Scan(&a.PMID, &a.Text, &a.Topic, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scanning abstract: %w", err)
		}
		if fetchedAt.Valid {
			a.FetchedAt = fetchedAt.Time.UTC()
		}
		abstracts = append(abstracts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating abstracts: %w", err)
	}
	return abstracts, nil
}

// ReplaceChunks discards every chunk and stores the given set in one
// transaction, so readers see either the old index or the new one.
func (s *Store) ReplaceChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, pmid, content, position, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.PMID, c.Content, c.Position,
			float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaBuiltAt, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("recording build time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks returns the chunks with the given IDs. Unknown IDs are skipped.
func (s *Store) GetChunks(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	byID := make(map[string]domain.Chunk, len(ids))
	for start := 0; start < len(ids); start += sqliteMaxVars {
		batch := ids[start:min(start+sqliteMaxVars, len(ids))]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		query := `SELECT id, pmid, content, position, embedding FROM chunks WHERE id IN (?` +
			strings.Repeat(",?", len(batch)-1) + `)`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("querying chunks: %w", err)
		}
		for rows.Next() {
			c, err := scanChunk(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			byID[c.ID] = *c
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating chunks: %w", err)
		}
	}

	chunks := make([]domain.Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// EachEmbedding streams every stored embedding in insertion order.
func (s *Store) EachEmbedding(ctx context.Context, fn func(string, []float32) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embedding FROM chunks WHERE embedding IS NOT NULL ORDER BY rowid
	`)
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return fmt.Errorf("scanning embedding: %w", err)
		}
		emb := bytesToFloat32Slice(blob)
		if len(emb) == 0 {
			continue
		}
		if err := fn(id, emb); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating embeddings: %w", err)
	}
	return nil
}

// Stats summarises the store.
func (s *Store) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM abstracts),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(*) FROM chunks WHERE length(embedding) > 0)
	`)
	if err := row.Scan(&stats.Abstracts, &stats.Chunks, &stats.Embedded); err != nil {
		return stats, fmt.Errorf("counting index: %w", err)
	}

	var builtAt string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", metaBuiltAt).Scan(&builtAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return stats, fmt.Errorf("reading build time: %w", err)
	default:
		if t, perr := time.Parse(time.RFC3339Nano, builtAt); perr == nil {
			stats.BuiltAt = t
		}
	}
	return stats, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to little-endian bytes for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte

	if err := rows.Scan(&chunk.ID, &chunk.PMID, &chunk.Content,
		&chunk.Position, &embeddingBlob); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}
