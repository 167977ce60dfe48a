package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/bookwise/internal/core/ports/driven"
)

// Store opens every SQLite-backed store under one storage root:
//
//	{root}/metadata/library.db
//	{root}/topics/topics.db
//	{root}/vectors/vectors.db
type Store struct {
	root     string
	metadata *MetadataStore
	topics   *TopicRegistry
	vectors  *VectorIndex
}

// NewStore opens (creating if needed) all stores under root.
func NewStore(root string) (*Store, error) {
	metadata, err := NewMetadataStore(filepath.Join(root, "metadata"))
	if err != nil {
		return nil, err
	}

	topics, err := NewTopicRegistry(filepath.Join(root, "topics"))
	if err != nil {
		metadata.Close()
		return nil, err
	}

	vectors, err := NewVectorIndex(filepath.Join(root, "vectors"))
	if err != nil {
		metadata.Close()
		topics.Close()
		return nil, err
	}

	return &Store{root: root, metadata: metadata, topics: topics, vectors: vectors}, nil
}

// Close closes every database.
func (s *Store) Close() error {
	var errs []string
	for _, c := range []interface{ Close() error }{s.metadata, s.topics, s.vectors} {
		if err := c.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing stores: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Root returns the storage root.
func (s *Store) Root() string {
	return s.root
}

// MetadataStore returns the book and chapter store.
func (s *Store) MetadataStore() driven.MetadataStore {
	return s.metadata
}

// TopicRegistry returns the topic registry.
func (s *Store) TopicRegistry() driven.TopicRegistry {
	return s.topics
}

// VectorIndex returns the vector index.
func (s *Store) VectorIndex() driven.VectorIndex {
	return s.vectors
}

// openDatabase opens dir/file, enables WAL and foreign keys, and runs migrations.
func openDatabase(dir, file string, fsys fs.FS) (*sql.DB, string, error) {
	// Ensure directory exists
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, "", fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dir, file)

	// Open database with WAL mode; foreign keys are set per connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(db, fsys); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("running migrations: %w", err)
	}

	return db, dbPath, nil
}

// migrate runs all pending migrations and records each applied version.
func migrate(db *sql.DB, fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := db.Exec(`
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
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

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
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
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

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a little-endian byte slice for storage.
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

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
