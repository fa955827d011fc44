package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/groundwork/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/vector"
)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "library.db"

// Store is a SQLite-backed library of items and chunks.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at dbPath and applies pending
// migrations. If dbPath is empty, defaults to ~/.groundwork/library.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".groundwork", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// ItemStore returns an ItemStore interface backed by this store.
func (s *Store) ItemStore() driven.ItemStore {
	return &itemStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate applies every NNN_name.up.sql file newer than the recorded version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
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
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Item Store ====================

// itemStore implements driven.ItemStore.
type itemStore struct {
	store *Store
}

var _ driven.ItemStore = (*itemStore)(nil)

// SaveItem inserts an item and returns its assigned ID.
func (s *itemStore) SaveItem(ctx context.Context, item *domain.Item) (int64, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO items (title, author, year, display_offset, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, item.Title, item.Author, item.Year, item.DisplayOffset, item.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("saving item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading item id: %w", err)
	}
	item.ID = id
	return id, nil
}

// GetItem retrieves an item by ID.
func (s *itemStore) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, author, year, display_offset, created_at
		FROM items WHERE id = ?
	`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns all items ordered by ID.
func (s *itemStore) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, author, year, display_offset, created_at
		FROM items ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item //nolint:prealloc // size unknown from query
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = `id, item_id, section, page_start, page_end, text, embedding, embedding_model, token_count`

// SaveChunks stores a batch of chunks in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var blob []byte
		if len(c.Embedding) > 0 {
			blob = vector.Encode(c.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.ItemID, nullStringPtr(c.Section),
			c.PageStart, c.PageEnd, c.Text, blob, c.EmbeddingModel, c.TokenCount); err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY") {
				return fmt.Errorf("saving chunk %s: item %d: %w", c.ID, c.ItemID, domain.ErrNotFound)
			}
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListChunks returns chunks for the given items, or all chunks.
func (s *chunkStore) ListChunks(ctx context.Context, itemIDs []int64) ([]domain.Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks`
	var args []any
	if len(itemIDs) > 0 {
		query += ` WHERE item_id IN (` + placeholders(len(itemIDs)) + `)`
		for _, id := range itemIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY item_id, page_start, rowid`

	return s.queryChunks(ctx, query, args...)
}

// SampleChunks returns up to n random chunks of one item.
func (s *chunkStore) SampleChunks(ctx context.Context, itemID int64, n int) ([]domain.Chunk, error) {
	if _, err := (&itemStore{store: s.store}).GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.queryChunks(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE item_id = ? ORDER BY RANDOM() LIMIT ?`,
		itemID, n)
}

// Stats summarises the stored chunks of one item.
func (s *chunkStore) Stats(ctx context.Context, itemID int64) (*domain.ItemStats, error) {
	item, err := (&itemStore{store: s.store}).GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var model sql.NullString
	stats := &domain.ItemStats{Item: *item}
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(page_end), 0),
			(SELECT embedding_model FROM chunks WHERE item_id = ? AND embedding_model != '' ORDER BY rowid LIMIT 1)
		FROM chunks WHERE item_id = ?
	`, itemID, itemID)
	if err := row.Scan(&stats.Chunks, &stats.Pages, &model); err != nil {
		return nil, fmt.Errorf("scanning stats: %w", err)
	}
	stats.EmbeddingModel = model.String
	return stats, nil
}

func (s *chunkStore) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ==================== Helpers ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.Item, error) {
	var item domain.Item
	var createdAt sql.NullTime
	if err := row.Scan(&item.ID, &item.Title, &item.Author, &item.Year, &item.DisplayOffset, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning item: %w", err)
	}
	if createdAt.Valid {
		item.CreatedAt = createdAt.Time
	}
	return &item, nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var c domain.Chunk
	var section sql.NullString
	var blob []byte
	if err := row.Scan(&c.ID, &c.ItemID, &section, &c.PageStart, &c.PageEnd,
		&c.Text, &blob, &c.EmbeddingModel, &c.TokenCount); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	if section.Valid {
		c.Section = &section.String
	}
	if len(blob) > 0 {
		embedding, err := vector.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		c.Embedding = embedding
	}
	return &c, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
