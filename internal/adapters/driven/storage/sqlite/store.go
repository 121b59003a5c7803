// Package sqlite provides the durable DocumentStore backend. Documents
// survive restarts; a document, its chunks and its vocabulary are
// written in one transaction, so a document never exists without its
// full chunk set.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lessonforge/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/lessonforge/docqa/internal/core/domain"
	"github.com/lessonforge/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is the SQLite-backed document store.
type Store struct {
	db           *sql.DB
	path         string
	maxDocuments int

	// mu serialises writes and read-touch against eviction. SQLite
	// already serialises statements; the lock additionally guarantees
	// that eviction never interleaves with an in-flight read of the
	// evicted document.
	mu sync.Mutex
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docqa/data/documents.db.
func NewStore(dataDir string, maxDocuments int) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docqa", "data")
	}
	if maxDocuments <= 0 {
		maxDocuments = domain.DefaultConfig().MaxDocuments
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "documents.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys so deletes cascade to chunks and vocabulary
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:           db,
		path:         dbPath,
		maxDocuments: maxDocuments,
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
func (s *Store) migrate(fsys embed.FS) error {
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
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
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
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument persists the document triple in one transaction. An
// existing document's chunks and vocabulary are replaced wholesale.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vocab domain.Vocabulary) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, total_chunks, total_words, page_count, avg_chunk_length, created_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			total_chunks = excluded.total_chunks,
			total_words = excluded.total_words,
			page_count = excluded.page_count,
			avg_chunk_length = excluded.avg_chunk_length,
			last_accessed_at = excluded.last_accessed_at
	`, doc.ID, doc.Name, doc.TotalChunks, doc.TotalWords, doc.PageCount,
		doc.AvgChunkLength, createdAt, now)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	// Re-index replaces the chunk set and vocabulary wholesale.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM vocabulary WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing vocabulary: %w", err)
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, page_number, chunk_index, start_offset, end_offset, word_count, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer chunkStmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := chunkStmt.ExecContext(ctx, chunk.ID, doc.ID, chunk.Text,
			chunk.PageNumber, chunk.Index, chunk.StartOffset, chunk.EndOffset,
			chunk.WordCount, string(metadataJSON), createdAt); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.Index, err)
		}
	}

	vocabStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vocabulary (document_id, term, doc_frequency)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing vocabulary statement: %w", err)
	}
	defer vocabStmt.Close()

	for term, df := range vocab {
		if _, err := vocabStmt.ExecContext(ctx, doc.ID, term, df); err != nil {
			return fmt.Errorf("saving vocabulary term: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves document metadata by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, total_chunks, total_words, page_count, avg_chunk_length, created_at, last_accessed_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Name, &doc.TotalChunks, &doc.TotalWords,
		&doc.PageCount, &doc.AvgChunkLength, &doc.CreatedAt, &doc.LastAccessedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// GetChunks returns the document's chunks in chunk-index order and
// touches the last-accessed timestamp.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET last_accessed_at = ? WHERE id = ?",
		time.Now().UTC(), documentID)
	if err != nil {
		return nil, fmt.Errorf("touching document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, page_number, chunk_index, start_offset, end_offset, word_count, metadata, created_at
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var metadataJSON string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
			&chunk.PageNumber, &chunk.Index, &chunk.StartOffset, &chunk.EndOffset,
			&chunk.WordCount, &metadataJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetVocabulary returns the document's term frequencies.
func (s *Store) GetVocabulary(ctx context.Context, documentID string) (domain.Vocabulary, error) {
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT term, doc_frequency FROM vocabulary WHERE document_id = ?", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying vocabulary: %w", err)
	}
	defer rows.Close()

	vocab := make(domain.Vocabulary)
	for rows.Next() {
		var term string
		var df int
		if err := rows.Scan(&term, &df); err != nil {
			return nil, fmt.Errorf("scanning vocabulary row: %w", err)
		}
		vocab[term] = df
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vocabulary: %w", err)
	}
	return vocab, nil
}

// ListDocuments returns summaries ordered by last access, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, page_count, total_words, created_at
		FROM documents ORDER BY last_accessed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sm domain.DocumentSummary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.PageCount, &sm.Size, &sm.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scanning document summary: %w", err)
		}
		summaries = append(summaries, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return summaries, nil
}

// DeleteDocument removes the document; chunks and vocabulary cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnforceDocumentLimit evicts least-recently-accessed documents beyond
// the maximum and returns the evicted IDs.
func (s *Store) EnforceDocumentLimit(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	excess := count - s.maxDocuments
	if excess <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM documents ORDER BY last_accessed_at ASC LIMIT ?", excess)
	if err != nil {
		return nil, fmt.Errorf("selecting eviction candidates: %w", err)
	}
	defer rows.Close()

	var evicted []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning eviction candidate: %w", err)
		}
		evicted = append(evicted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating eviction candidates: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning eviction transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range evicted {
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
			return nil, fmt.Errorf("evicting document %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing eviction: %w", err)
	}
	return evicted, nil
}

// Stats summarises resident documents, chunks and vocabulary terms.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&stats.TotalDocuments); err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&stats.TotalChunks); err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT term) FROM vocabulary").Scan(&stats.TotalVocabularyTerms); err != nil {
		return nil, fmt.Errorf("counting vocabulary terms: %w", err)
	}
	return &stats, nil
}
