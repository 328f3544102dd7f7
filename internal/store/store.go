package store

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	conn     *sql.DB
	embedDim int
}

type Document struct {
	ID         int64
	Path       string
	Title      string
	ModifiedAt int64
	IndexedAt  int64
}

// Section is one embedded chunk of a document.
type Section struct {
	Content   string
	StartLine int
	EndLine   int
	Heading   string
	Embedding []float32
}

type Match struct {
	ChunkID   int64
	DocID     int64
	Path      string
	Heading   string
	Content   string
	StartLine int
	EndLine   int
	Distance  float64
}

func init() {
	sqlite_vec.Auto()
}

func Open(path string, embedDim int) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// vec0 virtual tables and writes from the watcher share one connection
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, embedDim: embedDim}
	if err := s.migrate(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	var vecVersion string
	if err := s.conn.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		return fmt.Errorf("sqlite-vec not available: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			title TEXT,
			modified_at INTEGER,
			indexed_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY,
			doc_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			start_line INTEGER,
			end_line INTEGER,
			heading TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
			chunk_id INTEGER PRIMARY KEY,
			embedding float[%d]
		);
	`, s.embedDim)

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ReplaceDocument stores doc and swaps its sections for the given ones in a
// single transaction.
func (s *Store) ReplaceDocument(doc Document, sections []Section) (err error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	var docID int64
	err = tx.QueryRow(`
		INSERT INTO documents (path, title, modified_at, indexed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at
		RETURNING id
	`, doc.Path, doc.Title, doc.ModifiedAt, doc.IndexedAt).Scan(&docID)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.Path, err)
	}

	if err = deleteChunks(tx, docID); err != nil {
		return err
	}

	for _, sec := range sections {
		res, err := tx.Exec(`
			INSERT INTO chunks (doc_id, content, start_line, end_line, heading)
			VALUES (?, ?, ?, ?, ?)
		`, docID, sec.Content, sec.StartLine, sec.EndLine, sec.Heading)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
		chunkID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		emb, err := sqlite_vec.SerializeFloat32(sec.Embedding)
		if err != nil {
			return fmt.Errorf("failed to serialize embedding: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)", chunkID, emb); err != nil {
			return fmt.Errorf("failed to insert embedding: %w", err)
		}
	}

	return tx.Commit()
}

// RemoveDocument deletes a document and everything derived from it. Removing
// an unknown path is not an error.
func (s *Store) RemoveDocument(path string) (err error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	var docID int64
	err = tx.QueryRow("SELECT id FROM documents WHERE path = ?", path).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return tx.Commit()
	}
	if err != nil {
		return err
	}

	if err = deleteChunks(tx, docID); err != nil {
		return err
	}
	if _, err = tx.Exec("DELETE FROM documents WHERE id = ?", docID); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteChunks(tx *sql.Tx, docID int64) error {
	if _, err := tx.Exec(
		"DELETE FROM vec_chunks WHERE chunk_id IN (SELECT id FROM chunks WHERE doc_id = ?)",
		docID,
	); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM chunks WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// Documents returns every indexed document keyed by vault-relative path.
func (s *Store) Documents() (map[string]Document, error) {
	rows, err := s.conn.Query("SELECT id, path, title, modified_at, indexed_at FROM documents")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	docs := make(map[string]Document)
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Path, &doc.Title, &doc.ModifiedAt, &doc.IndexedAt); err != nil {
			return nil, err
		}
		docs[doc.Path] = doc
	}
	return docs, rows.Err()
}

// Nearest returns the k chunks closest to query, nearest first.
func (s *Store) Nearest(query []float32, k int) ([]Match, error) {
	emb, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query embedding: %w", err)
	}

	rows, err := s.conn.Query(`
		SELECT v.chunk_id, v.distance, c.doc_id, c.content, c.start_line, c.end_line, c.heading, d.path
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		JOIN documents d ON d.id = c.doc_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, emb, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ChunkID, &m.Distance, &m.DocID, &m.Content, &m.StartLine, &m.EndLine, &m.Heading, &m.Path); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

type Stats struct {
	Documents int
	Chunks    int
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.conn.QueryRow(
		"SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)",
	).Scan(&st.Documents, &st.Chunks)
	return st, err
}
