package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vectors (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	text       TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_vectors_seq ON vectors (collection, seq);
`

// SQLite persists vectors in a single database file under a local
// directory. Queries scan the collection and rank in process, which is
// fine for help-desk sized corpora.
type SQLite struct {
	db         *sql.DB
	path       string
	collection string
}

// NewSQLite opens (creating if needed) the store at dir/vectors.db.
func NewSQLite(dir, collection string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating vector store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "vectors.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db, path: dbPath, collection: collection}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) Upsert(ctx context.Context, id string, vector []float32, text string) error {
	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if dim != 0 && dim != len(vector) {
		return ErrDimensionMismatch
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vectors (collection, id, seq, text, embedding)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM vectors WHERE collection = ?), ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET text = excluded.text, embedding = excluded.embedding
	`, s.collection, id, s.collection, text, float32SliceToBytes(vector))
	if err != nil {
		return fmt.Errorf("upserting vector %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, embedding FROM vectors WHERE collection = ? ORDER BY seq`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var cands []candidate
	for rows.Next() {
		var c candidate
		var blob []byte
		if err := rows.Scan(&c.id, &c.text, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		c.vector = bytesToFloat32Slice(blob)
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return rankByDistance(vector, cands, k), nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vectors WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) dimension(ctx context.Context) (int, error) {
	var size sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT length(embedding) FROM vectors WHERE collection = ? LIMIT 1`, s.collection).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading vector dimension: %w", err)
	}
	return int(size.Int64) / 4, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
