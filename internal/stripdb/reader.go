package stripdb

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
)

// Reader reads strips from an archive. It is safe for concurrent use.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens an archive read-only.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='strips'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain strips table")
	}

	return &Reader{db: db, path: path}, nil
}

// Path returns the archive's file path.
func (r *Reader) Path() string {
	return r.path
}

// ReadStrip returns the PNG stored for key at scale, or ErrNotFound.
func (r *Reader) ReadStrip(key stripkey.Key, scale int) ([]byte, error) {
	var compressed []byte
	err := r.db.QueryRow(
		"SELECT strip_data FROM strips WHERE width=? AND height=? AND base=? AND scale=?",
		key.Width, key.Height, key.Base, scale,
	).Scan(&compressed)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s scale %d", ErrNotFound, key, scale)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query strip: %w", err)
	}

	data, err := gzipDecompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress strip %s: %w", key, err)
	}
	return data, nil
}

// Keys lists every stored strip ordered by base, size and scale.
func (r *Reader) Keys() ([]Entry, error) {
	rows, err := r.db.Query("SELECT width, height, base, scale FROM strips ORDER BY base, width, height, scale")
	if err != nil {
		return nil, fmt.Errorf("failed to query strips: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key.Width, &e.Key.Height, &e.Key.Base, &e.Scale); err != nil {
			return nil, fmt.Errorf("failed to scan strip row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strips: %w", err)
	}
	return entries, nil
}

// Metadata reads the archive metadata.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		values[name] = value.String
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	return metadataFromMap(values), nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
