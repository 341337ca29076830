package credstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLite is a Store backed by a local sqlite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if necessary) the credential database at path.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create credential schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Session() (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, sessionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session credential: %w", err)
	}
	return normalize(value), nil
}

func (s *SQLite) SetSession(id string) error {
	_, err := s.db.Exec(
		`INSERT INTO credentials (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		sessionKey, id,
	)
	if err != nil {
		return fmt.Errorf("write session credential: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
