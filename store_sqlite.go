package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps letter documents in a SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates or opens the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS letters (
		letter TEXT PRIMARY KEY NOT NULL,
		value INTEGER NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, letter string) (*LetterRecord, error) {
	rec := &LetterRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT letter, value FROM letters WHERE letter = ?`, letter).Scan(&rec.Letter, &rec.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLetterNotFound, letter)
	}
	if err != nil {
		return nil, fmt.Errorf("query letter %s: %w", letter, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec *LetterRecord) error {
	if err := checkLetter(rec.Letter); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO letters (letter, value) VALUES (?, ?)
		ON CONFLICT(letter) DO UPDATE SET value = excluded.value`,
		rec.Letter, rec.Value)
	if err != nil {
		return fmt.Errorf("upsert letter %s: %w", rec.Letter, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*LetterRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT letter, value FROM letters ORDER BY letter`)
	if err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	defer rows.Close()

	var list []*LetterRecord
	for rows.Next() {
		rec := &LetterRecord{}
		if err := rows.Scan(&rec.Letter, &rec.Value); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
