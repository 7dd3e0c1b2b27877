package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"
)

// ErrInvalidLetter is returned when a letter key is not exactly one symbol.
var ErrInvalidLetter = errors.New("letter must be a single symbol")

// LetterRecord is the stored document for one letter.
type LetterRecord struct {
	Letter string `json:"letter"`
	Value  int64  `json:"value"`
}

// LetterStore persists letter documents keyed by letter.
type LetterStore interface {
	// Get returns ErrLetterNotFound when no document exists for letter.
	Get(ctx context.Context, letter string) (*LetterRecord, error)
	// Put inserts or replaces the document for rec.Letter.
	Put(ctx context.Context, rec *LetterRecord) error
	// List returns every document ordered by letter.
	List(ctx context.Context) ([]*LetterRecord, error)
	Close() error
}

func checkLetter(letter string) error {
	if utf8.RuneCountInString(letter) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidLetter, letter)
	}
	return nil
}

func sortRecords(list []*LetterRecord) {
	sort.Slice(list, func(i, j int) bool { return list[i].Letter < list[j].Letter })
}

// OpenStore opens the letter store selected by cfg.
func OpenStore(cfg StoreConfig) (LetterStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "bolt":
		return NewBoltStore(cfg.Path)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// MemoryStore holds letter documents in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	letters map[string]int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{letters: make(map[string]int64)}
}

func (s *MemoryStore) Get(_ context.Context, letter string) (*LetterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.letters[letter]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLetterNotFound, letter)
	}
	return &LetterRecord{Letter: letter, Value: v}, nil
}

func (s *MemoryStore) Put(_ context.Context, rec *LetterRecord) error {
	if err := checkLetter(rec.Letter); err != nil {
		return err
	}
	s.mu.Lock()
	s.letters[rec.Letter] = rec.Value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*LetterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*LetterRecord, 0, len(s.letters))
	for l, v := range s.letters {
		list = append(list, &LetterRecord{Letter: l, Value: v})
	}
	sortRecords(list)
	return list, nil
}

func (s *MemoryStore) Close() error { return nil }

// StoreLookup resolves letters straight from a LetterStore.
type StoreLookup struct {
	Store LetterStore
}

func (l StoreLookup) Lookup(ctx context.Context, letter rune) (int64, error) {
	rec, err := l.Store.Get(ctx, string(letter))
	if err != nil {
		return 0, err
	}
	return rec.Value, nil
}
