package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore fails every read, standing in for a broken database.
type failingStore struct{ *MemoryStore }

func (failingStore) Get(context.Context, string) (*LetterRecord, error) {
	return nil, errors.New("database unavailable")
}

func newLookupServer(t *testing.T, store LetterStore) *httptest.Server {
	t.Helper()
	srv := NewServer(store, NewSessionRegistry(StoreLookup{Store: store}, nil), nil, DefaultAlphabet, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPLookup(t *testing.T) {
	store := NewMemoryStore()
	store.Put(context.Background(), &LetterRecord{Letter: "A", Value: 3})
	ts := newLookupServer(t, store)

	lookup := NewHTTPLookup(ts.URL+"/", time.Second)

	v, err := lookup.Lookup(context.Background(), 'A')
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = lookup.Lookup(context.Background(), 'B')
	assert.ErrorIs(t, err, ErrLetterNotFound)
}

func TestHTTPLookupServerError(t *testing.T) {
	ts := newLookupServer(t, failingStore{NewMemoryStore()})

	_, err := NewHTTPLookup(ts.URL, time.Second).Lookup(context.Background(), 'A')
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLetterNotFound)
	assert.Contains(t, err.Error(), "Server error")
}

func TestHTTPLookupUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := NewHTTPLookup(url, 100*time.Millisecond).Lookup(context.Background(), 'A')
	assert.Error(t, err)
}

func TestEngineOverHTTPLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, &LetterRecord{Letter: "A", Value: 3})
	store.Put(ctx, &LetterRecord{Letter: "B", Value: 4})
	ts := newLookupServer(t, store)

	e := NewEngine(NewHTTPLookup(ts.URL, time.Second), nil)
	for _, tile := range []Tile{tA, tAdd, tB, tGt, Integer(10)} {
		require.NoError(t, e.Append(tile))
	}
	out, err := e.Evaluate(ctx)
	require.NoError(t, err)
	assert.False(t, out.Result)
	assert.Equal(t, 7.0, out.LHS)
}
