package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry(StoreLookup{Store: NewMemoryStore()}, nil)

	s1 := r.Create()
	time.Sleep(time.Millisecond)
	s2 := r.Create()

	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Same(t, s1, r.Get(s1.ID))
	assert.Nil(t, r.Get("unknown"))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, s2.ID, list[0].ID, "most recent first")

	assert.True(t, r.Delete(s1.ID))
	assert.False(t, r.Delete(s1.ID))
	assert.Nil(t, r.Get(s1.ID))
}

func TestSessionsHaveIndependentEquations(t *testing.T) {
	r := NewSessionRegistry(StoreLookup{Store: NewMemoryStore()}, nil)
	s1, s2 := r.Create(), r.Create()

	require.NoError(t, s1.Engine().Append(tA))
	assert.Len(t, s1.View().Tiles, 1)
	assert.Empty(t, s2.View().Tiles)
}

func TestSessionRecordAndView(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, &LetterRecord{Letter: "A", Value: 2})
	sess := NewSessionRegistry(StoreLookup{Store: store}, nil).Create()

	for _, tile := range []Tile{tA, tLt, Integer(5)} {
		require.NoError(t, sess.Engine().Append(tile))
	}
	out, err := sess.Engine().Evaluate(ctx)
	sess.Record(out, err)

	view := sess.View()
	assert.Equal(t, "A < 5", view.Equation)
	assert.Equal(t, StateIdle, view.State)
	require.NotNil(t, view.LastOutcome)
	assert.True(t, view.LastOutcome.Result)
	assert.Empty(t, view.LastError)

	sess.Record(nil, ErrInvalidEquation)
	view = sess.View()
	assert.Nil(t, view.LastOutcome)
	assert.Equal(t, "invalid equation", view.LastError)
}

func TestSessionConcurrentEdits(t *testing.T) {
	sess := NewSessionRegistry(StoreLookup{Store: NewMemoryStore()}, nil).Create()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Engine().Append(tA)
			sess.View()
		}()
	}
	wg.Wait()
	assert.Len(t, sess.View().Tiles, 50)
}
