package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// recordingLookup serves values from a map and records every call.
type recordingLookup struct {
	mu     sync.Mutex
	values map[rune]int64
	fail   map[rune]error
	calls  []rune
}

func (l *recordingLookup) Lookup(_ context.Context, letter rune) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, letter)
	if err, ok := l.fail[letter]; ok {
		return 0, err
	}
	v, ok := l.values[letter]
	if !ok {
		return 0, ErrLetterNotFound
	}
	return v, nil
}

func (l *recordingLookup) Calls() []rune {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]rune(nil), l.calls...)
}

func newTestEngine(t *testing.T, lookup LetterLookup, tiles ...Tile) *Engine {
	t.Helper()
	e := NewEngine(lookup, nil)
	for _, tile := range tiles {
		require.NoError(t, e.Append(tile))
	}
	return e
}

func TestEvaluateScenarios(t *testing.T) {
	lookup := &recordingLookup{values: map[rune]int64{'A': 3, 'B': 4}}
	e := newTestEngine(t, lookup, tA, tAdd, tB, tGt, Integer(10))

	out, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Result)
	assert.Equal(t, 7.0, out.LHS)
	assert.Equal(t, "A + B > 10", out.Equation)
	assert.Equal(t, map[string]int64{"A": 3, "B": 4}, out.Bindings)

	lookup = &recordingLookup{values: map[rune]int64{'A': 2}}
	e = newTestEngine(t, lookup, tA, tLt, Integer(5))
	out, err = e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Result)
}

func TestEvaluateLooksUpEachLetterOnce(t *testing.T) {
	lookup := &recordingLookup{values: map[rune]int64{'A': 1, 'B': 2, 'C': 3}}
	e := newTestEngine(t, lookup, tB, tAdd, tA, tMul, tB, tAdd, tC, tAdd, tA, tGt, Integer(0))

	_, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []rune{'B', 'A', 'C'}, lookup.Calls())
}

func TestEvaluateInvalidEquationDoesNoLookups(t *testing.T) {
	lookup := &recordingLookup{values: map[rune]int64{'A': 1}}
	e := newTestEngine(t, lookup, tA, tAdd, tGt, Integer(1))

	_, err := e.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrInvalidEquation)
	assert.Empty(t, lookup.Calls())
	assert.Equal(t, StateIdle, e.State())
}

func TestEvaluateStopsAtFirstFailedLookup(t *testing.T) {
	lookup := &recordingLookup{values: map[rune]int64{'A': 1, 'C': 3}}
	e := newTestEngine(t, lookup, tA, tAdd, tB, tAdd, tC, tGt, Integer(0))

	_, err := e.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, ErrLetterNotFound)
	assert.Equal(t, []rune{'A', 'B'}, lookup.Calls())
	assert.Equal(t, StateIdle, e.State())
}

func TestEvaluateServerErrorIsResolutionFailure(t *testing.T) {
	boom := errors.New("server error")
	lookup := &recordingLookup{fail: map[rune]error{'A': boom}}
	e := newTestEngine(t, lookup, tA, tLt, Integer(5))

	_, err := e.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, boom)
}

func TestEvaluateDivisionByZero(t *testing.T) {
	lookup := &recordingLookup{values: map[rune]int64{'A': 5, 'B': 0}}
	e := newTestEngine(t, lookup, tA, Arith(OpDiv), tB, tGt, Integer(0))

	out, err := e.Evaluate(context.Background())
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, StateIdle, e.State())
}

func TestEvaluateLeavesEquationUnchanged(t *testing.T) {
	lookup := &recordingLookup{values: map[rune]int64{'A': 3, 'B': 4}}
	e := newTestEngine(t, lookup, tA, tAdd, tB, tGt, Integer(10))
	before := e.Tiles()

	_, err := e.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, e.Tiles())

	// Failed evaluations keep the equation too.
	require.NoError(t, e.Append(tAdd))
	before = e.Tiles()
	_, err = e.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrInvalidEquation)
	assert.Equal(t, before, e.Tiles())
}

func TestEvaluateWhileBusyIsNoOp(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	lookup := LookupFunc(func(ctx context.Context, letter rune) (int64, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		entered <- struct{}{}
		<-release
		return 1, nil
	})
	e := newTestEngine(t, lookup, tA, tLt, Integer(5))

	done := make(chan error, 1)
	go func() {
		_, err := e.Evaluate(context.Background())
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("lookup was not called")
	}
	assert.Equal(t, StateResolving, e.State())

	_, err := e.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, e.Append(tAdd), ErrBusy)
	_, err = e.Remove(0)
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("evaluation did not finish")
	}

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
	assert.Equal(t, StateIdle, e.State())
	assert.Len(t, e.Tiles(), 3)
}

func TestEvaluateCancelledContext(t *testing.T) {
	lookup := LookupFunc(func(ctx context.Context, letter rune) (int64, error) {
		return 0, ctx.Err()
	})
	e := newTestEngine(t, lookup, tA, tLt, Integer(5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Evaluate(ctx)
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateIdle, e.State())
}

func TestResolveLettersNoPartialBinding(t *testing.T) {
	lookup := &recordingLookup{values: map[rune]int64{'A': 1}}
	binding, err := ResolveLetters(context.Background(), lookup, []rune{'A', 'B'})
	assert.Nil(t, binding)
	assert.ErrorIs(t, err, ErrResolutionFailed)
}
