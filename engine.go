package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrBusy is returned when an evaluation is already in flight. The call has
// no effect.
var ErrBusy = errors.New("evaluation in progress")

// State is the evaluation lifecycle of an Engine.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateResolving
	StateReducing
	StateComputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateResolving:
		return "resolving"
	case StateReducing:
		return "reducing"
	case StateComputing:
		return "computing_result"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Outcome is the result of a successful evaluation.
type Outcome struct {
	Equation string           `json:"equation"`
	LHS      float64          `json:"lhs"`
	Result   bool             `json:"result"`
	Bindings map[string]int64 `json:"bindings"`
}

// Engine owns one equation and evaluates it against a LetterLookup. At most
// one evaluation runs at a time; edits are refused while it runs.
type Engine struct {
	mu     sync.Mutex
	eq     *Equation
	state  State
	lookup LetterLookup
	log    *zap.Logger
}

// NewEngine creates an idle engine with an empty equation.
func NewEngine(lookup LetterLookup, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		eq:     NewEquation(),
		lookup: lookup,
		log:    log,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Tiles returns a copy of the equation.
func (e *Engine) Tiles() []Tile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eq.Tiles()
}

// Append adds a tile to the equation.
func (e *Engine) Append(t Tile) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return ErrBusy
	}
	e.eq.Append(t)
	return nil
}

// Remove deletes the tile at index.
func (e *Engine) Remove(index int) (Tile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return Tile{}, ErrBusy
	}
	return e.eq.Remove(index)
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.log.Debug("engine state", zap.Stringer("state", s))
}

// Evaluate validates the equation, resolves its letters and reduces it. It
// returns ErrInvalidEquation, ErrResolutionFailed or ErrReduction on failure,
// and ErrBusy without side effects if another evaluation is running. The
// equation is left as it was in every case.
func (e *Engine) Evaluate(ctx context.Context) (*Outcome, error) {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.state = StateValidating
	tiles := e.eq.Tiles()
	e.mu.Unlock()
	defer e.setState(StateIdle)

	if err := Validate(tiles); err != nil {
		return nil, err
	}

	e.setState(StateResolving)
	letters := DistinctLetters(tiles)
	binding, err := ResolveLetters(ctx, e.lookup, letters)
	if err != nil {
		e.log.Info("letter resolution failed", zap.Error(err))
		return nil, err
	}

	e.setState(StateReducing)
	red, err := Reduce(tiles, binding)
	if err != nil {
		return nil, err
	}

	e.setState(StateComputing)
	out := &Outcome{
		Equation: NewEquation(tiles...).String(),
		LHS:      red.LHS,
		Result:   red.Result,
		Bindings: make(map[string]int64, len(binding)),
	}
	for l, v := range binding {
		out.Bindings[string(l)] = v
	}
	e.log.Debug("equation evaluated",
		zap.String("equation", out.Equation),
		zap.Bool("result", out.Result))
	return out, nil
}
