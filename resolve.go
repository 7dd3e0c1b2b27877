package main

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLetterNotFound is returned by a lookup when no value is stored for a letter.
	ErrLetterNotFound = errors.New("letter not found")
	// ErrResolutionFailed wraps the first failed lookup of an evaluation.
	ErrResolutionFailed = errors.New("letter resolution failed")
)

// LetterLookup resolves a letter to its integer value.
type LetterLookup interface {
	Lookup(ctx context.Context, letter rune) (int64, error)
}

// LookupFunc adapts a function to LetterLookup.
type LookupFunc func(ctx context.Context, letter rune) (int64, error)

func (f LookupFunc) Lookup(ctx context.Context, letter rune) (int64, error) {
	return f(ctx, letter)
}

// ResolveLetters looks letters up one at a time, in order. The first failure
// stops resolution and no binding is returned.
func ResolveLetters(ctx context.Context, lookup LetterLookup, letters []rune) (LetterBinding, error) {
	binding := make(LetterBinding, len(letters))
	for _, l := range letters {
		if _, ok := binding[l]; ok {
			continue
		}
		v, err := lookup.Lookup(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("%w: %c: %w", ErrResolutionFailed, l, err)
		}
		binding[l] = v
	}
	return binding, nil
}
