package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrUnknownSymbol is returned when a symbol is not a letter of the alphabet,
// an operator or an integer literal.
var ErrUnknownSymbol = errors.New("unknown symbol")

// TileKind tags the variant held by a Tile.
type TileKind int

const (
	LetterTile TileKind = iota
	ArithmeticTile
	ComparisonTile
	IntegerTile
)

func (k TileKind) String() string {
	switch k {
	case LetterTile:
		return "letter"
	case ArithmeticTile:
		return "arithmetic"
	case ComparisonTile:
		return "comparison"
	case IntegerTile:
		return "integer"
	}
	return fmt.Sprintf("TileKind(%d)", int(k))
}

// ArithOp is a binary arithmetic operator.
type ArithOp byte

const (
	OpAdd ArithOp = '+'
	OpSub ArithOp = '-'
	OpMul ArithOp = '*'
	OpDiv ArithOp = '/'
)

// precedence returns the binding strength of the operator: * and / bind
// tighter than + and -.
func (op ArithOp) precedence() int {
	if op == OpMul || op == OpDiv {
		return 2
	}
	return 1
}

// CompareOp is a binary comparison operator.
type CompareOp byte

const (
	OpGreater CompareOp = '>'
	OpLess    CompareOp = '<'
)

// Tile is one symbol of an equation. Exactly one of Letter, Arith, Compare or
// Int is meaningful, selected by Kind.
type Tile struct {
	Kind    TileKind
	Letter  rune
	Arith   ArithOp
	Compare CompareOp
	Int     int64
}

func Letter(r rune) Tile        { return Tile{Kind: LetterTile, Letter: r} }
func Arith(op ArithOp) Tile     { return Tile{Kind: ArithmeticTile, Arith: op} }
func Compare(op CompareOp) Tile { return Tile{Kind: ComparisonTile, Compare: op} }
func Integer(n int64) Tile      { return Tile{Kind: IntegerTile, Int: n} }

// Symbol returns the tile as the user sees it.
func (t Tile) Symbol() string {
	switch t.Kind {
	case LetterTile:
		return string(t.Letter)
	case ArithmeticTile:
		return string(rune(t.Arith))
	case ComparisonTile:
		return string(rune(t.Compare))
	default:
		return strconv.FormatInt(t.Int, 10)
	}
}

func (t Tile) String() string { return t.Symbol() }

// MarshalJSON encodes integers as JSON numbers and every other tile as its
// symbol string.
func (t Tile) MarshalJSON() ([]byte, error) {
	if t.Kind == IntegerTile {
		return json.Marshal(t.Int)
	}
	return json.Marshal(t.Symbol())
}

// Alphabet is the fixed set of letters a puzzle accepts.
type Alphabet []rune

// DefaultAlphabet is the five-letter set of the reference puzzle.
var DefaultAlphabet = Alphabet("ABCDE")

// ParseAlphabet builds an alphabet from a string such as "ABCDE", dropping
// duplicates and whitespace.
func ParseAlphabet(s string) (Alphabet, error) {
	var a Alphabet
	seen := make(map[rune]bool)
	for _, r := range strings.ToUpper(s) {
		if r == ' ' || r == ',' {
			continue
		}
		if strings.ContainsRune("+-*/<>0123456789", r) {
			return nil, fmt.Errorf("alphabet letter %q collides with an operator or digit", r)
		}
		if !seen[r] {
			seen[r] = true
			a = append(a, r)
		}
	}
	if len(a) == 0 {
		return nil, errors.New("empty alphabet")
	}
	return a, nil
}

// Contains reports whether r belongs to the alphabet.
func (a Alphabet) Contains(r rune) bool {
	for _, l := range a {
		if l == r {
			return true
		}
	}
	return false
}

func (a Alphabet) String() string { return string(a) }

// ParseTile converts a user supplied symbol into a tile.
func ParseTile(symbol string, alphabet Alphabet) (Tile, error) {
	s := strings.TrimSpace(symbol)
	switch s {
	case "+", "-", "*", "/":
		return Arith(ArithOp(s[0])), nil
	case ">", "<":
		return Compare(CompareOp(s[0])), nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(strings.ToUpper(s))
		if alphabet.Contains(r) {
			return Letter(r), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Integer(n), nil
	}
	return Tile{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
}

// ParseTiles parses each symbol in order.
func ParseTiles(symbols []string, alphabet Alphabet) ([]Tile, error) {
	tiles := make([]Tile, 0, len(symbols))
	for _, s := range symbols {
		t, err := ParseTile(s, alphabet)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}
