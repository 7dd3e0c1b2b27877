package main

import "errors"

// ErrInvalidEquation is the single signal for a tile sequence that does not
// have the shape
//
//	letter (arith letter)* comparison integer
var ErrInvalidEquation = errors.New("invalid equation")

// Validate checks the shape of tiles. It never inspects letter values.
func Validate(tiles []Tile) error {
	n := len(tiles)
	if n < 3 || n%2 == 0 {
		return ErrInvalidEquation
	}
	for i := 0; i < n-2; i++ {
		want := LetterTile
		if i%2 == 1 {
			want = ArithmeticTile
		}
		if tiles[i].Kind != want {
			return ErrInvalidEquation
		}
	}
	if tiles[n-2].Kind != ComparisonTile || tiles[n-1].Kind != IntegerTile {
		return ErrInvalidEquation
	}
	return nil
}

// DistinctLetters returns the letters of the left-hand side in order of first
// occurrence. tiles must already be valid.
func DistinctLetters(tiles []Tile) []rune {
	var letters []rune
	seen := make(map[rune]bool)
	for i := 0; i < len(tiles)-2; i += 2 {
		r := tiles[i].Letter
		if !seen[r] {
			seen[r] = true
			letters = append(letters, r)
		}
	}
	return letters
}
