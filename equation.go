package main

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIndexOutOfRange is returned when removing a tile at a position the
// equation does not have.
var ErrIndexOutOfRange = errors.New("tile index out of range")

// Equation is the ordered tile sequence a player is building. It is not
// validated while it is being edited.
type Equation struct {
	tiles []Tile
}

// NewEquation returns an equation holding a copy of tiles.
func NewEquation(tiles ...Tile) *Equation {
	e := &Equation{}
	e.tiles = append(e.tiles, tiles...)
	return e
}

// Append adds a tile at the end.
func (e *Equation) Append(t Tile) {
	e.tiles = append(e.tiles, t)
}

// Remove deletes the tile at index, keeping the order of the others.
func (e *Equation) Remove(index int) (Tile, error) {
	if index < 0 || index >= len(e.tiles) {
		return Tile{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(e.tiles))
	}
	t := e.tiles[index]
	e.tiles = append(e.tiles[:index], e.tiles[index+1:]...)
	return t, nil
}

// Tiles returns a copy of the sequence.
func (e *Equation) Tiles() []Tile {
	cp := make([]Tile, len(e.tiles))
	copy(cp, e.tiles)
	return cp
}

// Len returns the number of tiles.
func (e *Equation) Len() int { return len(e.tiles) }

func (e *Equation) String() string {
	parts := make([]string, len(e.tiles))
	for i, t := range e.tiles {
		parts[i] = t.Symbol()
	}
	return strings.Join(parts, " ")
}
