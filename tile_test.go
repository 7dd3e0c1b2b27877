package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTile(t *testing.T) {
	tests := []struct {
		symbol string
		want   Tile
	}{
		{"A", Letter('A')},
		{"e", Letter('E')},
		{"+", Arith(OpAdd)},
		{"-", Arith(OpSub)},
		{"*", Arith(OpMul)},
		{"/", Arith(OpDiv)},
		{">", Compare(OpGreater)},
		{" < ", Compare(OpLess)},
		{"10", Integer(10)},
		{"-7", Integer(-7)},
		{"0", Integer(0)},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, err := ParseTile(tt.symbol, DefaultAlphabet)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTileRejectsUnknownSymbols(t *testing.T) {
	for _, s := range []string{"", "F", "AB", "=", ">=", "1.5", "x"} {
		_, err := ParseTile(s, DefaultAlphabet)
		assert.ErrorIs(t, err, ErrUnknownSymbol, "symbol %q", s)
	}
}

func TestTileJSON(t *testing.T) {
	tiles := []Tile{Letter('A'), Arith(OpMul), Compare(OpLess), Integer(-3)}
	data, err := json.Marshal(tiles)
	require.NoError(t, err)
	assert.JSONEq(t, `["A","*","<",-3]`, string(data))
}

func TestParseAlphabet(t *testing.T) {
	a, err := ParseAlphabet("x, y, z, x")
	require.NoError(t, err)
	assert.Equal(t, "XYZ", a.String())
	assert.True(t, a.Contains('Y'))
	assert.False(t, a.Contains('A'))

	_, err = ParseAlphabet("AB+")
	assert.Error(t, err)
	_, err = ParseAlphabet("  ")
	assert.Error(t, err)
}

func TestCustomAlphabetTiles(t *testing.T) {
	a, err := ParseAlphabet("XYZ")
	require.NoError(t, err)

	tile, err := ParseTile("z", a)
	require.NoError(t, err)
	assert.Equal(t, Letter('Z'), tile)

	_, err = ParseTile("A", a)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}
