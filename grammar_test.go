package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	tA   = Letter('A')
	tB   = Letter('B')
	tC   = Letter('C')
	tAdd = Arith(OpAdd)
	tMul = Arith(OpMul)
	tGt  = Compare(OpGreater)
	tLt  = Compare(OpLess)
)

func TestValidateRejectsShortAndEvenLengths(t *testing.T) {
	cases := [][]Tile{
		nil,
		{tA},
		{tA, tGt},
		{tA, tAdd, tB, tGt},
		{tA, tAdd, tB, tAdd, tC, tGt},
	}
	for _, tiles := range cases {
		assert.ErrorIs(t, Validate(tiles), ErrInvalidEquation, "len %d", len(tiles))
	}
}

func TestValidateRejectsMisplacedTiles(t *testing.T) {
	cases := map[string][]Tile{
		"operator first":           {tAdd, tA, tB, tGt, Integer(1)},
		"two letters in a row":     {tA, tB, tC, tGt, Integer(1)},
		"comparison in lhs":        {tA, tGt, tB, tGt, Integer(1)},
		"integer in lhs":           {Integer(3), tAdd, tB, tGt, Integer(1)},
		"no comparison":            {tA, tAdd, tB, tAdd, Integer(1)},
		"letter on the right":      {tA, tAdd, tB, tGt, tC},
		"comparison last":          {tA, tAdd, Integer(1), tB, tGt},
		"arith instead of compare": {tA, tAdd, tB, tMul, Integer(1)},
		"integer before compare":   {tA, Integer(1), tGt},
	}
	for name, tiles := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tiles), ErrInvalidEquation)
		})
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	cases := [][]Tile{
		{tA, tLt, Integer(5)},
		{tA, tAdd, tB, tGt, Integer(10)},
		{tA, tMul, tA, tAdd, tC, tLt, Integer(-2)},
	}
	for _, tiles := range cases {
		assert.NoError(t, Validate(tiles), NewEquation(tiles...).String())
	}
}

func TestDistinctLettersFirstOccurrenceOrder(t *testing.T) {
	tiles := []Tile{tC, tAdd, tA, tMul, tC, tAdd, tB, tAdd, tA, tGt, Integer(0)}
	assert.Equal(t, []rune{'C', 'A', 'B'}, DistinctLetters(tiles))
	assert.Equal(t, []rune{'A'}, DistinctLetters([]Tile{tA, tLt, Integer(5)}))
}
