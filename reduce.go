package main

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrReduction is the family of arithmetic failures during reduction.
	ErrReduction = errors.New("reduction error")
	// ErrDivisionByZero is a reduction error.
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrReduction)
	// ErrOverflow is returned when an intermediate value leaves the finite
	// float64 range.
	ErrOverflow = fmt.Errorf("%w: overflow", ErrReduction)
)

// LetterBinding maps each letter of one evaluation to its looked-up value.
type LetterBinding map[rune]int64

// Reduction is the outcome of reducing a valid equation.
type Reduction struct {
	LHS    float64
	Result bool
}

// Reduce substitutes bound values for letters and evaluates the left-hand
// side with * and / binding tighter than + and -, left to right within a
// level, then applies the comparison against the integer on the right.
// tiles must be valid and binding must cover every letter.
func Reduce(tiles []Tile, binding LetterBinding) (Reduction, error) {
	n := len(tiles)
	lhs, err := reduceArithmetic(tiles[:n-2], binding)
	if err != nil {
		return Reduction{}, err
	}

	rhs := float64(tiles[n-1].Int)
	var result bool
	switch op := tiles[n-2].Compare; op {
	case OpGreater:
		result = lhs > rhs
	case OpLess:
		result = lhs < rhs
	default:
		return Reduction{}, fmt.Errorf("%w: unknown comparison %q", ErrReduction, rune(op))
	}
	return Reduction{LHS: lhs, Result: result}, nil
}

// reduceArithmetic folds an alternating letter/operator sequence. Terms of
// the current sum are accumulated in term; a lower precedence operator flushes
// term into sum.
func reduceArithmetic(expr []Tile, binding LetterBinding) (float64, error) {
	value := func(t Tile) (float64, error) {
		v, ok := binding[t.Letter]
		if !ok {
			return 0, fmt.Errorf("%w: letter %c is not bound", ErrReduction, t.Letter)
		}
		return float64(v), nil
	}

	term, err := value(expr[0])
	if err != nil {
		return 0, err
	}
	var sum float64
	sumOp := OpAdd

	for i := 1; i+1 < len(expr); i += 2 {
		op := expr[i].Arith
		operand, err := value(expr[i+1])
		if err != nil {
			return 0, err
		}

		if op.precedence() == 2 {
			if term, err = applyArith(term, op, operand); err != nil {
				return 0, err
			}
			continue
		}

		if sum, err = applyArith(sum, sumOp, term); err != nil {
			return 0, err
		}
		sumOp, term = op, operand
	}
	return applyArith(sum, sumOp, term)
}

func applyArith(a float64, op ArithOp, b float64) (float64, error) {
	var v float64
	switch op {
	case OpAdd:
		v = a + b
	case OpSub:
		v = a - b
	case OpMul:
		v = a * b
	case OpDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		v = a / b
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", ErrReduction, rune(op))
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrOverflow
	}
	return v, nil
}
