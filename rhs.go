package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidRHS is returned for right-hand side input that is not an integer.
var ErrInvalidRHS = errors.New("invalid RHS")

// ParseRHS parses the integer a player types for the right-hand side.
func ParseRHS(input string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRHS, input)
	}
	return n, nil
}

// PromptRHS asks for the right-hand side on out until in yields a valid
// integer. It returns io.EOF if input ends first.
func PromptRHS(in io.Reader, out io.Writer) (int64, error) {
	sc := bufio.NewScanner(in)
	fmt.Fprint(out, "Enter the RHS: ")
	for sc.Scan() {
		if n, err := ParseRHS(sc.Text()); err == nil {
			return n, nil
		}
		fmt.Fprint(out, "Please enter a valid RHS: ")
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, io.EOF
}
