package tsp

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/copyleftdev/tspswarm/internal/optimization"
)

// ErrMalformedInput is the kind of every ReadCities failure.
var ErrMalformedInput = errors.New("malformed city input")

// token is a whitespace-separated word and the line it came from.
type token struct {
	text string
	line int
}

type tokenizer struct {
	scanner *bufio.Scanner
	pending []token
	line    int
}

func newTokenizer(r io.Reader) *tokenizer {
	return &tokenizer{scanner: bufio.NewScanner(r)}
}

// next returns the following token, io.EOF at the end of input, or the
// scanner's error.
func (t *tokenizer) next() (token, error) {
	for len(t.pending) == 0 {
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return token{}, err
			}
			return token{}, io.EOF
		}
		t.line++
		for _, f := range strings.Fields(t.scanner.Text()) {
			t.pending = append(t.pending, token{text: f, line: t.line})
		}
	}
	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok, nil
}

// ReadCities parses a city count n followed by n "x y" coordinate pairs.
// Tokens may be spread over lines freely. City i gets vertex id i. Anything
// after the n-th pair is ignored.
func ReadCities(r io.Reader) ([]City, error) {
	tz := newTokenizer(r)

	head, err := tz.next()
	if err != nil {
		return nil, readError(err, "missing city count")
	}
	n, err := strconv.Atoi(head.text)
	if err != nil || n < 0 {
		return nil, malformed(head.line, "city count %q is not a non-negative integer", head.text)
	}

	points := make([]Coordinates, 0, n)
	for i := 0; i < n; i++ {
		x, err := tz.float(i, "x")
		if err != nil {
			return nil, err
		}
		y, err := tz.float(i, "y")
		if err != nil {
			return nil, err
		}
		points = append(points, Coordinates{X: x, Y: y})
	}
	return NewCities(points), nil
}

func (t *tokenizer) float(city int, axis string) (float64, error) {
	tok, err := t.next()
	if err != nil {
		return 0, readError(err, "city "+strconv.Itoa(city)+": missing "+axis)
	}
	v, err := strconv.ParseFloat(tok.text, 64)
	if err != nil {
		return 0, malformed(tok.line, "city %d: %s coordinate %q is not a number", city, axis, tok.text)
	}
	return v, nil
}

func malformed(line int, format string, args ...interface{}) error {
	return optimization.NewErrorf(ErrMalformedInput, "line %d: "+format, append([]interface{}{line}, args...)...).
		WithComponent(component).WithOperation("ReadCities")
}

func readError(err error, msg string) error {
	if errors.Is(err, io.EOF) {
		return optimization.NewError(ErrMalformedInput, msg+": unexpected end of input").
			WithComponent(component).WithOperation("ReadCities")
	}
	e := optimization.WrapError(err, msg)
	e.Kind = ErrMalformedInput
	return e.WithComponent(component).WithOperation("ReadCities")
}
