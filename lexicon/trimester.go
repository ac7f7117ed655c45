package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

// Trimester is the classification axis of the compatibility table
type Trimester string

const (
	First  Trimester = "first"
	Second Trimester = "second"
	Third  Trimester = "third"
)

// ErrInvalidTrimester is wrapped by every InvalidTrimesterError
var ErrInvalidTrimester = errors.New("invalid trimester")

// InvalidTrimesterError reports a trimester value outside first, second, third
type InvalidTrimesterError struct {
	Value string
}

func (e *InvalidTrimesterError) Error() string {
	return fmt.Sprintf("invalid trimester %q: must be one of %s", e.Value, strings.Join(trimesterNames(), ", "))
}

func (e *InvalidTrimesterError) Unwrap() error {
	return ErrInvalidTrimester
}

// Trimesters returns the recognized trimesters in pregnancy order
func Trimesters() []Trimester {
	return []Trimester{First, Second, Third}
}

// ParseTrimester accepts the identifiers first, second and third,
// ignoring case and surrounding whitespace. Anything else, including the
// empty string, is an *InvalidTrimesterError.
func ParseTrimester(s string) (Trimester, error) {
	t := Trimester(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &InvalidTrimesterError{Value: s}
	}
	return t, nil
}

// Valid reports whether t is one of the three recognized trimesters
func (t Trimester) Valid() bool {
	switch t {
	case First, Second, Third:
		return true
	}
	return false
}

func (t Trimester) String() string {
	return string(t)
}

func trimesterNames() []string {
	names := make([]string, 0, 3)
	for _, t := range Trimesters() {
		names = append(names, string(t))
	}
	return names
}
