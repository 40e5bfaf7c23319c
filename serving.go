package main

import (
	"fmt"
	"regexp"
	"strconv"
)

// Serving is a quantity of food. Without a unit, Size is a multiple of the
// food's base serving (1.5 servings). With a unit, Size is measured in that
// unit (150 g) and must be resolved against the food's serving table.
type Serving struct {
	Size float64
	Unit string
}

// DefaultServing is one base serving.
var DefaultServing = Serving{Size: 1}

// Accepts "1.5", "1.", ".5", "1.5c", "1.5 cups", "25 g dry".
// A unit starts with a letter, so "1.5.5" and "1,5 g" do not match.
var servingPattern = regexp.MustCompile(`^\s*([0-9]+\.?[0-9]*|\.[0-9]+)(?:\s*(\pL.*?))?\s*$`)

// Rejects units that read as an exponent, as in "2e3 g".
var exponentPattern = regexp.MustCompile(`^[eE][+-]?[0-9]`)

// ParseServing parses a serving literal.
func ParseServing(s string) (Serving, error) {
	m := servingPattern.FindStringSubmatch(s)
	if m == nil || exponentPattern.MatchString(m[2]) {
		return Serving{}, fmt.Errorf("invalid serving %q: expected a size optionally followed by a unit", s)
	}
	size, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Serving{}, fmt.Errorf("invalid serving size %q: %w", m[1], err)
	}
	return Serving{Size: size, Unit: m[2]}, nil
}

// Scale returns the serving with its size multiplied by factor.
func (s Serving) Scale(factor float64) Serving {
	s.Size *= factor
	return s
}

func (s Serving) String() string {
	size := formatFloat(s.Size)
	if s.Unit == "" {
		return size
	}
	return size + " " + s.Unit
}

// formatFloat renders f in the shortest form that parses back to f.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
