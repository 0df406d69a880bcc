package domain

import (
	"strconv"
	"strings"
)

// ParseRate parses a rate supplied as a string on the ingestion path. A
// trailing percent sign is stripped before parsing, so "4.35%" and "4.35"
// both yield 4.35. Unparseable input yields a ParseError.
func ParseRate(s string) (float64, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, &ParseError{Value: s, Cause: err}
	}
	return v, nil
}
