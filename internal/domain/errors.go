package domain

import "fmt"

// ValidationError reports a required position field that is missing or
// malformed. The field name is always populated so callers can surface it.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invalid position: field %q %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("invalid position: missing required field %q", e.Field)
}

// ParseError reports an unparseable date or numeric string. Not retried.
type ParseError struct {
	Value string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %q: %v", e.Value, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
