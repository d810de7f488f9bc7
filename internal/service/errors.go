package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidID  = errors.New("invalid advertisement ID")
	ErrAdNotFound = errors.New("advertisement not found")
)

type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every violated field of one request so clients
// see all problems at once instead of fixing them one by one.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
