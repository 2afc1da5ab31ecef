package formulation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced formulation does not exist.
	ErrNotFound = errors.New("formulation not found")

	// ErrActiveFormulation is returned on edit or delete attempts against an
	// active formulation. Callers must toggle it back to draft first.
	ErrActiveFormulation = errors.New("formulation is active and cannot be modified; deactivate it first")

	// ErrVersionConflict is returned by Update when optimistic-concurrency
	// checks are enabled and the stored version no longer matches the one the
	// caller read.
	ErrVersionConflict = errors.New("formulation was modified concurrently; reload and retry")
)

// MixError reports an ingredient mix whose percentages do not sum to 100
// within tolerance. Sum carries the computed total rounded to one decimal.
type MixError struct {
	Sum float64
}

func (e *MixError) Error() string {
	return fmt.Sprintf("ingredient percentages must sum to 100, got %.1f", e.Sum)
}

// ValidationError collects field-level input violations detected before any
// write occurs.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid formulation input"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Fields[key], "; ")))
	}
	return "invalid formulation input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
