package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound marks lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate marks writes rejected by a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// ValidationError reports per-field input problems. The request is not
// applied when any field fails.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StockFailure is one rejected line of a reservation request: either the
// requested quantity exceeds availability or the medicine no longer exists.
type StockFailure struct {
	MedicineID   int64  `json:"medicine_id"`
	MedicineName string `json:"medicine_name,omitempty"`
	Requested    int    `json:"requested,omitempty"`
	Available    int    `json:"available,omitempty"`
	NotFound     bool   `json:"not_found,omitempty"`
}

func (f StockFailure) String() string {
	if f.NotFound {
		return fmt.Sprintf("Medicine #%d not found.", f.MedicineID)
	}
	return fmt.Sprintf("%s (requested: %d, available: %d)", f.MedicineName, f.Requested, f.Available)
}

// StockError batches every failed line of a reservation request so the
// caller can present the complete list, never just the first offender.
type StockError struct {
	Failures []StockFailure
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}
	return "Insufficient stock for: " + strings.Join(parts, "; ")
}
