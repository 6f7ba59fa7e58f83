package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound indicates a resource was not found (or is not visible to the caller).
type ErrNotFound struct {
	Resource string
	ID       int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Resource, e.ID)
}

// ErrForbidden indicates the caller does not own the resource it tried to act on.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrDuplicate indicates a uniqueness rule rejected the write.
type ErrDuplicate struct {
	Key string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate: %s", e.Key)
}

// ErrInvalidOperation indicates a domain rule violation such as self-affiliation.
type ErrInvalidOperation struct {
	Reason string
}

func (e *ErrInvalidOperation) Error() string {
	return e.Reason
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation collects every rejected field of a request.
type ErrValidation struct {
	Fields []FieldError
}

func (e *ErrValidation) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func notFoundOr(err error, resource string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ErrNotFound{Resource: resource, ID: id}
	}
	return fmt.Errorf("load %s %d: %w", resource, id, err)
}

// isUniqueViolation recognises duplicate-key failures from both the gorm error
// translator and raw drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
