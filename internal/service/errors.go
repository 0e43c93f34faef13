package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// FieldError is a validation failure attached to one request field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

func fieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// translate maps persistence errors onto the service sentinels
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s not found: %w", entity, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s already exists: %w", entity, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s is still referenced by other records: %w", entity, ErrConflict)
	default:
		return err
	}
}

func parseID(id, entity string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", entity, id, ErrNotFound)
	}
	return uid, nil
}

// parseOptionalID parses an optional foreign key sent as a string
func parseOptionalID(id *string, field string) (*uuid.UUID, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	uid, err := uuid.Parse(*id)
	if err != nil {
		return nil, fieldError(field, "must be a valid id")
	}
	return &uid, nil
}

func actorID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
