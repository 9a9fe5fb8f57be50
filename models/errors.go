package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an update targets an id that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrCategoryMissing is returned when a channel references an unknown category.
	ErrCategoryMissing = errors.New("category does not exist")
	// ErrStoreUnavailable marks a catalog store that could not be constructed.
	ErrStoreUnavailable = errors.New("catalog store is not configured")
)

// StoreError is the failure returned by every catalog store operation.
// Message is safe to show to an operator.
type StoreError struct {
	Op      string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		err = fmt.Errorf("%w: %w", ErrCategoryMissing, err)
		return &StoreError{Op: op, Message: ErrCategoryMissing.Error(), Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &StoreError{Op: op, Message: "record already exists", Err: err}
	}
	return &StoreError{Op: op, Message: err.Error(), Err: err}
}

// FetchError marks a failed read of one of the catalog lists.
type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return "fetch " + e.Entity + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
