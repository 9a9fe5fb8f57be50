package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/livetv/livetv/models"
)

// Action names the write an editor performed.
type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

var ErrNotConfirmed = errors.New("delete not confirmed")

// Backend writes one kind of record from its form.
type Backend[F any] interface {
	Create(ctx context.Context, form F) error
	Update(ctx context.Context, id string, form F) error
	Delete(ctx context.Context, id string) error
}

// MutationError is a failed create, update or delete. The editor keeps its
// buffer so the operator can retry.
type MutationError struct {
	Action string
	Err    error
}

func (e *MutationError) Error() string {
	return e.Action + ": " + e.Err.Error()
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Message is the store's operator-facing message.
func (e *MutationError) Message() string {
	var se *models.StoreError
	if errors.As(e.Err, &se) {
		return se.Message
	}
	return e.Err.Error()
}

// Editor is the modal record editor shared by channels and categories.
// EditingID is empty in create mode.
type Editor[F any] struct {
	Form      F
	EditingID string
	Open      bool

	backend  Backend[F]
	validate func(F) error
	refetch  func(ctx context.Context) error
}

func NewEditor[F any](backend Backend[F], validate func(F) error, refetch func(ctx context.Context) error) *Editor[F] {
	return &Editor[F]{
		backend:  backend,
		validate: validate,
		refetch:  refetch,
	}
}

func (e *Editor[F]) OpenCreate() {
	e.reset()
	e.Open = true
}

func (e *Editor[F]) OpenEdit(id string, form F) {
	e.Form = form
	e.EditingID = id
	e.Open = true
}

// Close discards the buffer without writing.
func (e *Editor[F]) Close() {
	e.reset()
	e.Open = false
}

func (e *Editor[F]) Editing() bool {
	return e.EditingID != ""
}

// Submit validates the buffer and writes it. Validation and write failures
// leave the editor open with the buffer intact. On success the editor closes
// and the lists are fetched again; a failed refetch is returned with the
// action that did succeed.
func (e *Editor[F]) Submit(ctx context.Context, form F) (Action, error) {
	e.Form = form
	if err := e.validate(form); err != nil {
		return "", err
	}

	action := Created
	var err error
	if e.Editing() {
		action = Updated
		err = e.backend.Update(ctx, e.EditingID, form)
	} else {
		err = e.backend.Create(ctx, form)
	}
	if err != nil {
		return "", &MutationError{Action: "save", Err: err}
	}

	e.Close()
	return action, e.refetch(ctx)
}

// Delete removes id once the operator confirmed it. The editor buffer is not
// touched.
func (e *Editor[F]) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if strings.TrimSpace(id) == "" {
		return &MutationError{Action: "delete", Err: models.ErrNotFound}
	}
	if err := e.backend.Delete(ctx, id); err != nil {
		return &MutationError{Action: "delete", Err: err}
	}
	return e.refetch(ctx)
}

func (e *Editor[F]) reset() {
	var zero F
	e.Form = zero
	e.EditingID = ""
}
