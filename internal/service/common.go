package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/ws"
	"go-stock-tracker/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller is the authenticated identity an operation runs for.
type Caller struct {
	ID             uuid.UUID
	Name           string
	IsAdmin        bool
	IsPrimaryAdmin bool
}

func (c Caller) actor() *ws.Actor {
	return &ws.Actor{ID: c.ID.String(), Name: c.Name}
}

func (c Caller) idPtr() *uuid.UUID {
	id := c.ID
	return &id
}

// EventPublisher receives committed domain events. *ws.Hub implements it.
type EventPublisher interface {
	Publish(event ws.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(ws.Event) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

const maxNotesLen = 500

// lookupErr maps a missing row to NotFound and anything else to Internal.
func lookupErr(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(notFoundMsg)
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal("database error", err)
}

// storeErr passes app errors through and wraps the rest as Internal.
func storeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(msg, err)
}

func validationErr(data interface{}) error {
	errs := validator.ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return apperror.InvalidArgumentf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
}

// cleanNotes sanitizes free text and enforces the column bound.
func cleanNotes(s string) (string, error) {
	s = validator.SanitizeText(s)
	if utf8.RuneCountInString(s) > maxNotesLen {
		return "", apperror.InvalidArgumentf("notes must be at most %d characters", maxNotesLen)
	}
	return s, nil
}

func trimmedLen(s string) (string, int) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s)
}
