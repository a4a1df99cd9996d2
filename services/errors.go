package services

import (
	"errors"

	"gorm.io/gorm"
)

// Error kinds. Every Error wraps exactly one of them so callers can use
// errors.Is to pick a response.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

// Error carries a user facing message next to its kind
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func notFound(msg string) error   { return &Error{Kind: ErrNotFound, Message: msg} }
func conflict(msg string) error   { return &Error{Kind: ErrConflict, Message: msg} }
func forbidden(msg string) error  { return &Error{Kind: ErrForbidden, Message: msg} }
func validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

// lookupErr turns a missing row into a NotFound error with msg and passes
// any other error through
func lookupErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(msg)
	}
	return err
}
