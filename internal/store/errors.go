package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned when registering an email that is
	// already in use.
	ErrEmailTaken = errors.New("email already registered")
)
