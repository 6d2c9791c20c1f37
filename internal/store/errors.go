package store

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Callers translate it into their own domain errors.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyAnswered is returned when an action is recorded against a
// served question that has already been acted on.
var ErrAlreadyAnswered = errors.New("question already acted on")
