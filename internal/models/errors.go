package models

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")

	ErrNotTrained = errors.New("statistical model not trained")
	ErrNoBackend  = errors.New("no model backend configured")
)
