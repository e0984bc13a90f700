package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotOpen       = errors.New("item not open")
	ErrSaveInFlight  = errors.New("save already in flight")
	ErrSessionClosed = errors.New("session closed")
)
