package services

import "errors"

// Sentinel errors shared by the service layer. Handlers translate these to
// HTTP statuses; everything else is treated as an internal error.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrSelfDelete         = errors.New("cannot delete your own account")
)
