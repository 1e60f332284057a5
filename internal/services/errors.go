package services

import "errors"

// Error categories the handlers translate into HTTP statuses.
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("already exists")
	ErrForbidden = errors.New("path outside storage root")
	ErrBusy      = errors.New("operation already in progress")
)
