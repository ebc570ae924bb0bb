package services

import "errors"

// ErrNotAuthenticated is returned by Connect when the service requires
// authentication and none is in place.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrToolMissing is wrapped by Initialize when a required external CLI
// binary cannot be found on PATH.
var ErrToolMissing = errors.New("required tool not found")
