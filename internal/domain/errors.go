package domain

import "errors"

// Request failure categories. Callers wrap these with fmt.Errorf("...: %w")
// and the web layer maps them to status codes with errors.Is.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrBadRequest          = errors.New("bad request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
