package shared

import "errors"

var (
	// ErrForbidden indicates the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated indicates no caller identity was resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
)
