package backend

import "errors"

var (
	// ErrNoSession indicates no user is signed in. Callers redirect to
	// sign-in rather than retrying.
	ErrNoSession = errors.New("no active session")

	// ErrNotFound indicates the requested bookmark does not exist in
	// the caller's partition.
	ErrNotFound = errors.New("bookmark not found")
)
