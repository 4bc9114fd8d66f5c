package domain

import "errors"

var (
	// ErrNotFound indicates that a named remote object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an object with the same name
	// already exists within its kind.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates that a caller-provided value violates
	// a precondition.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBlocked indicates that teardown of an object is blocked by an
	// active external association.
	ErrBlocked = errors.New("blocked by active association")

	// ErrConnection indicates that the management endpoint could not be
	// reached.
	ErrConnection = errors.New("management endpoint unreachable")

	// ErrRejected indicates that the management endpoint rejected a
	// submitted configuration.
	ErrRejected = errors.New("configuration rejected")
)
