package relationships

import "errors"

var (
	// ErrInvalidArgument indicates malformed or missing input, including
	// self-referential relationship requests.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden indicates the actor lacks rights over the relationship.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the relationship or referenced user is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the requested transition is not allowed from
	// the relationship's current status.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable indicates the storage collaborator failed.
	ErrUnavailable = errors.New("storage unavailable")
)
