package services

import "errors"

// Error taxonomy surfaced to both the REST controllers and the socket
// gateway. Access and ownership failures are terminal for the request and
// never retried.
var (
	// ErrNotFound: the project or message id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied: the caller has no staffing relationship to the project.
	ErrAccessDenied = errors.New("access denied")
	// ErrForbidden: the caller is not the owner / not privileged to mutate.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized: missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
)
