package dispatcher

import "errors"

// Structural errors: failures to resolve the target service or method.
// They are returned synchronously from Execute and never routed through
// hooks, because no valid context or scope can be established for them.
var (
	// ErrServiceNotFound reports a call to an unregistered service path.
	ErrServiceNotFound = errors.New("service not found")

	// ErrMethodNotFound reports a call to a method the service does not
	// expose.
	ErrMethodNotFound = errors.New("method not found")

	// ErrAlreadyRegistered reports a duplicate service registration.
	ErrAlreadyRegistered = errors.New("service already registered")
)
