package shared

import "errors"

// Authorization failures are split three ways so operators can tell
// "wrong role" apart from "right role, wrong account" in logs.
var (
	// ErrUnauthenticated indicates a missing or unverifiable bearer token.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInsufficientRole indicates the actor's role rank is too low.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrOutOfScope indicates the target entity is outside the actor's assigned scope.
	ErrOutOfScope = errors.New("out of assigned scope")
	// ErrInvalidImpersonationState indicates an impersonation token whose
	// session is missing, expired, or no longer active.
	ErrInvalidImpersonationState = errors.New("impersonation session not active")
	// ErrConflictingTransition indicates an illegal session state transition.
	ErrConflictingTransition = errors.New("conflicting state transition")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a malformed or invalid request payload.
	ErrValidation = errors.New("validation failed")
)
