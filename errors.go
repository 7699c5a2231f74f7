package backoffice

import "errors"

var (
	// ErrUnauthenticated means no caller identity could be established
	// (missing, invalid, or expired token; unknown session).
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned by Login when the identifier or
	// secret is wrong. Deliberately indistinguishable between the two.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStaffNotFound means the identity exists but has no matching
	// record in the staff directory.
	ErrStaffNotFound = errors.New("not found in staff directory")
	// ErrAccountDeactivated means the staff record exists but its active
	// flag is false.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrInsufficientPermissions means the caller's permission set does
	// not intersect the required capability set.
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	// ErrLoginRateLimited is an exported constant or variable used by the back-office engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrSessionNotFound is an exported constant or variable used by the back-office engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenInvalid is an exported constant or variable used by the back-office engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrDuplicateEmail is an exported constant or variable used by the back-office engine.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrRoleInvalid is an exported constant or variable used by the back-office engine.
	ErrRoleInvalid = errors.New("invalid role reference")
	// ErrValidation marks malformed or missing request fields. Callers
	// wrap it with the offending field.
	ErrValidation = errors.New("invalid request")
	// ErrUnknownCollection is an exported constant or variable used by the back-office engine.
	ErrUnknownCollection = errors.New("unknown content collection")
	// ErrServiceCredentialMissing means the elevated service credential
	// was not configured; privileged operations refuse to run rather
	// than fall back to a lesser client.
	ErrServiceCredentialMissing = errors.New("service credential not configured")
	// ErrBackendUnavailable wraps unclassified store failures.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the back-office engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
