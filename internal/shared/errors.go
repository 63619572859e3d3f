package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenMissing occurs when no session token accompanies the request.
	ErrTokenMissing = errors.New("session token missing")
	// ErrTokenInvalid occurs when the presented session token is unknown or expired.
	ErrTokenInvalid = errors.New("session token invalid")
)

// UserSafeMessage returns a message suitable for API consumers. Known domain
// errors pass through; anything else is masked.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrTokenInvalid):
		return "Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
