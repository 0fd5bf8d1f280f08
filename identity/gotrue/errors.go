package gotrue

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable wraps transport failures talking to GoTrue.
	ErrUnavailable = errors.New("identity provider unavailable")
	// ErrNoCodeVerifier is returned by ExchangeCode when no federated
	// sign-in was started from this client.
	ErrNoCodeVerifier = errors.New("no pending federated sign-in")
	// ErrStorageUnavailable wraps session storage failures.
	ErrStorageUnavailable = errors.New("session storage unavailable")
)

// APIError is a non-2xx GoTrue response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gotrue: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("gotrue: %d: %s", e.StatusCode, e.Message)
}

// sessionRevoked reports whether err means the server no longer accepts
// the session's tokens.
func sessionRevoked(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}
