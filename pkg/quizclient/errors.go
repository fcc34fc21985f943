package quizclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is matched by any 401 response
	ErrUnauthorized = errors.New("quizclient: unauthorized")

	// ErrReauthenticate means automatic refresh has given up and the user
	// must log in again.
	ErrReauthenticate = errors.New("quizclient: session expired, log in again")
)

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("quizclient: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("quizclient: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is makes errors.Is(err, ErrUnauthorized) true for 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

func (e *APIError) retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}
