package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers unknown email, social-only account and wrong password alike
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrConflict is returned when the email is already registered
	ErrConflict = errors.New("email already registered")

	// ErrUnauthorized is returned when a session token is missing, invalid or expired
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUserNotFound is returned when a token refers to a user that no longer exists
	ErrUserNotFound = errors.New("user not found")

	// ErrIncompleteAnswers is returned when scoring is asked for before every question is answered
	ErrIncompleteAnswers = errors.New("every question must be answered")
)

// ValidationError reports bad client input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// OAuthErrorCode is the reason reported to the browser when a social login fails
type OAuthErrorCode string

const (
	OAuthDenied         OAuthErrorCode = "denied"
	OAuthNoCode         OAuthErrorCode = "no_code"
	OAuthInvalidState   OAuthErrorCode = "invalid_state"
	OAuthCallbackFailed OAuthErrorCode = "callback_failed"
)

// OAuthFlowError is a failed social login
type OAuthFlowError struct {
	Code OAuthErrorCode
	Err  error
}

func (e *OAuthFlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth %s: %v", e.Code, e.Err)
	}
	return "oauth " + string(e.Code)
}

func (e *OAuthFlowError) Unwrap() error {
	return e.Err
}

func oauthError(code OAuthErrorCode, err error) error {
	return &OAuthFlowError{Code: code, Err: err}
}
