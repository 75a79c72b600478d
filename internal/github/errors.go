package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v68/github"
)

// ErrorType classifies failures returned by the API client.
type ErrorType string

const (
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeServiceFailure  ErrorType = "service_failure"
	ErrorTypeParse           ErrorType = "parse_error"
)

// Sentinels for errors.Is. A ServiceFailure target with an empty
// Description matches any service failure.
var (
	ErrInvalidResponse = &APIError{Type: ErrorTypeInvalidResponse}
	ErrUnauthorized    = &APIError{Type: ErrorTypeUnauthorized}
	ErrNotFound        = &APIError{Type: ErrorTypeNotFound}
	ErrServiceFailure  = &APIError{Type: ErrorTypeServiceFailure}
	ErrParse           = &APIError{Type: ErrorTypeParse}
)

// APIError is the only error type the client surfaces, apart from
// context.Canceled for superseded requests.
type APIError struct {
	Type        ErrorType
	Description string
	Cause       error
}

// Error implements the error interface
func (e *APIError) Error() string {
	switch {
	case e.Description != "" && e.Cause != nil:
		return fmt.Sprintf("github %s: %s: %v", e.Type, e.Description, e.Cause)
	case e.Description != "":
		return fmt.Sprintf("github %s: %s", e.Type, e.Description)
	case e.Cause != nil:
		return fmt.Sprintf("github %s: %v", e.Type, e.Cause)
	}
	return fmt.Sprintf("github %s", e.Type)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an APIError of the same type. Service
// failures additionally compare descriptions when the target carries one.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	if t.Type != e.Type {
		return false
	}
	if e.Type == ErrorTypeServiceFailure && t.Description != "" {
		return t.Description == e.Description
	}
	return true
}

// TypeOf returns the taxonomy kind of err. Errors that did not come from
// the client are reported as ErrorTypeInvalidResponse.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeInvalidResponse
}

// classify maps a go-github call result onto the client's error taxonomy.
func classify(resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if resp == nil || resp.Response == nil {
		return &APIError{Type: ErrorTypeInvalidResponse, Cause: err}
	}

	code := resp.StatusCode
	switch {
	case code >= 200 && code <= 299:
		return &APIError{Type: ErrorTypeParse, Cause: err}
	case code == http.StatusUnauthorized:
		return &APIError{Type: ErrorTypeUnauthorized, Cause: err}
	case code == http.StatusNotFound:
		return &APIError{Type: ErrorTypeNotFound, Cause: err}
	}

	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", code, http.StatusText(code))
	}
	return &APIError{Type: ErrorTypeServiceFailure, Description: status, Cause: err}
}
