package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNetwork marks a request that never got an HTTP response.
	ErrNetwork = errors.New("could not reach the server, please try again")
	// ErrBadResponse marks a response body that could not be decoded.
	ErrBadResponse = errors.New("unexpected response from the server")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// APIError is a non-2xx answer from the external API.
type APIError struct {
	StatusCode int
	Message    string
}

func NewAPIError(code int, msg string) error {
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", code)
	}
	return &APIError{StatusCode: code, Message: msg}
}

func (err APIError) Error() string {
	return err.Message
}

// IsAPIStatus reports whether err is an APIError carrying code.
func IsAPIStatus(err error, code int) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == code
}

// UserMessage returns the text that should be shown to a user for err.
func UserMessage(err error) string {
	switch cause := errors.Cause(err).(type) {
	case *APIError:
		return cause.Message
	case *ValidationError:
		return cause.Error()
	}
	switch errors.Cause(err) {
	case ErrNetwork, ErrBadResponse:
		return errors.Cause(err).Error()
	}
	return "something went wrong, please try again"
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
