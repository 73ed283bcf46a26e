package scanning

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential means no LLM provider has an API key configured.
	ErrNoCredential = errors.New("no provider credential configured")

	// ErrInvalidResponse means a provider returned 2xx but the body did not
	// have the shape its API contract promises.
	ErrInvalidResponse = errors.New("unexpected provider response shape")
)

// APIError is a non-2xx reply from a provider, carrying the provider's own
// error message when one could be extracted from the body.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
}

// newAPIError builds an APIError from a failed response, preferring the
// message nested in the standard {"error": {"message": ...}} body over a bare
// status line.
func newAPIError(provider string, status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	return &APIError{Provider: provider, Status: status, Message: message}
}

// ParseError means the model produced text that could not be decoded into
// ReceiptFields.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing receipt fields: %s", e.Reason)
}
