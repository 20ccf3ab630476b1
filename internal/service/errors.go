package service

import (
	"errors"
	"net/http"
)

// ValidationError is a caller mistake: wrong batch size or nothing but blank texts.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProviderError wraps a failure of the embedding provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "embedding failed: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error returned by Service.Embed to an HTTP status:
// 400 for validation errors, 500 for everything else.
func StatusCode(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
