package backend

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	NotConfiguredErr   = errors.New("no auth backend configured")
	InvalidResponseErr = errors.New("invalid response from auth backend")
)

// RequestFailedError is returned for any non-2xx backend response. Message
// is the human-readable error extracted from the response body.
type RequestFailedError struct {
	Status  int
	Message string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("auth request failed (%d): %s", e.Status, e.Message)
}
