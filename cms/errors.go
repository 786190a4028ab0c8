package cms

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when the CMS answers 404 for a post.
	ErrNotFound = errors.New("cms: not found")
	// ErrInvalidRequest is returned when list or get options fail validation.
	ErrInvalidRequest = errors.New("cms: invalid request")
)

// APIError is a non-2xx answer other than 404.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cms: upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("cms: upstream returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying later could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
