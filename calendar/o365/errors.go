package o365

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthExpired means the refresh-token grant failed. The session cannot
// be recovered here; the user has to re-authenticate interactively.
var ErrAuthExpired = errors.New("o365: authorization expired, re-authentication required")

// APIError is a non-2xx response from the calendar service. Body keeps the
// raw response so failures can be diagnosed from the logs.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("o365: api responded with status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an APIError for a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
