package chatwoot

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound reports a defined absence (lookup miss), not a failure.
var ErrNotFound = errors.New("chatwoot: not found")

// ErrNotConfigured is returned when required connection settings are missing.
// The bot keeps running without the mirror when it sees this at startup.
var ErrNotConfigured = errors.New("chatwoot: base URL, API token and inbox ID must be configured")

// UpstreamError represents a non-2xx response from the support-inbox API.
type UpstreamError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chatwoot: %s returned status %d", e.Endpoint, e.StatusCode)
}

// IsConflict reports whether err is an UpstreamError carrying the 409/422
// status Chatwoot uses for "contact already exists".
func IsConflict(err error) bool {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	return ue.StatusCode == http.StatusConflict || ue.StatusCode == http.StatusUnprocessableEntity
}
