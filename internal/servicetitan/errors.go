package servicetitan

import (
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an upstream error body is kept. ServiceTitan
// validation errors can run to several KB of nested JSON.
const maxErrorBody = 300

// APIError is a non-2xx response from the ServiceTitan API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("servicetitan: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// newAPIError drains the response body and truncates it for logging.
func newAPIError(resp *http.Response, endpoint string) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		Body:       s,
	}
}
