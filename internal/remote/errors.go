package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// StatusError is returned when the service answers with a non-2xx status.
// The body is never parsed in that case.
type StatusError struct {
	Op   string
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Text)
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// newStatusError builds a StatusError from a response, keeping the status
// line text the server sent and falling back to the canonical one.
func newStatusError(op string, resp *http.Response) *StatusError {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return &StatusError{Op: op, Code: resp.StatusCode, Text: text}
}
