// internal/detection/errors.go
package detection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried into the exported status block.
// HTTP errors export their status code instead.
const (
	CodeNetwork   uint16 = 1
	CodeMalformed uint16 = 2
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("detection %s: network: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Reason() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "Detection server did not answer in time"
	}
	return "Unable to connect to detection server"
}

func (e *NetworkError) Code() uint16 { return CodeNetwork }

// HTTPError is a non-2xx response.
type HTTPError struct {
	Op         string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("detection %s: http status %d", e.Op, e.StatusCode)
}

func (e *HTTPError) Reason() string {
	return fmt.Sprintf("Detection server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *HTTPError) Code() uint16 { return uint16(e.StatusCode) }

// MalformedResponseError is a 2xx response whose body is not a status document.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("detection %s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Reason() string {
	return "Detection server sent an unreadable status"
}

func (e *MalformedResponseError) Code() uint16 { return CodeMalformed }

// Reason returns a human-readable reason for display.
// Errors that do not expose one fall back to their message.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var r interface{ Reason() string }
	if errors.As(err, &r) {
		return r.Reason()
	}
	return err.Error()
}

// Code extracts a best-effort uint16 code without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func Code(err error) uint16 {
	if err == nil {
		return 0
	}
	var c interface{ Code() uint16 }
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
