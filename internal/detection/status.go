// internal/detection/status.go
package detection

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Status is one detection_status document.
// Immutable value: replaced wholesale, never merged.
type Status struct {
	ShirtDetected   bool `json:"shirt_detected"`
	PantsDetected   bool `json:"pants_detected"`
	UniformDetected bool `json:"uniform_detected"`
}

// DecodeStatus parses a status body.
// Missing fields decode as false. Anything that is not a JSON object, or a field
// with a non-boolean value, is an error.
func DecodeStatus(body []byte) (Status, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Status{}, errors.New("empty body")
	}
	if trimmed[0] != '{' {
		return Status{}, errors.New("body is not a JSON object")
	}

	var s Status
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Status{}, err
	}
	return s, nil
}
