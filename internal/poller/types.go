// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/uniform-watch/internal/detection"
)

// Display strings for the status headline.
const (
	HeadlineLoading    = "Loading..."
	HeadlineDetected   = "Uniform Detected"
	HeadlineNotPresent = "Uniform Not Detected"
)

// State is the poller-owned view state.
// Readers only ever hold copies.
type State struct {
	Status       detection.Status       `json:"status"`
	Connectivity detection.Connectivity `json:"connectivity"`
	Loading      bool                   `json:"loading"`

	// UpdatedAt is when Status was last replaced; zero until the first success.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	// CheckedAt is when the last request settled, successfully or not.
	CheckedAt           time.Time `json:"checked_at,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// initialState is what a view shows before anything settles.
func initialState() State {
	return State{Loading: true}
}

// Headline is the one-line summary a view renders.
// Loading wins over everything; a disconnected link shows its reason while the
// retained detection flags stay visible next to it.
func (s State) Headline() string {
	switch {
	case s.Loading:
		return HeadlineLoading
	case !s.Connectivity.IsConnected():
		return s.Connectivity.Reason
	case s.Status.UniformDetected:
		return HeadlineDetected
	default:
		return HeadlineNotPresent
	}
}

// Stale reports whether the displayed status predates the last settled request.
func (s State) Stale() bool {
	return !s.Loading && !s.Connectivity.IsConnected()
}
