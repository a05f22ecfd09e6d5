// internal/dashboard/views.go
package dashboard

import (
	"time"

	"github.com/tamzrod/uniform-watch/internal/detection"
	"github.com/tamzrod/uniform-watch/internal/poller"
	"github.com/tamzrod/uniform-watch/internal/stream"
)

// statusView is the JSON rendering of one poller snapshot.
type statusView struct {
	Headline            string                 `json:"headline"`
	Status              detection.Status       `json:"status"`
	Connectivity        detection.Connectivity `json:"connectivity"`
	Loading             bool                   `json:"loading"`
	Stale               bool                   `json:"stale"`
	UpdatedAt           *time.Time             `json:"updated_at,omitempty"`
	CheckedAt           *time.Time             `json:"checked_at,omitempty"`
	ConsecutiveFailures int                    `json:"consecutive_failures"`
}

func newStatusView(s poller.State) statusView {
	return statusView{
		Headline:            s.Headline(),
		Status:              s.Status,
		Connectivity:        s.Connectivity,
		Loading:             s.Loading,
		Stale:               s.Stale(),
		UpdatedAt:           timePtr(s.UpdatedAt),
		CheckedAt:           timePtr(s.CheckedAt),
		ConsecutiveFailures: s.ConsecutiveFailures,
	}
}

type streamView struct {
	Enabled      bool                   `json:"enabled"`
	Connectivity detection.Connectivity `json:"connectivity"`
	Frames       uint64                 `json:"frames"`
	Reconnects   uint64                 `json:"reconnects"`
	LastFrameAt  *time.Time             `json:"last_frame_at,omitempty"`
}

func newStreamView(s stream.State) streamView {
	return streamView{
		Enabled:      true,
		Connectivity: s.Connectivity,
		Frames:       s.Frames,
		Reconnects:   s.Reconnects,
		LastFrameAt:  timePtr(s.LastFrameAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
