// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/uniform-watch/internal/config"
	"github.com/tamzrod/uniform-watch/internal/detection"
)

// Build constructs a Poller and its detection client from normalized config.
// The client is returned too so other views (stream, CLI commands) can share it.
func Build(c *cfg.Config, opts ...Option) (*Poller, *detection.Client, error) {
	client, err := detection.New(detection.Config{
		BaseURL: c.Detection.BaseURL,
		Timeout: time.Duration(c.Detection.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	p, err := New(
		Config{
			Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond,
			Timeout:  time.Duration(c.Detection.TimeoutMs) * time.Millisecond,
		},
		client,
		opts...,
	)
	if err != nil {
		return nil, nil, err
	}

	return p, client, nil
}
