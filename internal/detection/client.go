// internal/detection/client.go
package detection

import (
	"context"
	"errors"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	pathStatus    = "/detection_status"
	pathVideoFeed = "/video_feed"
	pathReset     = "/reset_status"
	pathShutdown  = "/shutdown"
)

// Config is minimal transport config.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the remote detection service.
// One resty client serves bounded JSON requests; the video feed uses a second
// client without a total timeout because the stream never ends on its own.
type Client struct {
	baseURL string
	http    *resty.Client
	stream  *resty.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("detection client: base url required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	h := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-store")
	if cfg.Timeout > 0 {
		h.SetTimeout(cfg.Timeout)
	}

	s := resty.New().SetBaseURL(base)

	return &Client{baseURL: base, http: h, stream: s}, nil
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// VideoFeedURL is the address an image element can consume directly.
func (c *Client) VideoFeedURL() string { return c.baseURL + pathVideoFeed }

// FetchStatus performs one GET /detection_status.
func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	const op = "fetch status"

	resp, err := c.http.R().SetContext(ctx).Get(pathStatus)
	if err != nil {
		return Status{}, &NetworkError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return Status{}, &HTTPError{Op: op, StatusCode: resp.StatusCode()}
	}

	s, err := DecodeStatus(resp.Body())
	if err != nil {
		return Status{}, &MalformedResponseError{Op: op, Err: err}
	}
	return s, nil
}

// ResetStatus asks the service to clear its detection flags.
func (c *Client) ResetStatus(ctx context.Context) error {
	return c.post(ctx, "reset status", pathReset)
}

// Shutdown asks the service to release the camera and stop.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.post(ctx, "shutdown", pathShutdown)
}

func (c *Client) post(ctx context.Context, op, path string) error {
	resp, err := c.http.R().SetContext(ctx).Post(path)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return &HTTPError{Op: op, StatusCode: resp.StatusCode()}
	}
	return nil
}

// OpenVideoFeed opens the MJPEG stream and returns its body and multipart boundary.
// The caller owns the body and must close it; cancelling ctx also ends the read.
func (c *Client) OpenVideoFeed(ctx context.Context) (io.ReadCloser, string, error) {
	const op = "open video feed"

	resp, err := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pathVideoFeed)
	if err != nil {
		return nil, "", &NetworkError{Op: op, Err: err}
	}

	body := resp.RawBody()
	if !resp.IsSuccess() {
		if body != nil {
			body.Close()
		}
		return nil, "", &HTTPError{Op: op, StatusCode: resp.StatusCode()}
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header().Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		body.Close()
		if err == nil {
			err = errors.New("not a multipart stream")
		}
		return nil, "", &MalformedResponseError{Op: op, Err: err}
	}

	return body, params["boundary"], nil
}
