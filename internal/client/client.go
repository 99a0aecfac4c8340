// Package client talks to the outside world over HTTP: store pages to scrape and notification channels.
package client

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxPageSize = 5 << 20
)

type Client struct {
	*http.Client
	Logger logger
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// New returns a Client following redirects with the given request timeout.
func New(timeout time.Duration, l logger) *Client {
	return &Client{
		Client: &http.Client{Timeout: timeout},
		Logger: l,
	}
}

func newRequest(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	setDefaultRequestHeader(r)
	return r, nil
}

func setDefaultRequestHeader(r *http.Request) {
	r.Header.Set("User-Agent", userAgent)
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

func (c Client) closeBody(funcName string, resp *http.Response) {
	if err := resp.Body.Close(); err != nil && c.Logger != nil {
		c.Logger.Errorf("%s: Error closing response body, url: %s, err: %v", funcName, resp.Request.URL, err)
	}
}
