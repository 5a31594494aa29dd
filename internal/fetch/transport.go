package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/pfrederiksen/nba-boxscores/internal/htmldoc"
)

const (
	BaseURL        = "https://www.basketball-reference.com"
	UserAgent      = "nba-boxscores/1.0 (github.com/pfrederiksen/nba-boxscores)"
	DefaultTimeout = 30 * time.Second
)

// ErrRegionNotFound means the page loaded but the selector matched nothing
var ErrRegionNotFound = errors.New("region not found")

// Transport retrieves the inner HTML of the first element matching selector
// on the page at url.
type Transport interface {
	Retrieve(ctx context.Context, url, selector string) (string, error)
}

// HTTPTransport fetches pages over HTTP and extracts regions with goquery
type HTTPTransport struct {
	client *resty.Client
}

// NewHTTPTransport creates a transport with the given per-request timeout
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "text/html")
	return &HTTPTransport{client: client}
}

// Retrieve implements Transport. Responses that will never succeed (404, 410)
// are wrapped with backoff.Permanent so the fetcher stops retrying them.
func (t *HTTPTransport) Retrieve(ctx context.Context, url, selector string) (string, error) {
	resp, err := t.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound || code == http.StatusGone:
		return "", backoff.Permanent(fmt.Errorf("unexpected status code: %d", code))
	case code != http.StatusOK:
		return "", fmt.Errorf("unexpected status code: %d", code)
	}

	doc, err := htmldoc.Load(bytes.NewReader(resp.Body()))
	if err != nil {
		return "", err
	}

	region := doc.Find(selector).First()
	if region.Length() == 0 {
		return "", fmt.Errorf("%s: %w", selector, ErrRegionNotFound)
	}
	html, err := region.Html()
	if err != nil {
		return "", fmt.Errorf("rendering region: %w", err)
	}
	return html, nil
}
