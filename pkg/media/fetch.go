package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultMaxFetchBytes = int64(256 << 20)

// Payload is a fetched media body.
type Payload struct {
	URL         string
	ContentType string
	Data        []byte
}

// Hint returns the best name to sniff the payload format from.
func (p Payload) Hint() string {
	if p.ContentType != "" {
		return p.ContentType + " " + p.URL
	}
	return p.URL
}

// Fetcher retrieves the body behind a result URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Payload, error)
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithFetchTimeout caps a single fetch.
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = timeout
	}
}

// WithMaxBytes caps the accepted body size.
func WithMaxBytes(limit int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if limit > 0 {
			f.maxBytes = limit
		}
	}
}

// HTTPFetcher fetches http(s) URLs and decodes data URIs inline.
type HTTPFetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher returns a fetcher using client, or http.DefaultClient when
// nil.
func NewHTTPFetcher(client *http.Client, options ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	fetcher := &HTTPFetcher{client: client, maxBytes: defaultMaxFetchBytes}
	for _, opt := range options {
		if opt != nil {
			opt(fetcher)
		}
	}
	return fetcher
}

// Fetch returns the payload behind rawURL. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Payload, error) {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return Payload{}, errors.New("media fetch: url is required")
	}
	if IsDataURI(target) {
		mime, data, err := ParseDataURI(target)
		if err != nil {
			return Payload{}, err
		}
		return Payload{URL: "data:" + mime, ContentType: mime, Data: data}, nil
	}

	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("media fetch: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("media fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Payload{}, fmt.Errorf("media fetch: %s: unexpected status %s", target, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Payload{}, fmt.Errorf("media fetch: read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Payload{}, fmt.Errorf("media fetch: %s exceeds %d bytes", target, f.maxBytes)
	}
	return Payload{URL: target, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}
