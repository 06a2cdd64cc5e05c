// Package replicate implements inference.Client against the Replicate
// predictions HTTP API.
package replicate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-nodegen/internal/httpclient"
	"github.com/goliatone/go-nodegen/pkg/inference"
)

const errorBodyLimit = 4096

// Client runs predictions and waits for their output.
type Client struct {
	opts       options
	httpClient *http.Client
	logger     *slog.Logger
}

var _ inference.Client = (*Client)(nil)

// New constructs a Client. Polling calls can outlive any fixed timeout, so the
// default HTTP client has none; cancellation flows through the context.
func New(opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.httpClient == nil {
		o.httpClient = httpclient.New(httpclient.WithTimeout(0))
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{opts: o, httpClient: o.httpClient, logger: logger}
}

// Run creates a prediction and returns its output once it succeeds. When
// req.Stream is set and the service offers a stream, text fragments are read
// from it and returned as a list.
func (c *Client) Run(ctx context.Context, req inference.Request) (any, error) {
	prediction, err := c.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Stream && prediction.URLs.Stream != "" && !prediction.Terminal() {
		fragments, err := c.Stream(ctx, prediction.URLs.Stream)
		if err != nil {
			return nil, err
		}
		return fragments, nil
	}
	prediction, err = c.Wait(ctx, prediction)
	if err != nil {
		return nil, err
	}
	return prediction.Output, nil
}

// Create starts a prediction. Version-pinned ids go through /predictions;
// bare ids use the model's latest deployment endpoint.
func (c *Client) Create(ctx context.Context, req inference.Request) (Prediction, error) {
	ref, err := parseModelRef(req.Model)
	if err != nil {
		return Prediction{}, err
	}
	input := req.Input
	if input == nil {
		input = map[string]any{}
	}
	payload := createRequest{Input: input, Stream: req.Stream}
	endpoint := c.endpoint("predictions")
	if ref.Version != "" {
		payload.Version = ref.Version
	} else {
		endpoint = c.endpoint("models", ref.Owner, ref.Name, "predictions")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Prediction{}, fmt.Errorf("replicate: marshal request: %w", err)
	}
	headers := http.Header{}
	// a blocking create would hold the stream back until the model finishes
	if c.opts.wait > 0 && !req.Stream {
		headers.Set("Prefer", "wait="+strconv.Itoa(int(c.opts.wait/time.Second)))
	}

	var prediction Prediction
	if err := c.do(ctx, http.MethodPost, endpoint, body, headers, &prediction); err != nil {
		return Prediction{}, err
	}
	c.logger.Debug("replicate: prediction created",
		"model", req.Model,
		"id", prediction.ID,
		"status", prediction.Status,
	)
	return prediction, nil
}

// Get fetches the current state of a prediction.
func (c *Client) Get(ctx context.Context, prediction Prediction) (Prediction, error) {
	endpoint := prediction.URLs.Get
	if endpoint == "" {
		if prediction.ID == "" {
			return Prediction{}, errors.New("replicate: prediction has no id")
		}
		endpoint = c.endpoint("predictions", prediction.ID)
	}
	var next Prediction
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &next); err != nil {
		return Prediction{}, err
	}
	return next, nil
}

// Wait polls until the prediction is terminal. Failed and canceled
// predictions return an error wrapping inference.ErrPredictionFailed.
func (c *Client) Wait(ctx context.Context, prediction Prediction) (Prediction, error) {
	current := prediction
	for !current.Terminal() {
		timer := time.NewTimer(c.opts.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return current, inference.WrapError(ctx.Err(), inference.ErrCanceled)
		case <-timer.C:
		}
		next, err := c.Get(ctx, current)
		if err != nil {
			return current, err
		}
		current = next
	}
	if current.Status != StatusSucceeded {
		return current, fmt.Errorf("%w: %s %s: %s", inference.ErrPredictionFailed, current.ID, current.Status, current.errorMessage())
	}
	return current, nil
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return strings.TrimRight(c.opts.baseURL, "/") + "/" + strings.Join(escaped, "/")
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body []byte) (*http.Request, error) {
	if strings.TrimSpace(c.opts.token) == "" {
		return nil, errors.New("replicate: api token is required")
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.userAgent != "" {
		req.Header.Set("User-Agent", c.opts.userAgent)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, headers http.Header, out any) error {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return inference.WrapError(ctx.Err(), inference.ErrCanceled)
		}
		return inference.WrapError(fmt.Errorf("replicate: %s %s: %w", method, endpoint, err), inference.ErrTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("replicate: decode response: %w", err)
	}
	return nil
}

type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	message := strings.TrimSpace(string(data))
	var parsed problem
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Detail != "" {
			message = parsed.Detail
		} else if parsed.Title != "" {
			message = parsed.Title
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	var opts []inference.ErrorOption
	if retryAfter, err := strconv.ParseInt(strings.TrimSpace(resp.Header.Get("Retry-After")), 10, 64); err == nil {
		opts = append(opts, inference.WithRetryAfter(retryAfter))
	}
	return inference.FromStatus(resp.StatusCode, fmt.Sprintf("replicate: %s: %s", resp.Status, message), opts...)
}
