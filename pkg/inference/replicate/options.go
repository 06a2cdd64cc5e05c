package replicate

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the public predictions API.
	DefaultBaseURL = "https://api.replicate.com/v1"

	defaultPollInterval = time.Second
	defaultWait         = 60 * time.Second
	maxWait             = 60 * time.Second
)

type options struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
	wait         time.Duration
	userAgent    string
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		baseURL:      DefaultBaseURL,
		pollInterval: defaultPollInterval,
		wait:         defaultWait,
		userAgent:    "go-nodegen",
	}
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at another API root, typically a test server.
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithToken sets the API token sent as a bearer credential.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithPollInterval sets the delay between status checks.
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithWait sets how long the create call may block server side before
// returning a pending prediction. The service caps this at 60 seconds; zero
// disables the Prefer header.
func WithWait(wait time.Duration) Option {
	return func(o *options) {
		if wait > maxWait {
			wait = maxWait
		}
		o.wait = wait
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(o *options) { o.userAgent = agent }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
