package schema

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader fetches model documents from different sources (filesystem, fs.FS,
// HTTP). Implementations live under internal/schema but satisfy this contract.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// Store enumerates the documents available to a registry and loads them.
type Store interface {
	Loader
	List(ctx context.Context) ([]Source, error)
}

// LoaderOptions configures how a Loader resolves sources. HTTP stays disabled
// unless a client is supplied or AllowHTTPFallback is set.
type LoaderOptions struct {
	// FileSystem enables loading from an abstract filesystem.
	FileSystem fs.FS

	// HTTPClient allows callers to inject custom HTTP behaviour (timeouts,
	// proxies).
	HTTPClient *http.Client

	// AllowHTTPFallback enables HTTP sources with a default client.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetch durations.
	RequestTimeout time.Duration

	// Pattern selects the documents a Store lists. Defaults to "*.json".
	Pattern string
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS implementation for relative paths.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for remote documents.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables HTTP loading using a default client and assigns an
// optional timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// WithPattern overrides the glob used when listing a document directory.
func WithPattern(pattern string) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Pattern = pattern
	}
}

// NewLoaderOptions applies a set of LoaderOption values and returns the
// resulting configuration.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{Pattern: "*.json"}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.Pattern == "" {
		cfg.Pattern = "*.json"
	}
	return cfg
}

// Construction helpers live in the top-level nodegen package to prevent import cycles.
