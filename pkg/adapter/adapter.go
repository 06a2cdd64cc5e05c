// Package adapter executes a compiled binding: it turns the host's value map
// into a remote request, runs it through an inference.Client and converts the
// result back into host-native values.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/goliatone/go-nodegen/internal/httpclient"
	"github.com/goliatone/go-nodegen/pkg/inference"
	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
)

var (
	// ErrShapeMismatch reports media whose dimensions cannot be encoded or
	// stacked.
	ErrShapeMismatch = media.ErrShapeMismatch
	// ErrUnsupportedValue reports a host value the adapter cannot encode or a
	// result it cannot decode.
	ErrUnsupportedValue = errors.New("adapter: unsupported value")
)

// Result holds the output tuple in OutputSpec order.
type Result struct {
	Values []any
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithFetcher overrides how result URLs are downloaded.
func WithFetcher(fetcher media.Fetcher) Option {
	return func(a *Adapter) {
		if fetcher != nil {
			a.fetcher = fetcher
		}
	}
}

// WithLogger sets the logger used for skipped result items.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Adapter is stateless across invocations and safe for concurrent use.
type Adapter struct {
	client  inference.Client
	fetcher media.Fetcher
	logger  *slog.Logger
}

// New returns an Adapter that runs predictions through client.
func New(client inference.Client, options ...Option) *Adapter {
	adapter := &Adapter{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(adapter)
		}
	}
	if adapter.fetcher == nil {
		adapter.fetcher = media.NewHTTPFetcher(httpclient.New())
	}
	return adapter
}

// Invoke runs binding with the host values. The values map is not modified.
func (a *Adapter) Invoke(ctx context.Context, binding model.Binding, values map[string]any) (Result, error) {
	if a.client == nil {
		return Result{}, errors.New("adapter: inference client is required")
	}
	input, err := Prepare(binding.Inputs, values)
	if err != nil {
		return Result{}, fmt.Errorf("adapter: %s: %w", binding.DisplayName, err)
	}

	raw, err := a.client.Run(ctx, inference.Request{
		Model:  binding.ModelID,
		Input:  input,
		Stream: streams(binding.Output),
	})
	if err != nil {
		return Result{}, fmt.Errorf("adapter: invoke %s: %w", binding.ModelID, err)
	}

	result, err := a.Decode(ctx, binding.Output, raw)
	if err != nil {
		return Result{}, fmt.Errorf("adapter: %s: %w", binding.DisplayName, err)
	}
	return result, nil
}

// Prepare builds the remote request payload: array coercion, optional
// pruning, media encoding and removal of the force_rerun control.
func Prepare(inputs model.InputSet, values map[string]any) (map[string]any, error) {
	payload := maps.Clone(values)
	if payload == nil {
		payload = map[string]any{}
	}
	CoerceArrays(inputs, payload)
	PruneOptional(inputs, payload)
	if err := EncodeMedia(inputs, payload); err != nil {
		return nil, err
	}
	delete(payload, model.ForceRerunInput)
	return payload, nil
}

func streams(spec model.OutputSpec) bool {
	return !spec.Named() && spec.Type == model.TypeText
}
