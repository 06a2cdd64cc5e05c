// Package nodegen wires the schema store, binding builder, inference client
// and execution adapter into a ready registry.
package nodegen

import (
	"log/slog"

	internalloader "github.com/goliatone/go-nodegen/internal/schema/loader"
	"github.com/goliatone/go-nodegen/pkg/adapter"
	"github.com/goliatone/go-nodegen/pkg/config"
	"github.com/goliatone/go-nodegen/pkg/inference/replicate"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/registry"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// NewLoader constructs a document loader while keeping the concrete type
// hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return internalloader.New(schema.NewLoaderOptions(options...))
}

// NewStore returns a store listing the documents of dir.
func NewStore(dir string, options ...schema.LoaderOption) schema.Store {
	return internalloader.NewStore(dir, schema.NewLoaderOptions(options...))
}

// NewClient returns a Replicate client configured from cfg.
func NewClient(cfg config.Replicate, logger *slog.Logger) *replicate.Client {
	return replicate.New(
		replicate.WithBaseURL(cfg.BaseURL),
		replicate.WithToken(cfg.Token),
		replicate.WithPollInterval(cfg.PollInterval),
		replicate.WithWait(cfg.Wait),
		replicate.WithLogger(logger),
	)
}

// NewRegistry composes a registry over cfg.Schemas.Dir whose bound models
// invoke the Replicate API. Extra options are applied last.
func NewRegistry(cfg config.Config, logger *slog.Logger, options ...registry.Option) *registry.Registry {
	if logger == nil {
		logger = slog.Default()
	}
	store := NewStore(cfg.Schemas.Dir, schema.WithPattern(cfg.Schemas.Pattern))
	invoker := adapter.New(NewClient(cfg.Replicate, logger), adapter.WithLogger(logger))

	opts := []registry.Option{
		registry.WithBuilder(model.NewBuilder(model.WithNodePrefix(cfg.Nodes.Prefix))),
		registry.WithInvoker(invoker),
		registry.WithLogger(logger),
		registry.WithValidation(cfg.Schemas.Validate),
	}
	return registry.New(store, append(opts, options...)...)
}
