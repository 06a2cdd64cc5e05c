// Package registry compiles model documents into bound models on demand and
// caches them for the lifetime of the process.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/goliatone/go-nodegen/internal/openapi/validate"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

var (
	errNoInvoker = errors.New("registry: no invoker configured")
	// ErrNotFound reports a Lookup miss.
	ErrNotFound = errors.New("registry: model not found")
)

// Option configures a Registry.
type Option func(*Registry)

// WithBuilder overrides the binding builder.
func WithBuilder(builder model.Builder) Option {
	return func(r *Registry) {
		if builder != nil {
			r.builder = builder
		}
	}
}

// WithInvoker sets what bound models run through, usually an
// *adapter.Adapter.
func WithInvoker(invoker Invoker) Option {
	return func(r *Registry) { r.invoker = invoker }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithValidation runs OpenAPI diagnostics on every document before it is
// compiled and logs them. Diagnostics never prevent compilation.
func WithValidation(enabled bool) Option {
	return func(r *Registry) {
		if enabled {
			r.validator = validate.New(validate.Options{})
		} else {
			r.validator = nil
		}
	}
}

type entry struct {
	once  sync.Once
	model *BoundModel
	err   error
}

// Registry maps document sources to bound models. Each source is compiled at
// most once, even under concurrent first use; later calls share the cached
// result, including a cached failure.
type Registry struct {
	store     schema.Store
	builder   model.Builder
	invoker   Invoker
	validator *validate.Validator
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	byName  map[string]*BoundModel
}

// New constructs a Registry over store.
func New(store schema.Store, options ...Option) *Registry {
	r := &Registry{
		store:   store,
		builder: model.NewBuilder(),
		logger:  slog.Default(),
		entries: make(map[string]*entry),
		byName:  make(map[string]*BoundModel),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// GetOrBuild returns the bound model for src, compiling it on first use. A
// build aborted by ctx is not cached.
func (r *Registry) GetOrBuild(ctx context.Context, src schema.Source) (*BoundModel, error) {
	if src == nil {
		return nil, errors.New("registry: source is required")
	}
	key := schema.SourceKey(src)

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.model, e.err = r.build(ctx, src)
	})
	if e.err != nil && (errors.Is(e.err, context.Canceled) || errors.Is(e.err, context.DeadlineExceeded)) {
		r.mu.Lock()
		if r.entries[key] == e {
			delete(r.entries, key)
		}
		r.mu.Unlock()
	}
	return e.model, e.err
}

func (r *Registry) build(ctx context.Context, src schema.Source) (*BoundModel, error) {
	if r.store == nil {
		return nil, errors.New("registry: store is required")
	}
	doc, err := r.store.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("registry: load %s: %w", src.Location(), err)
	}
	if r.validator != nil {
		r.logDiagnostics(ctx, doc)
	}
	binding, err := r.builder.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("registry: build %s: %w", src.Location(), err)
	}

	bound := newBoundModel(binding, src, r.invoker)
	r.mu.Lock()
	if existing, ok := r.byName[binding.NodeName]; ok && schema.SourceKey(existing.source) != schema.SourceKey(src) {
		r.logger.Warn("registry: duplicate node name, keeping first",
			"node", binding.NodeName,
			"kept", existing.source.Location(),
			"skipped", src.Location(),
		)
	} else {
		r.byName[binding.NodeName] = bound
	}
	r.mu.Unlock()

	r.logger.Debug("registry: compiled model",
		"node", binding.NodeName,
		"inputs", len(binding.Inputs.Required)+len(binding.Inputs.Optional),
		"outputs", binding.Output.Names(),
	)
	return bound, nil
}

func (r *Registry) logDiagnostics(ctx context.Context, doc schema.Document) {
	report, err := r.validator.Document(ctx, doc)
	if err != nil {
		r.logger.Warn("registry: validation aborted", "model", doc.DisplayName(), "error", err)
		return
	}
	for _, diagnostic := range report.Diagnostics {
		level := slog.LevelInfo
		if diagnostic.Severity == validate.SeverityError {
			level = slog.LevelWarn
		}
		r.logger.Log(ctx, level, "registry: schema diagnostic",
			"model", report.Model,
			"path", diagnostic.Path,
			"message", diagnostic.Message,
		)
	}
}

// Load enumerates the store and compiles every document. Documents that fail
// are logged and skipped; only a failure to enumerate is returned. The result
// is sorted by node name.
func (r *Registry) Load(ctx context.Context) ([]*BoundModel, error) {
	if r.store == nil {
		return nil, errors.New("registry: store is required")
	}
	sources, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: list sources: %w", err)
	}
	models := make([]*BoundModel, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bound, err := r.GetOrBuild(ctx, src)
		if err != nil {
			r.logger.Warn("registry: skipping model document", "source", src.Location(), "error", err)
			continue
		}
		models = append(models, bound)
	}
	sortModels(models)
	return models, nil
}

// Lookup finds a compiled model by node name, display name (`owner/name`) or
// model id.
func (r *Registry) Lookup(name string) (*BoundModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bound, ok := r.byName[name]; ok {
		return bound, nil
	}
	for _, bound := range r.byName {
		if bound.binding.DisplayName == name || bound.binding.ModelID == name {
			return bound, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Models returns every model compiled so far, sorted by node name.
func (r *Registry) Models() []*BoundModel {
	r.mu.Lock()
	models := make([]*BoundModel, 0, len(r.byName))
	for _, bound := range r.byName {
		models = append(models, bound)
	}
	r.mu.Unlock()
	sortModels(models)
	return models
}

func sortModels(models []*BoundModel) {
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].binding.NodeName < models[j].binding.NodeName
	})
}
