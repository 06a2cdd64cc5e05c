package model

import (
	"fmt"

	"github.com/goliatone/go-nodegen/internal/model"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// Builder compiles model documents into bindings.
type Builder interface {
	Build(doc schema.Document) (Binding, error)
}

// BuilderOption configures the builder behaviour.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	labeler    func(string) string
	sanitizer  func(string) string
	nodePrefix string
	decorators []Decorator
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) BuilderOption {
	return func(opts *builderOptions) {
		opts.labeler = labeler
	}
}

// WithDescriptionSanitizer overrides how model and input descriptions are
// cleaned.
func WithDescriptionSanitizer(sanitizer func(string) string) BuilderOption {
	return func(opts *builderOptions) {
		opts.sanitizer = sanitizer
	}
}

// WithNodePrefix changes the prefix of generated node names.
func WithNodePrefix(prefix string) BuilderOption {
	return func(opts *builderOptions) {
		opts.nodePrefix = prefix
	}
}

// WithDecorators registers decorators applied, in order, after each build.
func WithDecorators(decorators ...Decorator) BuilderOption {
	return func(opts *builderOptions) {
		opts.decorators = append(opts.decorators, decorators...)
	}
}

// NewBuilder returns a Builder backed by the internal implementation.
func NewBuilder(options ...BuilderOption) Builder {
	cfg := builderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	internal := model.New(model.Options{
		Labeler:    cfg.labeler,
		Sanitizer:  cfg.sanitizer,
		NodePrefix: cfg.nodePrefix,
	})
	if len(cfg.decorators) == 0 {
		return internal
	}
	return &decoratedBuilder{next: internal, decorators: cfg.decorators}
}

type decoratedBuilder struct {
	next       Builder
	decorators []Decorator
}

func (b *decoratedBuilder) Build(doc schema.Document) (Binding, error) {
	binding, err := b.next.Build(doc)
	if err != nil {
		return Binding{}, err
	}
	for _, decorator := range b.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&binding); err != nil {
			return Binding{}, fmt.Errorf("model builder: decorate %s: %w", binding.DisplayName, err)
		}
	}
	return binding, nil
}

// InferType exposes the ordered type inference rules.
func InferType(prop schema.Property, example Evidence) SemanticType {
	return model.InferType(prop, example)
}

// ResolveOutput exposes the output resolver.
func ResolveOutput(doc schema.Document) OutputSpec {
	return model.ResolveOutput(doc)
}

// DefaultLabeler is the label function used when none is configured.
func DefaultLabeler(name string) string {
	return model.DefaultLabeler(name)
}
