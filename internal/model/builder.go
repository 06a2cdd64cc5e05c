package model

import (
	"strings"

	"github.com/goliatone/go-nodegen/pkg/schema"
)

// Builder compiles model documents into bindings.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	if options.Sanitizer != nil {
		opts.Sanitizer = options.Sanitizer
	}
	if options.NodePrefix != "" {
		opts.NodePrefix = options.NodePrefix
	}
	return &Builder{opts: opts}
}

// Build derives the immutable binding for doc. Malformed schema fragments
// degrade to fallbacks; only a document without identity is rejected.
func (b *Builder) Build(doc schema.Document) (Binding, error) {
	if err := validateDocument(doc); err != nil {
		return Binding{}, err
	}
	return Binding{
		ModelID:     doc.ModelID(),
		DisplayName: doc.DisplayName(),
		NodeName:    strings.TrimSpace(b.opts.NodePrefix + " " + doc.DisplayName()),
		Description: b.opts.Sanitizer(doc.Description),
		Inputs:      b.BuildInputs(doc),
		Output:      ResolveOutput(doc),
	}, nil
}
