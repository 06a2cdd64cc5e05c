package tui

import (
	"context"
	"io"
	"log/slog"

	"github.com/goliatone/go-nodegen/pkg/model"
)

// MediaLoader turns a local path typed at the prompt into a host media value.
type MediaLoader func(ctx context.Context, kind model.SemanticType, path string) (any, error)

// Option configures the Prompter.
type Option func(*Prompter)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithMediaLoader overrides how IMAGE and AUDIO paths are loaded.
func WithMediaLoader(loader MediaLoader) Option {
	return func(p *Prompter) {
		if loader != nil {
			p.loadMedia = loader
		}
	}
}

// WithPrefill seeds prompt defaults, taking precedence over schema defaults.
func WithPrefill(values map[string]any) Option {
	return func(p *Prompter) {
		p.prefill = values
	}
}

// WithOutput sets where informational messages of the default driver go.
func WithOutput(out io.Writer) Option {
	return func(p *Prompter) {
		p.out = out
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prompter) {
		if logger != nil {
			p.logger = logger
		}
	}
}
