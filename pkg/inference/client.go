// Package inference defines the contract between bindings and the service that
// runs remote models, plus the error taxonomy shared by client
// implementations.
package inference

import "context"

// Request is one model invocation.
type Request struct {
	// Model is `owner/name` or `owner/name:version`.
	Model string
	Input map[string]any
	// Stream asks for incremental text output when the service offers it.
	// Implementations still return the complete result.
	Stream bool
}

// Client runs a model and returns its raw JSON-shaped output: a string, a
// list of fragments or URLs, or a map of named values.
type Client interface {
	Run(ctx context.Context, req Request) (any, error)
}

// ClientFunc adapts a function into a Client.
type ClientFunc func(ctx context.Context, req Request) (any, error)

// Run calls the underlying function.
func (fn ClientFunc) Run(ctx context.Context, req Request) (any, error) {
	return fn(ctx, req)
}
