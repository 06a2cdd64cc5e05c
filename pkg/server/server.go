// Package server exposes compiled nodes over HTTP: listing, inspection and
// invocation with JSON payloads. Media results travel as data URIs.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-nodegen/pkg/adapter"
	"github.com/goliatone/go-nodegen/pkg/inference"
	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/registry"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

const maxRunBody = 64 << 20

// Catalog is the part of the registry the handler needs.
type Catalog interface {
	Models() []*registry.BoundModel
	Lookup(name string) (*registry.BoundModel, error)
}

var _ Catalog = (*registry.Registry)(nil)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Handler serves the node API.
type Handler struct {
	catalog Catalog
	logger  *slog.Logger
}

// New constructs a Handler over catalog.
func New(catalog Catalog, options ...Option) *Handler {
	h := &Handler{catalog: catalog, logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register mounts the routes under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/nodes", h.ListNodes)
		api.GET("/nodes/:owner/:name", h.GetNode)
		api.POST("/nodes/:owner/:name/run", h.RunNode)
	}
}

// Engine returns a gin engine with recovery, request ids, access logging and
// the node routes.
func (h *Handler) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog(h.logger))
	h.Register(engine)
	engine.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
	return engine
}

// NodeSummary is one entry of the node listing.
type NodeSummary struct {
	Name        string               `json:"name"`
	Model       string               `json:"model"`
	DisplayName string               `json:"display_name"`
	Description string               `json:"description,omitempty"`
	ReturnTypes []model.SemanticType `json:"return_types"`
	ReturnNames []string             `json:"return_names"`
}

// ListNodes returns every compiled node.
func (h *Handler) ListNodes(c *gin.Context) {
	models := h.catalog.Models()
	out := make([]NodeSummary, 0, len(models))
	for _, bound := range models {
		binding := bound.Binding()
		out = append(out, NodeSummary{
			Name:        bound.Name(),
			Model:       binding.ModelID,
			DisplayName: binding.DisplayName,
			Description: binding.Description,
			ReturnTypes: bound.ReturnTypes(),
			ReturnNames: bound.ReturnNames(),
		})
	}
	success(c, http.StatusOK, out)
}

// GetNode returns the full binding of one node.
func (h *Handler) GetNode(c *gin.Context) {
	bound, ok := h.lookup(c)
	if !ok {
		return
	}
	success(c, http.StatusOK, bound.Binding())
}

// RunResult is the payload of a successful run.
type RunResult struct {
	Node        string         `json:"node"`
	ChangeToken uint64         `json:"change_token"`
	Outputs     map[string]any `json:"outputs"`
}

// RunNode invokes a node with `{"inputs": {...}}`.
func (h *Handler) RunNode(c *gin.Context) {
	bound, ok := h.lookup(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRunBody))
	if err != nil {
		fail(c, http.StatusBadRequest, "read request body")
		return
	}
	values, err := decodeInputs(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	token := bound.ChangeToken(values)
	result, err := bound.Invoke(c.Request.Context(), values)
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("server: run failed",
			"node", bound.Name(),
			"status", status,
			"error", err,
			"request_id", c.GetString(requestIDKey),
		)
		fail(c, status, err.Error())
		return
	}

	outputs, err := encodeOutputs(bound.ReturnNames(), result.Values)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	success(c, http.StatusOK, RunResult{Node: bound.Name(), ChangeToken: token, Outputs: outputs})
}

func (h *Handler) lookup(c *gin.Context) (*registry.BoundModel, bool) {
	id := c.Param("owner") + "/" + c.Param("name")
	bound, err := h.catalog.Lookup(id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			fail(c, http.StatusNotFound, err.Error())
			return nil, false
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return bound, true
}

// decodeInputs keeps integers as int64 so they reach the remote service
// unchanged.
func decodeInputs(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	body, err := schema.DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if !body.Has("inputs") {
		return map[string]any{}, nil
	}
	inputs, ok := body.Object("inputs")
	if !ok {
		return nil, errors.New("invalid request body: inputs must be an object")
	}
	return inputs.ToMap(), nil
}

// encodeOutputs maps result values onto their names, turning host media back
// into data URIs.
func encodeOutputs(names []string, values []any) (map[string]any, error) {
	out := make(map[string]any, len(names))
	for idx, name := range names {
		var value any
		if idx < len(values) {
			value = values[idx]
		}
		encoded, err := encodeOutput(value)
		if err != nil {
			return nil, fmt.Errorf("encode output %q: %w", name, err)
		}
		out[name] = encoded
	}
	return out, nil
}

func encodeOutput(value any) (any, error) {
	switch typed := value.(type) {
	case *media.ImageBatch:
		if typed.Empty() {
			return nil, nil
		}
		return media.ImageDataURIs(typed)
	case *media.Audio:
		if typed.Empty() {
			return nil, nil
		}
		return media.AudioDataURI(typed)
	case []*media.Audio:
		uris := make([]string, 0, len(typed))
		for _, clip := range typed {
			uri, err := media.AudioDataURI(clip)
			if err != nil {
				return nil, err
			}
			uris = append(uris, uri)
		}
		return uris, nil
	default:
		return value, nil
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, adapter.ErrShapeMismatch), errors.Is(err, adapter.ErrUnsupportedValue):
		return http.StatusBadRequest
	case inference.IsRateLimited(err):
		return http.StatusTooManyRequests
	case inference.IsTimeout(err):
		return http.StatusGatewayTimeout
	case inference.IsBadRequest(err), errors.Is(err, inference.ErrPredictionFailed), inference.IsTransient(err):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ListenAndServe runs handler on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}
