// Package importer downloads model documents from the models API and stores
// them as the JSON files a registry store reads.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/goliatone/go-nodegen/internal/httpclient"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// DefaultBaseURL is the public models API.
const DefaultBaseURL = "https://api.replicate.com/v1"

const indent = "    "

// Option configures an Importer.
type Option func(*Importer)

// WithBaseURL points the importer at another API root.
func WithBaseURL(base string) Option {
	return func(i *Importer) {
		if base != "" {
			i.baseURL = base
		}
	}
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(i *Importer) { i.token = token }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Importer) {
		if client != nil {
			i.http = client
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Importer fetches `owner/name` documents into a directory.
type Importer struct {
	dir     string
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// New returns an Importer writing into dir.
func New(dir string, options ...Option) *Importer {
	imp := &Importer{
		dir:     dir,
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(imp)
		}
	}
	if imp.http == nil {
		imp.http = httpclient.New()
	}
	return imp
}

// Imported records one written document.
type Imported struct {
	Model string
	Path  string
}

// Import fetches every model and writes `<owner>_<name>.json` with run_count
// reset to zero so regenerated files only change when the schema does. A
// failing model does not stop the others; all failures are joined into the
// returned error.
func (i *Importer) Import(ctx context.Context, models []string) ([]Imported, error) {
	if strings.TrimSpace(i.dir) == "" {
		return nil, errors.New("importer: output directory is required")
	}
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return nil, fmt.Errorf("importer: create %s: %w", i.dir, err)
	}

	var (
		imported []Imported
		errs     []error
	)
	for _, id := range models {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		path, err := i.importOne(ctx, id)
		if err != nil {
			i.logger.Warn("importer: model failed", "model", id, "error", err)
			errs = append(errs, err)
			continue
		}
		i.logger.Info("importer: wrote model document", "model", id, "path", path)
		imported = append(imported, Imported{Model: id, Path: path})
	}
	return imported, errors.Join(errs...)
}

func (i *Importer) importOne(ctx context.Context, id string) (string, error) {
	owner, name, err := SplitModel(id)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(i.baseURL, "/") + "/models/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("importer: %s: %w", id, err)
	}
	req.Header.Set("Accept", "application/json")
	if i.token != "" {
		req.Header.Set("Authorization", "Bearer "+i.token)
	}

	resp, err := i.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("importer: %s: %w", id, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("importer: %s: unexpected status %s: %s", id, resp.Status, strings.TrimSpace(string(snippet)))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("importer: %s: read body: %w", id, err)
	}

	path := filepath.Join(i.dir, FileName(owner, name))
	if err := writeNormalized(path, raw); err != nil {
		return "", fmt.Errorf("importer: %s: %w", id, err)
	}
	return path, nil
}

// SplitModel parses `owner/name`.
func SplitModel(id string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(id), "/")
	if !ok || owner == "" || name == "" || strings.ContainsAny(name, "/:") {
		return "", "", fmt.Errorf("importer: invalid model %q, want owner/name", id)
	}
	return owner, name, nil
}

// FileName is the document file name for a model.
func FileName(owner, name string) string {
	return owner + "_" + name + ".json"
}

// NormalizeDir resets run_count in every *.json document of dir. Invalid files
// are reported and left untouched.
func NormalizeDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("importer: %w", err)
	}
	var errs []error
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("importer: %w", err))
			continue
		}
		if err := writeNormalized(path, raw); err != nil {
			errs = append(errs, fmt.Errorf("importer: %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// writeNormalized decodes raw preserving key order, zeroes run_count and
// atomically replaces path with the indented result.
func writeNormalized(path string, raw []byte) error {
	doc, err := schema.DecodeObject(raw)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	doc.Set("run_count", int64(0))

	compact, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", indent); err != nil {
		return err
	}
	out.WriteByte('\n')

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, out.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
