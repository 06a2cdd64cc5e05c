package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// maxDocumentBytes caps a remote model document. Real documents stay well
// under a megabyte; anything past the cap is a misconfigured URL.
const maxDocumentBytes = 8 << 20

var (
	// ErrDocumentNotFound reports a source with nothing behind it: a missing
	// file or fs entry, or an HTTP 404/410.
	ErrDocumentNotFound = errors.New("schema loader: document not found")
	// ErrHTTPDisabled is returned for URL sources when no HTTP client is configured.
	ErrHTTPDisabled = errors.New("schema loader: http support disabled")
	// ErrDocumentTooLarge is returned when a remote document exceeds maxDocumentBytes.
	ErrDocumentTooLarge = errors.New("schema loader: document too large")
)

// readDisk reads a model document from a path on disk.
func readDisk(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("schema loader: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	return data, notFound(path, err)
}

// readEntry reads name out of fsys.
func readEntry(ctx context.Context, fsys fs.FS, name string) ([]byte, error) {
	if fsys == nil {
		return nil, errors.New("schema loader: filesystem is not configured")
	}
	if name == "" {
		return nil, errors.New("schema loader: fs path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	return data, notFound(name, err)
}

func notFound(location string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, location)
	default:
		return fmt.Errorf("schema loader: read %s: %w", location, err)
	}
}

// fetchDocument GETs a model document. timeout bounds the whole exchange
// including the body read.
func fetchDocument(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	if client == nil {
		return nil, ErrHTTPDisabled
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("schema loader: build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema loader: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s (%s)", ErrDocumentNotFound, url, resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("schema loader: fetch %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("schema loader: read %s: %w", url, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: %s", ErrDocumentTooLarge, url)
	}
	return data, nil
}
