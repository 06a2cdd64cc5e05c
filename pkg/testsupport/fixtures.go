package testsupport

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-nodegen/internal/schema/loader"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// LoadDocument reads a model document fixture using a file source. Testing
// helpers fail the test on error to keep contract tests concise.
func LoadDocument(t *testing.T, path string) schema.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T, allowing
// callers to wire fixtures in setup functions.
func LoadDocumentFromPath(path string) (schema.Document, error) {
	if path == "" {
		return schema.Document{}, errors.New("testsupport: document path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := schema.ParseDocument(schema.SourceFromFile(path), data)
	if err != nil {
		return schema.Document{}, fmt.Errorf("testsupport: parse document: %w", err)
	}
	return doc, nil
}

// MustParseDocument parses an inline document.
func MustParseDocument(t *testing.T, raw string) schema.Document {
	t.Helper()

	doc, err := schema.ParseDocument(schema.SourceFromFile("inline.json"), []byte(raw))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

// MapStore serves the given name to body pairs as a document directory.
func MapStore(files map[string]string) *loader.Store {
	mapfs := fstest.MapFS{}
	for name, body := range files {
		mapfs[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return loader.NewStore("", schema.NewLoaderOptions(schema.WithFileSystem(mapfs)))
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// PNG returns a width x height PNG filled with a single color.
func PNG(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
