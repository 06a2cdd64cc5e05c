package schema

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source names the place a model document is read from. Loaders switch on
// Kind; Location is the path, fs entry name or URL.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type location struct {
	kind  SourceKind
	value string
}

func (l location) Kind() SourceKind { return l.kind }
func (l location) Location() string { return l.value }
func (l location) String() string   { return string(l.kind) + ":" + l.value }

// SourceFromFile points at a document on disk. The path is cleaned so the same
// file always yields the same cache key.
func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, value: filepath.Clean(path)}
}

// SourceFromFS points at an entry of the loader's fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, value: name}
}

// ParseSourceURL validates raw as an absolute http(s) URL.
func ParseSourceURL(raw string) (Source, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("schema: empty URL source")
	}
	parsed, err := url.ParseRequestURI(trimmed)
	if err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("schema: unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("schema: URL %q has no host", raw)
	}
	return location{kind: SourceKindURL, value: trimmed}, nil
}

// SourceFromURL is ParseSourceURL for URLs known at build time; it panics on
// an invalid URL.
func SourceFromURL(raw string) Source {
	src, err := ParseSourceURL(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// SourceKey returns the cache key used for a source: kind plus location.
func SourceKey(src Source) string {
	if src == nil {
		return ""
	}
	return string(src.Kind()) + ":" + src.Location()
}
