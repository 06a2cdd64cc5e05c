package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"time"

	pkgschema "github.com/goliatone/go-nodegen/pkg/schema"
)

// Loader implements pkgschema.Loader over disk paths, an fs.FS and HTTP.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

// Ensure the implementation satisfies the public interface.
var _ pkgschema.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options pkgschema.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
	}
}

// Load fetches a document from the provided source and parses it.
func (l *Loader) Load(ctx context.Context, src pkgschema.Source) (pkgschema.Document, error) {
	if src == nil {
		return pkgschema.Document{}, errors.New("schema loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case pkgschema.SourceKindFile:
		data, err = readDisk(ctx, src.Location())
	case pkgschema.SourceKindFS:
		data, err = readEntry(ctx, l.fs, src.Location())
	case pkgschema.SourceKindURL:
		if !l.allowHTTP {
			return pkgschema.Document{}, ErrHTTPDisabled
		}
		data, err = fetchDocument(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return pkgschema.Document{}, err
	}

	return pkgschema.ParseDocument(src, data)
}

// Store lists the documents of one directory (or fs.FS root) and loads them.
type Store struct {
	*Loader
	pattern string
}

var _ pkgschema.Store = (*Store)(nil)

// NewStore returns a Store over dir. When options carry a FileSystem it is
// used as is and dir is ignored.
func NewStore(dir string, options pkgschema.LoaderOptions) *Store {
	if options.FileSystem == nil && dir != "" {
		options.FileSystem = os.DirFS(dir)
	}
	pattern := options.Pattern
	if pattern == "" {
		pattern = "*.json"
	}
	return &Store{Loader: New(options), pattern: pattern}
}

// List returns one fs source per matching document, sorted by name.
func (s *Store) List(ctx context.Context) ([]pkgschema.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fs == nil {
		return nil, errors.New("schema loader: filesystem is not configured")
	}
	names, err := fs.Glob(s.fs, s.pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	sources := make([]pkgschema.Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, pkgschema.SourceFromFS(name))
	}
	return sources, nil
}
