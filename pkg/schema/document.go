package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Document is a parsed model document. It is read-only once constructed; the
// accessors return views into the decoded tree which callers must not mutate.
type Document struct {
	source Source
	root   *Object

	Owner       string
	Name        string
	VersionID   string
	Description string
	RunCount    int64

	// OpenAPI holds latest_version.openapi_schema. Nil when the document has
	// no version schema.
	OpenAPI *Object

	// ExampleInput holds default_example.input; nil when absent.
	ExampleInput *Object

	// ExampleOutput holds default_example.output. HasExampleOutput
	// distinguishes an absent output from an explicit null.
	ExampleOutput    any
	HasExampleOutput bool
}

// ParseDocument decodes raw into a Document. Only a non-object payload or a
// missing owner/name is an error; every other missing piece degrades to an
// empty value.
func ParseDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	root, err := DecodeObject(raw)
	if err != nil {
		return Document{}, fmt.Errorf("schema: parse %s: %w", src.Location(), err)
	}
	return NewDocument(src, root)
}

// NewDocument wraps an already decoded tree.
func NewDocument(src Source, root *Object) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if root == nil {
		return Document{}, errors.New("schema: document root is nil")
	}
	doc := Document{
		source:      src,
		root:        root,
		Owner:       strings.TrimSpace(root.String("owner")),
		Name:        strings.TrimSpace(root.String("name")),
		Description: root.String("description"),
	}
	if doc.Owner == "" || doc.Name == "" {
		return Document{}, fmt.Errorf("schema: %s: owner and name are required", src.Location())
	}
	if count, ok := root.Get("run_count"); ok {
		if integer, ok := count.(int64); ok {
			doc.RunCount = integer
		}
	}
	if version, ok := root.Object("latest_version"); ok {
		doc.VersionID = strings.TrimSpace(version.String("id"))
		if openapi, ok := version.Object("openapi_schema"); ok {
			doc.OpenAPI = openapi
		}
	}
	if example, ok := root.Object("default_example"); ok {
		if input, ok := example.Object("input"); ok {
			doc.ExampleInput = input
		}
		doc.ExampleOutput, doc.HasExampleOutput = example.Get("output")
	}
	return doc, nil
}

// MustParseDocument panics if the document cannot be parsed. Useful for tests.
func MustParseDocument(src Source, raw []byte) Document {
	doc, err := ParseDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Root returns the full decoded document.
func (d Document) Root() *Object {
	return d.root
}

// ModelID returns the remote identifier `owner/name:version`, or `owner/name`
// when the document carries no version.
func (d Document) ModelID() string {
	if d.VersionID == "" {
		return d.DisplayName()
	}
	return d.DisplayName() + ":" + d.VersionID
}

// DisplayName returns `owner/name`.
func (d Document) DisplayName() string {
	return d.Owner + "/" + d.Name
}

// Schemas returns components.schemas of the embedded OpenAPI document.
func (d Document) Schemas() *Object {
	components, ok := d.OpenAPI.Object("components")
	if !ok {
		return nil
	}
	schemas, _ := components.Object("schemas")
	return schemas
}

// InputSchema returns the resolved Input schema.
func (d Document) InputSchema() (*Object, bool) {
	input, ok := d.Schemas().Object("Input")
	if !ok {
		return nil, false
	}
	return Resolve(input, d.OpenAPI), true
}

// OutputSchema returns the resolved Output schema.
func (d Document) OutputSchema() (*Object, bool) {
	output, ok := d.Schemas().Object("Output")
	if !ok {
		return nil, false
	}
	return Resolve(output, d.OpenAPI), true
}

// ExampleInputValue returns the default example value for an input field.
func (d Document) ExampleInputValue(name string) (any, bool) {
	return d.ExampleInput.Get(name)
}
