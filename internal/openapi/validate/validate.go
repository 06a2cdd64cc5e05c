// Package validate produces diagnostics for the OpenAPI schema embedded in a
// model document. Diagnostics never block compilation; the binding builder
// degrades gracefully on the same inputs.
package validate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-nodegen/pkg/schema"
)

// Severity grades a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Path, d.Message)
}

// Report collects the diagnostics of one document.
type Report struct {
	Model       string       `json:"model"`
	Location    string       `json:"location,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// OK reports whether the document produced no error diagnostics.
func (r Report) OK() bool {
	for _, diagnostic := range r.Diagnostics {
		if diagnostic.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *Report) add(severity Severity, path, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: severity,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Options controls validation strictness.
type Options struct {
	// SkipExamples disables checking default_example against the schemas.
	SkipExamples bool
}

// Validator runs kin-openapi validation plus model-document checks.
type Validator struct {
	options Options
}

// New constructs a Validator.
func New(options Options) *Validator {
	return &Validator{options: options}
}

// Document validates doc. The returned error is reserved for cancellation;
// schema problems are reported as diagnostics.
func (v *Validator) Document(ctx context.Context, doc schema.Document) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	report := Report{Model: doc.DisplayName(), Location: doc.Location()}
	if doc.OpenAPI == nil {
		report.add(SeverityError, "latest_version.openapi_schema", "document has no OpenAPI schema")
		return report, nil
	}

	raw, err := doc.OpenAPI.MarshalJSON()
	if err != nil {
		return Report{}, fmt.Errorf("openapi validate: encode schema: %w", err)
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		report.add(SeverityError, "latest_version.openapi_schema", "load: %v", err)
		return report, nil
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Report{}, err
		}
		report.add(SeverityError, "latest_version.openapi_schema", "%v", err)
	}

	schemas := doc.Schemas()
	if !schemas.Has("Input") {
		report.add(SeverityWarning, "components.schemas.Input", "missing; the node will only expose force_rerun")
	} else {
		checkInput(&report, doc)
		if !v.options.SkipExamples && doc.ExampleInput != nil {
			visitExample(&report, spec.Components.Schemas["Input"], doc.ExampleInput, "default_example.input")
		}
	}
	if !schemas.Has("Output") {
		report.add(SeverityWarning, "components.schemas.Output", "missing; output falls back to TEXT")
	} else if !v.options.SkipExamples && doc.HasExampleOutput && doc.ExampleOutput != nil {
		visitExample(&report, spec.Components.Schemas["Output"], doc.ExampleOutput, "default_example.output")
	}
	return report, nil
}

func checkInput(report *Report, doc schema.Document) {
	input, _ := doc.InputSchema()
	properties, ok := input.Object("properties")
	if !ok {
		report.add(SeverityWarning, "components.schemas.Input.properties", "no properties declared")
		return
	}
	for _, name := range input.Strings("required") {
		if !properties.Has(name) {
			report.add(SeverityWarning, "components.schemas.Input.required", "%q is required but not declared", name)
		}
	}
	for _, name := range properties.Keys() {
		node, ok := properties.Object(name)
		if !ok {
			continue
		}
		path := "components.schemas.Input.properties." + name
		if branches, ok := node.Array("allOf"); ok && len(branches) > 1 {
			report.add(SeverityWarning, path, "allOf has %d branches; only the first is used", len(branches))
		}
		if ref := node.String("$ref"); ref != "" && schema.Resolve(node, doc.OpenAPI) == node {
			report.add(SeverityError, path, "unresolvable $ref %q", ref)
		}
	}

	var unknown []string
	for _, name := range doc.ExampleInput.Keys() {
		if !properties.Has(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		report.add(SeverityWarning, "default_example.input."+name, "example sets an undeclared input")
	}
}

func visitExample(report *Report, ref *openapi3.SchemaRef, example any, path string) {
	if ref == nil || ref.Value == nil {
		return
	}
	plain, err := plainJSON(example)
	if err != nil {
		report.add(SeverityWarning, path, "cannot re-encode example: %v", err)
		return
	}
	if err := ref.Value.VisitJSON(plain); err != nil {
		report.add(SeverityWarning, path, "example does not match schema: %v", err)
	}
}

// plainJSON round-trips value so kin-openapi sees map[string]any and float64
// rather than ordered objects and int64.
func plainJSON(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
