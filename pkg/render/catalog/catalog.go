// Package catalog renders compiled bindings as a human readable node catalog.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-nodegen/pkg/model"
)

//go:embed templates/*.tpl
var embedded embed.FS

// Format selects the catalog template.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ErrUnknownFormat is returned for formats without a template.
var ErrUnknownFormat = errors.New("catalog: unknown format")

// ParseFormat maps user input (`md`, `markdown`, `html`) onto a Format.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "md", "markdown", "":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, raw)
	}
}

// ContentType returns the MIME type of rendered output.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

func (f Format) template() (string, error) {
	switch f {
	case FormatMarkdown:
		return "catalog.md.tpl", nil
	case FormatHTML:
		return "catalog.html.tpl", nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTitle sets the catalog heading.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(title) != "" {
			r.title = strings.TrimSpace(title)
		}
	}
}

// WithTemplates replaces the embedded templates. The filesystem must contain
// catalog.md.tpl and catalog.html.tpl at its root.
func WithTemplates(files fs.FS) Option {
	return func(r *Renderer) {
		if files != nil {
			r.files = files
		}
	}
}

// Renderer executes catalog templates. Parsed templates are cached.
type Renderer struct {
	title string
	files fs.FS

	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// New constructs a Renderer backed by the embedded templates unless
// WithTemplates is given.
func New(options ...Option) *Renderer {
	sub, _ := fs.Sub(embedded, "templates")
	r := &Renderer{
		title:     "Model nodes",
		files:     sub,
		templates: make(map[string]*pongo2.Template),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	r.set = pongo2.NewSet("nodegen-catalog", pongo2.NewFSLoader(r.files))
	r.set.Options.TrimBlocks = true
	r.set.Options.LStripBlocks = true
	registerFilters()
	return r
}

// Render writes the catalog for bindings in the given format.
func Render(w io.Writer, format Format, bindings []model.Binding) error {
	return New().Render(w, format, bindings)
}

// Render writes the catalog for bindings in the given format.
func (r *Renderer) Render(w io.Writer, format Format, bindings []model.Binding) error {
	name, err := format.template()
	if err != nil {
		return err
	}
	tmpl, err := r.template(name)
	if err != nil {
		return err
	}

	nodes := make([]nodeView, 0, len(bindings))
	for _, binding := range bindings {
		nodes = append(nodes, newNodeView(binding))
	}
	ctx := pongo2.Context{
		"title": r.title,
		"nodes": nodes,
		"count": len(nodes),
	}
	if err := tmpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("catalog: execute %s: %w", name, err)
	}
	return nil
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	if tmpl, ok := r.templates[name]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("catalog: load template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

type nodeView struct {
	NodeName    string
	DisplayName string
	ModelID     string
	Description string
	Inputs      []inputView
	Outputs     []model.OutputField
}

type inputView struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Default  string
	Notes    string
}

func newNodeView(binding model.Binding) nodeView {
	view := nodeView{
		NodeName:    binding.NodeName,
		DisplayName: binding.DisplayName,
		ModelID:     binding.ModelID,
		Description: binding.Description,
	}
	for _, input := range binding.Inputs.All() {
		view.Inputs = append(view.Inputs, inputView{
			Name:     input.Name,
			Label:    input.Label,
			Type:     string(input.Type),
			Required: input.Required,
			Default:  defaultText(input.Widget),
			Notes:    notes(input),
		})
	}
	if binding.Output.Named() {
		view.Outputs = binding.Output.Fields
	} else {
		view.Outputs = []model.OutputField{{Name: string(binding.Output.Type), Type: binding.Output.Type}}
	}
	return view
}

func defaultText(widget model.WidgetConfig) string {
	if !widget.HasDefault || widget.Default == nil {
		return ""
	}
	switch value := widget.Default.(type) {
	case string:
		return strconv.Quote(value)
	case float64:
		return formatFloat(value)
	default:
		return fmt.Sprint(value)
	}
}

func notes(input model.InputDescriptor) string {
	var parts []string
	if len(input.Enum) > 0 {
		choices := make([]string, 0, len(input.Enum))
		for _, choice := range input.Enum {
			choices = append(choices, fmt.Sprint(choice))
		}
		parts = append(parts, "one of "+strings.Join(choices, ", "))
	}
	switch {
	case input.Widget.Min != nil && input.Widget.Max != nil:
		parts = append(parts, formatFloat(*input.Widget.Min)+" to "+formatFloat(*input.Widget.Max))
	case input.Widget.Min != nil:
		parts = append(parts, "min "+formatFloat(*input.Widget.Min))
	case input.Widget.Max != nil:
		parts = append(parts, "max "+formatFloat(*input.Widget.Max))
	}
	if input.Widget.Step != nil {
		parts = append(parts, "step "+formatFloat(*input.Widget.Step))
	}
	if input.Widget.Multiline {
		parts = append(parts, "multiline")
	}
	if input.IsArray() {
		parts = append(parts, "one item per line")
	}
	if input.Description != "" {
		parts = append(parts, input.Description)
	}
	return strings.Join(parts, "; ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var registerOnce sync.Once

func registerFilters() {
	registerOnce.Do(func() {
		if !pongo2.FilterExists("mdcell") {
			_ = pongo2.RegisterFilter("mdcell", filterMarkdownCell)
		}
	})
}

// filterMarkdownCell keeps a value on one table row.
func filterMarkdownCell(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	text := strings.TrimSpace(in.String())
	text = strings.ReplaceAll(text, "|", `\|`)
	text = strings.Join(strings.Fields(text), " ")
	return pongo2.AsValue(text), nil
}
