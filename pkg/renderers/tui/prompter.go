// Package tui collects node input values interactively from a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
)

// Prompter asks for every input of a binding, required inputs first.
type Prompter struct {
	driver    PromptDriver
	loadMedia MediaLoader
	prefill   map[string]any
	out       io.Writer
	logger    *slog.Logger
}

// New constructs a Prompter backed by survey unless WithPromptDriver is given.
func New(options ...Option) *Prompter {
	p := &Prompter{
		loadMedia: loadMediaFile,
		logger:    slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.driver == nil {
		p.driver = newSurveyDriver(p.out)
	}
	return p
}

// Collect returns the value map for binding. Optional inputs left empty are
// omitted so the adapter falls back to remote defaults. The force_rerun
// control input is never asked for.
func (p *Prompter) Collect(ctx context.Context, binding model.Binding) (map[string]any, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	values := make(map[string]any)
	for _, input := range binding.Inputs.All() {
		if input.Name == model.ForceRerunInput {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, ok, err := p.ask(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("tui: %s: %w", input.Name, err)
		}
		if ok {
			values[input.Name] = value
		}
	}
	p.logger.Debug("tui: collected inputs", "node", binding.NodeName, "count", len(values))
	return values, nil
}

func (p *Prompter) ask(ctx context.Context, input model.InputDescriptor) (any, bool, error) {
	switch input.Type {
	case model.TypeBoolean:
		answer, err := p.driver.Confirm(ctx, ConfirmConfig{
			Message: label(input),
			Default: p.defaultBool(input),
			Help:    input.Description,
		})
		return answer, err == nil, err
	case model.TypeEnum:
		return p.askEnum(ctx, input)
	case model.TypeInteger:
		return p.askParsed(ctx, input, func(raw string) (any, error) {
			value, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, errors.New("expected a whole number")
			}
			return value, checkRange(input.Widget, float64(value))
		})
	case model.TypeFloat:
		return p.askParsed(ctx, input, func(raw string) (any, error) {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.New("expected a number")
			}
			return value, checkRange(input.Widget, value)
		})
	case model.TypeImage, model.TypeAudio:
		return p.askParsed(ctx, input, func(raw string) (any, error) {
			return p.loadMedia(ctx, input.Type, raw)
		})
	case model.TypeVideo:
		return p.askParsed(ctx, input, func(raw string) (any, error) {
			return raw, nil
		})
	default:
		return p.askText(ctx, input)
	}
}

func (p *Prompter) askText(ctx context.Context, input model.InputDescriptor) (any, bool, error) {
	for {
		var (
			answer string
			err    error
		)
		if input.Widget.Multiline || input.IsArray() {
			answer, err = p.driver.TextArea(ctx, TextAreaConfig{
				Message: label(input),
				Default: p.defaultString(input),
				Help:    help(input),
			})
		} else {
			answer, err = p.driver.Input(ctx, InputConfig{
				Message: label(input),
				Default: p.defaultString(input),
				Help:    help(input),
			})
		}
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(answer) == "" {
			if input.Required {
				_ = p.driver.Info(ctx, fmt.Sprintf("%s is required", label(input)))
				continue
			}
			return nil, false, nil
		}
		return answer, true, nil
	}
}

// askParsed prompts on one line until parse accepts the answer or an
// optional input is left empty.
func (p *Prompter) askParsed(ctx context.Context, input model.InputDescriptor, parse func(string) (any, error)) (any, bool, error) {
	validate := func(raw string) error {
		if input.Required && strings.TrimSpace(raw) == "" {
			return ErrRequired
		}
		return nil
	}
	for {
		answer, err := p.driver.Input(ctx, InputConfig{
			Message:   label(input),
			Default:   p.defaultString(input),
			Help:      help(input),
			Validator: validate,
		})
		if err != nil {
			return nil, false, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			if input.Required {
				_ = p.driver.Info(ctx, fmt.Sprintf("%s is required", label(input)))
				continue
			}
			return nil, false, nil
		}
		value, err := parse(answer)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, false, ctxErr
			}
			_ = p.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", label(input), err))
			continue
		}
		return value, true, nil
	}
}

func (p *Prompter) askEnum(ctx context.Context, input model.InputDescriptor) (any, bool, error) {
	options := make([]string, 0, len(input.Enum))
	for _, choice := range input.Enum {
		options = append(options, fmt.Sprint(choice))
	}
	if len(options) == 0 {
		return p.askText(ctx, input)
	}
	current := p.defaultString(input)
	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:      label(input),
		Options:      options,
		DefaultIndex: max(indexOf(options, current), 0),
		Help:         input.Description,
	})
	if err != nil {
		return nil, false, err
	}
	if idx < 0 || idx >= len(input.Enum) {
		return nil, false, fmt.Errorf("selection %d out of range", idx)
	}
	return input.Enum[idx], true, nil
}

func (p *Prompter) current(input model.InputDescriptor) (any, bool) {
	if value, ok := p.prefill[input.Name]; ok {
		return value, true
	}
	if input.Widget.HasDefault && input.Widget.Default != nil {
		return input.Widget.Default, true
	}
	return nil, false
}

func (p *Prompter) defaultString(input model.InputDescriptor) string {
	value, ok := p.current(input)
	if !ok || (input.Type.IsMedia() && input.Type != model.TypeVideo) {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(typed)
	}
}

func (p *Prompter) defaultBool(input model.InputDescriptor) bool {
	value, _ := p.current(input)
	b, _ := value.(bool)
	return b
}

func label(input model.InputDescriptor) string {
	if input.Label != "" {
		return input.Label
	}
	return input.Name
}

func help(input model.InputDescriptor) string {
	if input.IsArray() {
		if input.Description == "" {
			return "One item per line."
		}
		return input.Description + " One item per line."
	}
	return input.Description
}

func checkRange(widget model.WidgetConfig, value float64) error {
	if widget.Min != nil && value < *widget.Min {
		return fmt.Errorf("must be at least %s", strconv.FormatFloat(*widget.Min, 'g', -1, 64))
	}
	if widget.Max != nil && value > *widget.Max {
		return fmt.Errorf("must be at most %s", strconv.FormatFloat(*widget.Max, 'g', -1, 64))
	}
	return nil
}

// loadMediaFile reads a local file and decodes it into the host media type.
func loadMediaFile(_ context.Context, kind model.SemanticType, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case model.TypeImage:
		return media.DecodeImage(data)
	case model.TypeAudio:
		return media.DecodeAudio(data, path)
	default:
		return nil, fmt.Errorf("no loader for %s", kind)
	}
}
