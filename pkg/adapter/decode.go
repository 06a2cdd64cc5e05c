package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// Decode converts a raw remote result into the output tuple described by
// spec.
func (a *Adapter) Decode(ctx context.Context, spec model.OutputSpec, raw any) (Result, error) {
	if !spec.Named() {
		value, err := a.decodeValue(ctx, spec.Type, raw)
		if err != nil {
			return Result{}, err
		}
		return Result{Values: []any{value}}, nil
	}

	fields, err := namedValues(raw)
	if err != nil {
		return Result{}, err
	}
	values := make([]any, 0, len(spec.Fields))
	for _, field := range spec.Fields {
		value, err := a.decodeValue(ctx, field.Type, fields[field.Name])
		if err != nil {
			return Result{}, fmt.Errorf("output %q: %w", field.Name, err)
		}
		values = append(values, value)
	}
	return Result{Values: values}, nil
}

func namedValues(raw any) (map[string]any, error) {
	switch typed := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return typed, nil
	case *schema.Object:
		fields := make(map[string]any, typed.Len())
		for _, key := range typed.Keys() {
			fields[key], _ = typed.Get(key)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("%w: named outputs need an object, got %T", ErrUnsupportedValue, raw)
	}
}

func (a *Adapter) decodeValue(ctx context.Context, kind model.SemanticType, raw any) (any, error) {
	switch kind {
	case model.TypeText:
		return decodeText(raw)
	case model.TypeImage:
		return a.decodeImages(ctx, urlList(raw))
	case model.TypeAudio:
		return a.decodeAudio(ctx, urlList(raw))
	case model.TypeVideo:
		return decodeVideo(raw), nil
	default:
		return raw, nil
	}
}

// decodeText concatenates streamed fragments in order.
func decodeText(raw any) (string, error) {
	var out strings.Builder
	var write func(value any) error
	write = func(value any) error {
		switch typed := value.(type) {
		case nil:
		case string:
			out.WriteString(typed)
		case []string:
			for _, item := range typed {
				out.WriteString(item)
			}
		case []any:
			for _, item := range typed {
				if err := write(item); err != nil {
					return err
				}
			}
		default:
			encoded, err := json.Marshal(typed)
			if err != nil {
				return fmt.Errorf("%w: encode text output: %v", ErrUnsupportedValue, err)
			}
			out.Write(encoded)
		}
		return nil
	}
	if err := write(raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func (a *Adapter) decodeImages(ctx context.Context, urls []string) (any, error) {
	batches := make([]*media.ImageBatch, 0, len(urls))
	for _, target := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := a.fetcher.Fetch(ctx, target)
		if err != nil {
			a.logger.Warn("adapter: skipping image output", "url", target, "error", err)
			continue
		}
		batch, err := media.DecodeImage(payload.Data)
		if err != nil {
			a.logger.Warn("adapter: skipping undecodable image", "url", target, "error", err)
			continue
		}
		batches = append(batches, batch)
	}
	stacked, err := media.Stack(batches...)
	if err != nil {
		return nil, err
	}
	if stacked == nil {
		return nil, nil
	}
	return stacked, nil
}

func (a *Adapter) decodeAudio(ctx context.Context, urls []string) (any, error) {
	clips := make([]*media.Audio, 0, len(urls))
	for _, target := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := a.fetcher.Fetch(ctx, target)
		if err != nil {
			a.logger.Warn("adapter: skipping audio output", "url", target, "error", err)
			continue
		}
		clip, err := media.DecodeAudio(payload.Data, payload.Hint())
		if err != nil {
			a.logger.Warn("adapter: skipping undecodable audio", "url", target, "error", err)
			continue
		}
		clips = append(clips, clip)
	}
	switch len(clips) {
	case 0:
		return nil, nil
	case 1:
		return clips[0], nil
	default:
		return clips, nil
	}
}

func decodeVideo(raw any) any {
	switch typed := raw.(type) {
	case string:
		return typed
	case []any, []string:
		urls := urlList(typed)
		if len(urls) == 0 {
			return nil
		}
		return urls
	default:
		return nil
	}
}

// urlList flattens a single URL or a list of URLs; non-string items are
// ignored.
func urlList(raw any) []string {
	switch typed := raw.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return nil
		}
		return []string{typed}
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if value, ok := item.(string); ok && strings.TrimSpace(value) != "" {
				out = append(out, value)
			}
		}
		return out
	default:
		return nil
	}
}
