package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// inputFlags collects repeated -input name=value flags.
type inputFlags map[string]string

func (f inputFlags) String() string {
	parts := make([]string, 0, len(f))
	for key, value := range f {
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, ",")
}

func (f inputFlags) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}
	f[strings.TrimSpace(key)] = value
	return nil
}

// values converts the raw flags into host values: JSON literals are decoded,
// and local files given for IMAGE or AUDIO inputs are loaded.
func (f inputFlags) values(_ context.Context, inputs model.InputSet) (map[string]any, error) {
	out := make(map[string]any, len(f))
	for name, raw := range f {
		descriptor, known := inputs.Lookup(name)
		if known && (descriptor.Type == model.TypeImage || descriptor.Type == model.TypeAudio) {
			value, err := loadLocalMedia(descriptor.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("input %q: %w", name, err)
			}
			out[name] = value
			continue
		}
		if known && descriptor.Type == model.TypeText {
			out[name] = raw
			continue
		}
		out[name] = literal(raw)
	}
	return out, nil
}

func literal(raw string) any {
	decoded, err := schema.Decode([]byte(raw))
	if err != nil {
		return raw
	}
	if obj, ok := decoded.(*schema.Object); ok {
		return obj.ToMap()
	}
	return decoded
}

func loadLocalMedia(kind model.SemanticType, raw string) (any, error) {
	if media.IsDataURI(raw) || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, nil
	}
	data, err := os.ReadFile(raw)
	if err != nil {
		return nil, err
	}
	if kind == model.TypeImage {
		return media.DecodeImage(data)
	}
	return media.DecodeAudio(data, raw)
}

// writeOutputs prints text results and stores media results under dir.
func writeOutputs(w io.Writer, dir string, names []string, values []any) error {
	for idx, name := range names {
		var value any
		if idx < len(values) {
			value = values[idx]
		}
		if err := writeOutput(w, dir, name, value); err != nil {
			return fmt.Errorf("output %q: %w", name, err)
		}
	}
	return nil
}

func writeOutput(w io.Writer, dir, name string, value any) error {
	base := filepath.Join(dir, fileSafe(name))
	switch typed := value.(type) {
	case nil:
		_, err := fmt.Fprintf(w, "%s: (none)\n", name)
		return err
	case string:
		_, err := fmt.Fprintf(w, "%s:\n%s\n", name, typed)
		return err
	case *media.ImageBatch:
		for i := 0; i < typed.Batch; i++ {
			data, err := media.EncodePNG(typed, i)
			if err != nil {
				return err
			}
			path := fmt.Sprintf("%s-%d.png", base, i)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: %s\n", name, path)
		}
		return nil
	case *media.Audio:
		return writeAudio(w, name, base+".wav", typed)
	case []*media.Audio:
		for i, clip := range typed {
			if err := writeAudio(w, name, fmt.Sprintf("%s-%d.wav", base, i), clip); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for _, item := range typed {
			fmt.Fprintf(w, "%s: %s\n", name, item)
		}
		return nil
	default:
		_, err := fmt.Fprintf(w, "%s: %v\n", name, typed)
		return err
	}
}

func writeAudio(w io.Writer, name, path string, clip *media.Audio) error {
	data, err := media.EncodeWAV(clip)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %s\n", name, path)
	return err
}

func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.ToLower(name))
}
