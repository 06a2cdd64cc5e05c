package adapter

import (
	"fmt"
	"image"
	"reflect"
	"strings"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
)

// CoerceArrays rewrites values for array-typed inputs in place. Strings split
// on newlines (an empty string becomes an empty list), other scalars are
// wrapped in a one-element list, and lists are left alone.
func CoerceArrays(inputs model.InputSet, values map[string]any) {
	for _, descriptor := range inputs.All() {
		if !descriptor.IsArray() {
			continue
		}
		value, ok := values[descriptor.Name]
		if !ok || value == nil {
			continue
		}
		values[descriptor.Name] = coerceArray(value)
	}
}

func coerceArray(value any) any {
	if text, ok := value.(string); ok {
		if text == "" {
			return []string{}
		}
		return strings.Split(text, "\n")
	}
	kind := reflect.TypeOf(value).Kind()
	if kind == reflect.Slice || kind == reflect.Array {
		return value
	}
	return []any{value}
}

// PruneOptional drops optional inputs whose value is falsy so the remote
// service applies its own defaults. Required inputs are never removed.
func PruneOptional(inputs model.InputSet, values map[string]any) {
	for _, descriptor := range inputs.Optional {
		value, ok := values[descriptor.Name]
		if ok && IsFalsy(value) {
			delete(values, descriptor.Name)
		}
	}
}

// IsFalsy reports whether value is nil, a zero number, false, an empty
// string, collection or media value.
func IsFalsy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case *media.ImageBatch:
		return typed.Empty()
	case media.ImageBatch:
		return typed.Empty()
	case *media.Audio:
		return typed.Empty()
	case media.Audio:
		return typed.Empty()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// EncodeMedia replaces host-native IMAGE and AUDIO values with data URIs.
// Strings are taken to be URLs or data URIs already and pass through.
func EncodeMedia(inputs model.InputSet, values map[string]any) error {
	for _, descriptor := range inputs.All() {
		value, ok := values[descriptor.Name]
		if !ok || value == nil {
			continue
		}
		var (
			encoded any
			err     error
		)
		switch descriptor.Type {
		case model.TypeImage:
			encoded, err = encodeImage(value)
		case model.TypeAudio:
			encoded, err = encodeAudio(value)
		case model.TypeVideo:
			encoded, err = passURL(value)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("input %q: %w", descriptor.Name, err)
		}
		values[descriptor.Name] = encoded
	}
	return nil
}

func encodeImage(value any) (any, error) {
	switch typed := value.(type) {
	case *media.ImageBatch:
		return media.ImageDataURI(typed)
	case media.ImageBatch:
		return media.ImageDataURI(&typed)
	case image.Image:
		return media.ImageDataURI(media.FromImage(typed))
	default:
		return passURL(value)
	}
}

func encodeAudio(value any) (any, error) {
	switch typed := value.(type) {
	case *media.Audio:
		return media.AudioDataURI(typed)
	case media.Audio:
		return media.AudioDataURI(&typed)
	default:
		return passURL(value)
	}
}

func passURL(value any) (any, error) {
	switch typed := value.(type) {
	case string, []string:
		return typed, nil
	case []any:
		for _, item := range typed {
			if _, ok := item.(string); !ok {
				return nil, fmt.Errorf("%w: %T in media list", ErrUnsupportedValue, item)
			}
		}
		return typed, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}
