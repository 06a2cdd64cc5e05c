package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
)

// Object is a JSON object that remembers the order in which its keys were
// first seen. Property order in model documents carries meaning (named outputs
// follow it, inputs without x-order keep it), so documents are decoded into
// Objects rather than Go maps.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Len reports the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in encounter order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	value, ok := o.values[key]
	return value, ok
}

// Has reports whether key is present (even when its value is null).
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. Existing keys keep their original position.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Delete removes key if present.
func (o *Object) Delete(key string) {
	if o == nil {
		return
	}
	if _, exists := o.values[key]; !exists {
		return
	}
	delete(o.values, key)
	for idx, existing := range o.keys {
		if existing == key {
			o.keys = append(o.keys[:idx], o.keys[idx+1:]...)
			break
		}
	}
}

// String returns the string stored under key, or "" when absent or not a
// string.
func (o *Object) String(key string) string {
	value, _ := o.Get(key)
	str, _ := value.(string)
	return str
}

// Object returns the nested object stored under key.
func (o *Object) Object(key string) (*Object, bool) {
	value, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	nested, ok := value.(*Object)
	return nested, ok && nested != nil
}

// Array returns the list stored under key.
func (o *Object) Array(key string) ([]any, bool) {
	value, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	list, ok := value.([]any)
	return list, ok
}

// Number returns the numeric value stored under key as float64.
func (o *Object) Number(key string) (float64, bool) {
	value, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	return ToFloat(value)
}

// Strings returns the string members of the list stored under key.
func (o *Object) Strings(key string) []string {
	list, ok := o.Array(key)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]any, len(o.values)),
	}
	for key, value := range o.values {
		out.values[key] = cloneValue(value)
	}
	return out
}

// ToMap converts the object tree into plain Go maps and slices. Key order is
// lost; use it only for consumers that require map[string]any.
func (o *Object) ToMap() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o.keys))
	for _, key := range o.keys {
		out[key] = toPlain(o.values[key])
	}
	return out
}

// MarshalJSON encodes the object keeping key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range o.keys {
		if idx > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		encodedValue, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, fmt.Errorf("schema: encode %q: %w", key, err)
		}
		buf.Write(encodedValue)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeObject(data)
	if err != nil {
		return err
	}
	*o = *decoded
	return nil
}

// Decode parses any JSON value. Objects become *Object, arrays []any, integral
// numbers int64 and other numbers float64.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("schema: empty JSON payload")
		}
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	value, err := decodeValue(dec, tok)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("schema: unexpected trailing data after JSON value")
	}
	return value, nil
}

// DecodeObject parses a JSON payload that must be an object.
func DecodeObject(data []byte) (*Object, error) {
	value, err := Decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := value.(*Object)
	if !ok {
		return nil, fmt.Errorf("schema: expected JSON object, got %T", value)
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder, tok json.Token) (any, error) {
	switch typed := tok.(type) {
	case json.Delim:
		switch typed {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("schema: decode key: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("schema: object key must be string, got %T", keyTok)
				}
				valueTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("schema: decode %q: %w", key, err)
				}
				value, err := decodeValue(dec, valueTok)
				if err != nil {
					return nil, err
				}
				obj.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("schema: close object: %w", err)
			}
			return obj, nil
		case '[':
			list := make([]any, 0)
			for dec.More() {
				itemTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("schema: decode array item: %w", err)
				}
				item, err := decodeValue(dec, itemTok)
				if err != nil {
					return nil, err
				}
				list = append(list, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("schema: close array: %w", err)
			}
			return list, nil
		default:
			return nil, fmt.Errorf("schema: unexpected delimiter %q", rune(typed))
		}
	case json.Number:
		return numberValue(typed), nil
	case float64:
		return typed, nil
	case string, bool, nil:
		return typed, nil
	default:
		return nil, fmt.Errorf("schema: unexpected token %T", tok)
	}
}

func numberValue(n json.Number) any {
	raw := n.String()
	if !strings.ContainsAny(raw, ".eE") {
		if integer, err := n.Int64(); err == nil {
			return integer
		}
	}
	if float, err := n.Float64(); err == nil {
		return float
	}
	return raw
}

// ToFloat converts decoded numeric values to float64.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case *Object:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func toPlain(value any) any {
	switch v := value.(type) {
	case *Object:
		return v.ToMap()
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = toPlain(item)
		}
		return out
	default:
		return v
	}
}
