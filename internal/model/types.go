package model

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// SemanticType is the closed set of UI-facing value categories the host editor
// renders. Shapes the engine cannot classify degrade to TypeText.
type SemanticType string

const (
	TypeText    SemanticType = "TEXT"
	TypeInteger SemanticType = "INTEGER"
	TypeFloat   SemanticType = "FLOAT"
	TypeBoolean SemanticType = "BOOLEAN"
	TypeEnum    SemanticType = "ENUM"
	TypeImage   SemanticType = "IMAGE"
	TypeAudio   SemanticType = "AUDIO"
	TypeVideo   SemanticType = "VIDEO"
)

// IsMedia reports whether values of the type travel as media payloads.
func (t SemanticType) IsMedia() bool {
	return t == TypeImage || t == TypeAudio || t == TypeVideo
}

// Valid reports whether t belongs to the closed vocabulary.
func (t SemanticType) Valid() bool {
	switch t {
	case TypeText, TypeInteger, TypeFloat, TypeBoolean, TypeEnum, TypeImage, TypeAudio, TypeVideo:
		return true
	default:
		return false
	}
}

const (
	// ForceRerunInput is the synthetic control input appended to every
	// binding. It never reaches the remote service.
	ForceRerunInput = "force_rerun"

	// FloatStep and FloatRound are fixed widget settings for FLOAT inputs.
	FloatStep  = 0.01
	FloatRound = 0.001
)

// WidgetConfig carries the widget settings of one input. Default is only
// meaningful when HasDefault is true; the JSON form omits the key otherwise
// so hosts can tell "no default" from a zero default.
type WidgetConfig struct {
	Default        any
	HasDefault     bool
	Min            *float64
	Max            *float64
	Step           *float64
	Round          *float64
	Multiline      bool
	DynamicPrompts bool
}

// MarshalJSON emits the host widget option map.
func (w WidgetConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		keyBytes, _ := json.Marshal(key)
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(encoded)
		return nil
	}
	if w.HasDefault {
		if err := write("default", w.Default); err != nil {
			return nil, err
		}
	}
	for _, entry := range []struct {
		key   string
		value *float64
	}{{"min", w.Min}, {"max", w.Max}, {"step", w.Step}, {"round", w.Round}} {
		if entry.value == nil {
			continue
		}
		if err := write(entry.key, *entry.value); err != nil {
			return nil, err
		}
	}
	if w.Multiline {
		if err := write("multiline", true); err != nil {
			return nil, err
		}
	}
	if w.DynamicPrompts {
		if err := write("dynamicPrompts", true); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a widget option map, setting HasDefault when the key
// is present.
func (w *WidgetConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = WidgetConfig{}
	if value, ok := raw["default"]; ok {
		if err := json.Unmarshal(value, &w.Default); err != nil {
			return err
		}
		w.HasDefault = true
	}
	for key, target := range map[string]**float64{"min": &w.Min, "max": &w.Max, "step": &w.Step, "round": &w.Round} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		var number float64
		if err := json.Unmarshal(value, &number); err != nil {
			return err
		}
		*target = &number
	}
	if value, ok := raw["multiline"]; ok {
		if err := json.Unmarshal(value, &w.Multiline); err != nil {
			return err
		}
	}
	if value, ok := raw["dynamicPrompts"]; ok {
		if err := json.Unmarshal(value, &w.DynamicPrompts); err != nil {
			return err
		}
	}
	return nil
}

// InputDescriptor describes one node input.
type InputDescriptor struct {
	Name        string       `json:"name"`
	Label       string       `json:"label,omitempty"`
	Type        SemanticType `json:"type"`
	Enum        []any        `json:"enum,omitempty"`
	SchemaType  string       `json:"schemaType,omitempty"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Widget      WidgetConfig `json:"widget"`
}

// IsArray reports whether the underlying schema type is an array, which makes
// the input subject to newline-delimited coercion.
func (d InputDescriptor) IsArray() bool {
	return d.SchemaType == "array"
}

// InputSet partitions descriptors into required and optional lists, each in
// display order.
type InputSet struct {
	Required []InputDescriptor `json:"required"`
	Optional []InputDescriptor `json:"optional"`
}

// All returns required followed by optional descriptors.
func (s InputSet) All() []InputDescriptor {
	out := make([]InputDescriptor, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	return append(out, s.Optional...)
}

// Lookup finds a descriptor by name.
func (s InputSet) Lookup(name string) (InputDescriptor, bool) {
	for _, list := range [][]InputDescriptor{s.Required, s.Optional} {
		for _, descriptor := range list {
			if descriptor.Name == name {
				return descriptor, true
			}
		}
	}
	return InputDescriptor{}, false
}

// OutputField is one named output.
type OutputField struct {
	Name string       `json:"name"`
	Type SemanticType `json:"type"`
}

// OutputSpec is either a single type or an ordered list of named fields.
type OutputSpec struct {
	Type   SemanticType  `json:"type,omitempty"`
	Fields []OutputField `json:"fields,omitempty"`
}

// Named reports whether the output is a multi-field mapping.
func (s OutputSpec) Named() bool {
	return len(s.Fields) > 0
}

// Types returns the return type tuple.
func (s OutputSpec) Types() []SemanticType {
	if !s.Named() {
		return []SemanticType{s.Type}
	}
	out := make([]SemanticType, 0, len(s.Fields))
	for _, field := range s.Fields {
		out = append(out, field.Type)
	}
	return out
}

// Names returns the return names tuple; a single output is named after its
// type.
func (s OutputSpec) Names() []string {
	if !s.Named() {
		return []string{string(s.Type)}
	}
	out := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		out = append(out, field.Name)
	}
	return out
}

// Binding is the compiled, immutable description of one remote model as an
// editor node. Adapters read it; nothing mutates it after Build.
type Binding struct {
	ModelID     string     `json:"model"`
	DisplayName string     `json:"displayName"`
	NodeName    string     `json:"nodeName"`
	Description string     `json:"description,omitempty"`
	Inputs      InputSet   `json:"inputs"`
	Output      OutputSpec `json:"output"`
}
