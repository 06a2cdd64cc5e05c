package model

import (
	"sort"
	"strings"

	"github.com/goliatone/go-nodegen/pkg/schema"
)

// BuildInputs derives the ordered required/optional descriptor sets from the
// document's Input schema. A missing Input schema yields only the synthetic
// force_rerun input.
func (b *Builder) BuildInputs(doc schema.Document) InputSet {
	props := b.inputProperties(doc)

	set := InputSet{
		Required: make([]InputDescriptor, 0, len(props)),
		Optional: make([]InputDescriptor, 0, len(props)+1),
	}
	for _, prop := range props {
		value, present := doc.ExampleInputValue(prop.Name)
		descriptor := b.describeInput(prop, Evidence{Value: value, Present: present})
		if descriptor.Required {
			set.Required = append(set.Required, descriptor)
		} else {
			set.Optional = append(set.Optional, descriptor)
		}
	}
	set.Optional = append(set.Optional, forceRerunDescriptor(b.opts.Labeler))
	return set
}

// inputProperties resolves every declared input and sorts it by x-order;
// properties without x-order sort last and keep encounter order.
func (b *Builder) inputProperties(doc schema.Document) []schema.Property {
	input, ok := doc.InputSchema()
	if !ok {
		return nil
	}
	properties, ok := input.Object("properties")
	if !ok {
		return nil
	}
	required := make(map[string]struct{})
	for _, name := range input.Strings("required") {
		required[name] = struct{}{}
	}

	props := make([]schema.Property, 0, properties.Len())
	for _, name := range properties.Keys() {
		node, ok := properties.Object(name)
		if !ok {
			node = schema.NewObject()
		}
		_, isRequired := required[name]
		props = append(props, schema.NewProperty(name, node, doc.OpenAPI, isRequired))
	}
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].Order < props[j].Order
	})
	return props
}

func (b *Builder) describeInput(prop schema.Property, example Evidence) InputDescriptor {
	descriptor := InputDescriptor{
		Name:        prop.Name,
		Label:       b.opts.Labeler(prop.Name),
		Type:        InferType(prop, example),
		SchemaType:  prop.Type,
		Description: b.opts.Sanitizer(prop.Description),
		Required:    prop.Required,
	}
	if descriptor.Type == TypeEnum {
		descriptor.Enum = append([]any(nil), prop.Enum...)
	}

	widget := WidgetConfig{
		Default:    prop.Default,
		HasDefault: prop.HasDefault,
		Min:        cloneFloat(prop.Minimum),
		Max:        cloneFloat(prop.Maximum),
	}
	if descriptor.Type == TypeFloat {
		widget.Step = floatPtr(FloatStep)
		widget.Round = floatPtr(FloatRound)
	}
	lower := strings.ToLower(prop.Name)
	if strings.Contains(lower, "prompt") && prop.Type == "string" {
		widget.Multiline = true
		// template placeholders must reach the model untouched
		if !strings.Contains(lower, "template") {
			widget.DynamicPrompts = true
		}
	}
	descriptor.Widget = widget
	return descriptor
}

func forceRerunDescriptor(labeler func(string) string) InputDescriptor {
	return InputDescriptor{
		Name:       ForceRerunInput,
		Label:      labeler(ForceRerunInput),
		Type:       TypeBoolean,
		SchemaType: "boolean",
		Widget: WidgetConfig{
			Default:    false,
			HasDefault: true,
		},
	}
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func floatPtr(value float64) *float64 {
	return &value
}
