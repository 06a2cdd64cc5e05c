package model

import (
	"strings"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// ResolveOutput decides the return shape of a binding. An Output schema that
// declares properties yields named fields in encounter order; everything else
// collapses to a single type.
func ResolveOutput(doc schema.Document) OutputSpec {
	output, hasOutput := doc.OutputSchema()
	if hasOutput {
		if properties, ok := output.Object("properties"); ok && properties.Len() > 0 {
			return OutputSpec{Fields: namedOutputs(doc, properties)}
		}
	}

	if doc.HasExampleOutput {
		if kind := mediaType(media.Classify(doc.ExampleOutput)); kind != "" {
			return OutputSpec{Type: kind}
		}
	}
	if hasOutput && isURIString(output) {
		return OutputSpec{Type: TypeImage}
	}
	if hasOutput && output.String("type") == "array" {
		if items, ok := output.Object("items"); ok && isURIString(schema.Resolve(items, doc.OpenAPI)) {
			return OutputSpec{Type: TypeImage}
		}
	}
	return OutputSpec{Type: TypeText}
}

func namedOutputs(doc schema.Document, properties *schema.Object) []OutputField {
	example, _ := doc.ExampleOutput.(*schema.Object)
	fields := make([]OutputField, 0, properties.Len())
	for _, name := range properties.Keys() {
		node, ok := properties.Object(name)
		if !ok {
			node = schema.NewObject()
		}
		prop := schema.NewProperty(name, node, doc.OpenAPI, false)
		fields = append(fields, OutputField{Name: name, Type: namedOutputType(prop, example)})
	}
	return fields
}

func namedOutputType(prop schema.Property, example *schema.Object) SemanticType {
	if value, ok := example.Get(prop.Name); ok {
		if kind := mediaType(media.Classify(value)); kind != "" {
			return kind
		}
		return TypeText
	}
	if !prop.IsURI() {
		return TypeText
	}
	lower := strings.ToLower(prop.Name)
	switch {
	case strings.Contains(lower, "audio"):
		return TypeAudio
	case strings.Contains(lower, "image"):
		return TypeImage
	default:
		return TypeText
	}
}

func isURIString(node *schema.Object) bool {
	return node.String("type") == "string" && node.String("format") == "uri"
}
