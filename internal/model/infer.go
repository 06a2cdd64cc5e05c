package model

import (
	"strings"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// Evidence is the default example value recorded for a property, if any.
type Evidence struct {
	Value   any
	Present bool
}

// InferType maps a resolved property to a semantic type. Rules are evaluated
// in order and the first match wins:
//
//  1. a declared enum is ENUM, whatever its primitive type;
//  2. a string/uri property is classified by the file extension of its example
//     value, then by its name ("image"/"mask" → IMAGE, "audio" → AUDIO),
//     falling back to TEXT;
//  3. primitives map directly; anything else is TEXT.
func InferType(prop schema.Property, example Evidence) SemanticType {
	if len(prop.Enum) > 0 {
		return TypeEnum
	}
	if prop.IsURI() {
		if example.Present {
			if kind := mediaType(media.Classify(example.Value)); kind != "" {
				return kind
			}
		}
		return typeFromName(prop.Name)
	}
	return primitiveType(prop.Type)
}

func typeFromName(name string) SemanticType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "image"), strings.Contains(lower, "mask"):
		return TypeImage
	case strings.Contains(lower, "audio"):
		return TypeAudio
	default:
		return TypeText
	}
}

func primitiveType(openapiType string) SemanticType {
	switch openapiType {
	case "string":
		return TypeText
	case "integer":
		return TypeInteger
	case "number":
		return TypeFloat
	case "boolean":
		return TypeBoolean
	default:
		return TypeText
	}
}

func mediaType(kind media.Kind) SemanticType {
	switch kind {
	case media.KindImage:
		return TypeImage
	case media.KindVideo:
		return TypeVideo
	case media.KindAudio:
		return TypeAudio
	default:
		return ""
	}
}
