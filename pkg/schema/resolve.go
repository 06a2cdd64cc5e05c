package schema

import (
	"math"
	"strings"
)

const maxRefDepth = 64

// Resolve dereferences node against root, the enclosing OpenAPI document.
//
// A `$ref` is split on "/" and walked segment by segment from root, skipping
// the leading "#". When any segment is missing the original node is returned
// unchanged. When the (possibly dereferenced) node is an `allOf`, only its
// first branch is resolved; later branches are ignored. Resolving an already
// resolved node returns it as is.
func Resolve(node, root *Object) *Object {
	return resolve(node, root, 0)
}

func resolve(node, root *Object, depth int) *Object {
	if node == nil || depth > maxRefDepth {
		return node
	}
	current := node
	if ref := strings.TrimSpace(node.String("$ref")); ref != "" {
		target, ok := lookupRef(root, ref)
		if !ok {
			return node
		}
		resolved := resolve(target, root, depth+1)
		if resolved == target && hasIndirection(target) {
			// chain did not terminate (cycle or depth overflow)
			return node
		}
		current = resolved
	}
	if branches, ok := current.Array("allOf"); ok && len(branches) > 0 {
		first, ok := branches[0].(*Object)
		if !ok {
			return current
		}
		resolved := resolve(first, root, depth+1)
		if resolved == first && hasIndirection(first) {
			return current
		}
		return resolved
	}
	return current
}

func hasIndirection(node *Object) bool {
	if node == nil {
		return false
	}
	if node.String("$ref") != "" {
		return true
	}
	branches, ok := node.Array("allOf")
	return ok && len(branches) > 0
}

func lookupRef(root *Object, ref string) (*Object, bool) {
	segments := strings.Split(ref, "/")
	if len(segments) < 2 {
		return nil, false
	}
	var current any = root
	for _, segment := range segments[1:] {
		obj, ok := current.(*Object)
		if !ok || obj == nil {
			return nil, false
		}
		next, ok := obj.Get(unescapePointer(segment))
		if !ok {
			return nil, false
		}
		current = next
	}
	target, ok := current.(*Object)
	return target, ok && target != nil
}

func unescapePointer(segment string) string {
	if !strings.Contains(segment, "~") {
		return segment
	}
	return strings.ReplaceAll(strings.ReplaceAll(segment, "~1", "/"), "~0", "~")
}

// Property is a resolved input or output field. It never carries `$ref` or
// `allOf`; keywords declared next to such a wrapper (default, x-order,
// description, title) win over the ones on the referenced target.
type Property struct {
	Name        string
	Type        string
	Format      string
	Enum        []any
	Default     any
	HasDefault  bool
	Minimum     *float64
	Maximum     *float64
	Order       float64
	Required    bool
	Items       *Object
	Description string
	Title       string
}

// NewProperty resolves node within root and flattens it into a Property.
func NewProperty(name string, node, root *Object, required bool) Property {
	resolved := Resolve(node, root)
	outer := node
	if ref := node.String("$ref"); ref != "" {
		// keywords beside a $ref live on the wrapper; keywords beside an allOf
		// may live on the referenced node
		if target, ok := lookupRef(root, ref); ok && target.Has("allOf") {
			outer = mergeSiblings(node, target)
		}
	}

	prop := Property{
		Name:     name,
		Type:     resolved.String("type"),
		Format:   resolved.String("format"),
		Order:    math.Inf(1),
		Required: required,
	}
	if enum, ok := resolved.Array("enum"); ok && len(enum) > 0 {
		prop.Enum = append([]any(nil), enum...)
	}
	if value, ok := firstValue("default", outer, resolved); ok && value != nil {
		prop.Default = value
		prop.HasDefault = true
	}
	if value, ok := firstNumber("minimum", resolved, outer); ok {
		prop.Minimum = &value
	}
	if value, ok := firstNumber("maximum", resolved, outer); ok {
		prop.Maximum = &value
	}
	if value, ok := firstNumber("x-order", outer, resolved); ok {
		prop.Order = value
	}
	if items, ok := resolved.Object("items"); ok {
		prop.Items = Resolve(items, root)
	}
	prop.Description = firstString("description", outer, resolved)
	prop.Title = firstString("title", outer, resolved)
	return prop
}

// IsURI reports whether the property is a string with uri format.
func (p Property) IsURI() bool {
	return p.Type == "string" && p.Format == "uri"
}

func mergeSiblings(wrapper, target *Object) *Object {
	merged := target.Clone()
	for _, key := range wrapper.Keys() {
		if key == "$ref" {
			continue
		}
		value, _ := wrapper.Get(key)
		merged.Set(key, value)
	}
	return merged
}

func firstValue(key string, nodes ...*Object) (any, bool) {
	for _, node := range nodes {
		if value, ok := node.Get(key); ok {
			return value, true
		}
	}
	return nil, false
}

func firstNumber(key string, nodes ...*Object) (float64, bool) {
	for _, node := range nodes {
		if value, ok := node.Number(key); ok {
			return value, true
		}
	}
	return 0, false
}

func firstString(key string, nodes ...*Object) string {
	for _, node := range nodes {
		if value := node.String(key); value != "" {
			return value
		}
	}
	return ""
}
