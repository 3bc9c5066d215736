// Package schema interprets JSON-Schema-like documents and derives a
// render tree for arbitrary nested data, so artifact content can be
// displayed without hardcoded per-field views.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRecursiveSchema is returned when $ref resolution revisits a
// definition. Schema definitions form a graph; self-referential
// definitions cannot be rendered.
var ErrRecursiveSchema = errors.New("unsupported recursive schema")

// refPrefix is the only supported $ref form.
const refPrefix = "#/$defs/"

// Property is a recursive JSON Schema property node. Only the subset
// used for rendering is modeled; schemas are never used to validate
// write-backs.
type Property struct {
	Type        string               `json:"type,omitempty"`
	Ref         string               `json:"$ref,omitempty"`
	AnyOf       []*Property          `json:"anyOf,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`

	// Order preserves the property declaration order of the enclosing
	// object, captured at parse time. JSON maps lose ordering; without
	// this, fields would render alphabetically.
	Order []string `json:"-"`
}

// Document is a parsed JSON Schema document for one artifact type.
type Document struct {
	Schema     string               `json:"$schema,omitempty"`
	Title      string               `json:"title,omitempty"`
	Type       string               `json:"type,omitempty"`
	Properties map[string]*Property `json:"properties,omitempty"`
	Defs       map[string]*Property `json:"$defs,omitempty"`

	// Order preserves top-level property declaration order.
	Order []string `json:"-"`
}

// Parse decodes a JSON Schema document, capturing property order.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	doc.Order = propertyOrder(data, "properties")
	captureOrders(data, &doc)
	return &doc, nil
}

// captureOrders walks the raw document and fills Order on every object
// property, so nested objects also render in declaration order.
func captureOrders(data []byte, doc *Document) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return
	}
	if props, ok := raw["properties"]; ok {
		fillOrder(props, doc.Properties)
	}
	if defs, ok := raw["$defs"]; ok {
		fillOrder(defs, doc.Defs)
	}
}

// fillOrder recursively assigns declaration order to property maps.
func fillOrder(raw json.RawMessage, props map[string]*Property) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return
	}
	for name, p := range props {
		member, ok := members[name]
		if !ok || p == nil {
			continue
		}
		if p.Properties != nil {
			p.Order = propertyOrder(member, "properties")
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(member, &inner); err == nil {
				if nested, ok := inner["properties"]; ok {
					fillOrder(nested, p.Properties)
				}
			}
		}
		if p.Items != nil && p.Items.Properties != nil {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(member, &inner); err == nil {
				if items, ok := inner["items"]; ok {
					p.Items.Order = propertyOrder(items, "properties")
					var itemRaw map[string]json.RawMessage
					if err := json.Unmarshal(items, &itemRaw); err == nil {
						if nested, ok := itemRaw["properties"]; ok {
							fillOrder(nested, p.Items.Properties)
						}
					}
				}
			}
		}
	}
}

// propertyOrder extracts key declaration order from the named object
// member of raw by scanning tokens.
func propertyOrder(raw json.RawMessage, member string) []string {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil
	}
	obj, ok := outer[member]
	if !ok {
		return nil
	}
	return objectKeys(obj)
}

// objectKeys returns the top-level keys of a JSON object in
// declaration order.
func objectKeys(obj json.RawMessage) []string {
	dec := json.NewDecoder(strings.NewReader(string(obj)))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return keys
		}
	}
	return keys
}

// skipValue consumes one complete JSON value from the decoder.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	if delim == '{' || delim == '[' {
		depth := 1
		for depth > 0 {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if d, ok := tok.(json.Delim); ok {
				switch d {
				case '{', '[':
					depth++
				case '}', ']':
					depth--
				}
			}
		}
	}
	return nil
}

// Resolve substitutes a $ref property with its $defs definition.
// Resolution tracks visited definition names; a revisit means the
// schema is recursive and resolution fails with ErrRecursiveSchema.
func Resolve(p *Property, defs map[string]*Property, visited map[string]bool) (*Property, error) {
	if p == nil {
		return nil, nil
	}
	if p.Ref == "" {
		return p, nil
	}
	if !strings.HasPrefix(p.Ref, refPrefix) {
		// Unknown ref shapes fall back to string rendering.
		return &Property{Type: "string"}, nil
	}

	name := strings.TrimPrefix(p.Ref, refPrefix)
	if visited[name] {
		return nil, fmt.Errorf("%w: $defs/%s", ErrRecursiveSchema, name)
	}

	def, ok := defs[name]
	if !ok {
		return &Property{Type: "string"}, nil
	}

	if visited == nil {
		visited = map[string]bool{}
	}
	visited[name] = true
	return Resolve(def, defs, visited)
}

// ResolvedType determines the effective type of an already-resolved
// property: direct type first, then the first anyOf member whose type
// is not "null", then string for enum-bearing properties, and string
// for anything still ambiguous.
func ResolvedType(p *Property) string {
	if p == nil {
		return "string"
	}
	if p.Type != "" {
		return p.Type
	}
	for _, member := range p.AnyOf {
		if member != nil && member.Type != "" && member.Type != "null" {
			return member.Type
		}
	}
	if len(p.Enum) > 0 {
		return "string"
	}
	return "string"
}
