package jsonschema

import "github.com/goccy/go-json"

// Draft is the JSON Schema dialect emitted by projections.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	SchemaURI string `json:"$schema,omitempty"`
	Anchor    string `json:"$anchor,omitempty"`
	Ref       string `json:"$ref,omitempty"`
	Title     string `json:"title,omitempty"`
	Type      string `json:"type,omitempty"`
	Format    string `json:"format,omitempty"`
	Default   any    `json:"default,omitempty"`
	Enum      []any  `json:"enum,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`

	// Array
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	Items       any       `json:"items,omitempty"` // *Schema, or false to close a tuple
	MinItems    *int      `json:"minItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
}

// Marshal renders s as indented JSON.
func Marshal(s *Schema) ([]byte, error) { return json.MarshalIndent(s, "", "  ") }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
