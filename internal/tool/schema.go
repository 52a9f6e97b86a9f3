package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
)

type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema describes a tool parameter. Type selects which of the remaining
// fields apply: Properties and Required for objects, Items for arrays.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Default     any                `json:"default,omitempty"`
}

// Object builds an object schema. Required names must appear in props.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

func Boolean(description string) *Schema {
	return &Schema{Type: TypeBoolean, Description: description}
}

func Array(description string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: description, Items: items}
}

// WithDefault sets the default value and returns s.
func (s *Schema) WithDefault(v any) *Schema {
	s.Default = v
	return s
}

// WithEnum restricts the allowed values and returns s.
func (s *Schema) WithEnum(values ...any) *Schema {
	s.Enum = values
	return s
}

// Map projects the schema into the JSON schema shape providers expect.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return map[string]any{"type": string(TypeObject), "properties": map[string]any{}}
	}

	m := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.Type == TypeObject {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.Map()
		}
		m["properties"] = props
		if len(s.Required) > 0 {
			m["required"] = slices.Clone(s.Required)
		}
	}
	if s.Items != nil {
		m["items"] = s.Items.Map()
	}
	if len(s.Enum) > 0 {
		m["enum"] = slices.Clone(s.Enum)
	}
	if s.Default != nil {
		m["default"] = s.Default
	}
	return m
}

// SchemaFromMap converts a JSON schema document into a Schema. Keywords
// without a Schema field are dropped.
func SchemaFromMap(m map[string]any) (*Schema, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unsupported schema: %w", err)
	}
	if s.Type == "" {
		s.Type = TypeObject
	}
	return &s, nil
}

// ApplyDefaults fills missing object properties that declare a default.
// args is modified in place.
func (s *Schema) ApplyDefaults(args map[string]any) {
	if s == nil || s.Type != TypeObject || args == nil {
		return
	}
	for name, p := range s.Properties {
		if p == nil {
			continue
		}
		v, ok := args[name]
		if !ok && p.Default != nil {
			args[name] = p.Default
			continue
		}
		if nested, isMap := v.(map[string]any); ok && isMap {
			p.ApplyDefaults(nested)
		}
	}
}

// Validate checks value against the schema. Properties not declared in the
// schema are accepted.
func (s *Schema) Validate(value any) error {
	return s.validate("", value)
}

func (s *Schema) validate(path string, value any) error {
	if s == nil {
		return nil
	}

	if err := checkType(s.Type, value); err != nil {
		return fieldError(path, err)
	}

	if len(s.Enum) > 0 && !slices.ContainsFunc(s.Enum, func(e any) bool { return equalValues(e, value) }) {
		return fieldError(path, fmt.Errorf("value %v is not one of %v", value, s.Enum))
	}

	switch s.Type {
	case TypeObject:
		obj := value.(map[string]any)
		for _, name := range s.Required {
			if _, ok := obj[name]; !ok {
				return fieldError(path, fmt.Errorf("missing required field: %s", name))
			}
		}
		names := make([]string, 0, len(obj))
		for name := range obj {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if p, ok := s.Properties[name]; ok {
				if err := p.validate(joinPath(path, name), obj[name]); err != nil {
					return err
				}
			}
		}
	case TypeArray:
		for i, item := range value.([]any) {
			if err := s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkType(t Type, value any) error {
	ok := false
	switch t {
	case TypeString:
		_, ok = value.(string)
	case TypeNumber:
		_, ok = toFloat(value)
	case TypeInteger:
		f, isNum := toFloat(value)
		ok = isNum && math.Trunc(f) == f
	case TypeBoolean:
		_, ok = value.(bool)
	case TypeArray:
		_, ok = value.([]any)
	case TypeObject:
		_, ok = value.(map[string]any)
	case "":
		return nil
	default:
		return fmt.Errorf("unsupported schema type %q", t)
	}
	if !ok {
		return fmt.Errorf("expected %s but got %s", t, describe(value))
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func equalValues(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func describe(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := toFloat(value); ok {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func fieldError(path string, err error) error {
	if path == "" {
		return err
	}
	return fmt.Errorf("field %s: %w", path, err)
}
