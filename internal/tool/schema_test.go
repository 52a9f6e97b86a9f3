package tool

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSchema_Validate(t *testing.T) {
	schema := Object(map[string]*Schema{
		"path":  String("File path"),
		"limit": Integer("Max lines"),
		"mode":  String("Mode").WithEnum("fast", "full"),
		"tags":  Array("Tags", String("tag")),
		"opts": Object(map[string]*Schema{
			"verbose": Boolean("Verbose"),
		}),
	}, "path")

	tests := []struct {
		name    string
		args    string
		wantErr string
	}{
		{name: "minimal", args: `{"path": "a.go"}`},
		{name: "all fields", args: `{"path": "a.go", "limit": 3, "mode": "full", "tags": ["x"], "opts": {"verbose": true}}`},
		{name: "unknown field accepted", args: `{"path": "a.go", "extra": 1}`},
		{name: "missing required", args: `{}`, wantErr: "missing required field: path"},
		{name: "wrong type", args: `{"path": 1}`, wantErr: "field path: expected string but got number"},
		{name: "fractional integer", args: `{"path": "a", "limit": 1.5}`, wantErr: "field limit"},
		{name: "enum violation", args: `{"path": "a", "mode": "slow"}`, wantErr: "is not one of"},
		{name: "array item", args: `{"path": "a", "tags": ["x", 2]}`, wantErr: "field tags[1]"},
		{name: "nested object", args: `{"path": "a", "opts": {"verbose": "yes"}}`, wantErr: "field opts.verbose"},
		{name: "null value", args: `{"path": null}`, wantErr: "got null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args map[string]any
			if err := json.Unmarshal([]byte(tt.args), &args); err != nil {
				t.Fatalf("bad test args: %v", err)
			}
			err := schema.Validate(args)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSchema_Map(t *testing.T) {
	schema := Object(map[string]*Schema{
		"files": Array("Files", String("path")),
		"depth": Integer("Depth").WithDefault(2),
	}, "files")

	m := schema.Map()
	if m["type"] != "object" {
		t.Errorf("Expected object type, got %v", m["type"])
	}
	required, _ := m["required"].([]string)
	if len(required) != 1 || required[0] != "files" {
		t.Errorf("Unexpected required list: %v", m["required"])
	}
	props := m["properties"].(map[string]any)
	files := props["files"].(map[string]any)
	if files["items"].(map[string]any)["type"] != "string" {
		t.Errorf("Expected string items, got %v", files["items"])
	}
	if props["depth"].(map[string]any)["default"] != 2 {
		t.Errorf("Expected default 2, got %v", props["depth"])
	}

	var nilSchema *Schema
	if nilSchema.Map()["type"] != "object" {
		t.Error("Expected nil schema to project to an empty object schema")
	}
}

func TestSchemaFromMap(t *testing.T) {
	schema, err := SchemaFromMap(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search query"},
		},
		"required":             []any{"query"},
		"additionalProperties": false,
	})
	if err != nil {
		t.Fatalf("SchemaFromMap failed: %v", err)
	}
	if schema.Properties["query"].Type != TypeString {
		t.Errorf("Expected string property, got %v", schema.Properties["query"])
	}
	if err := schema.Validate(map[string]any{}); err == nil {
		t.Error("Expected required query to be enforced")
	}

	if _, err := SchemaFromMap(map[string]any{"type": []any{"string", "null"}}); err == nil {
		t.Error("Expected union types to be rejected")
	}
}
