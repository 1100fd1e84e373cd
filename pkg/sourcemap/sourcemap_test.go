package sourcemap

import (
	"encoding/json"
	"go/token"
	"strings"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	gen := NewGenerator("main.civet", "main.ts")

	if gen.sourceFile != "main.civet" {
		t.Errorf("Expected sourceFile 'main.civet', got %q", gen.sourceFile)
	}

	if gen.genFile != "main.ts" {
		t.Errorf("Expected genFile 'main.ts', got %q", gen.genFile)
	}

	if gen.mappings == nil {
		t.Error("Expected mappings to be initialized")
	}

	if len(gen.mappings) != 0 {
		t.Errorf("Expected empty mappings, got %d", len(gen.mappings))
	}
}

func TestAddMapping(t *testing.T) {
	gen := NewGenerator("test.civet", "test.ts")

	src := token.Position{Line: 10, Column: 5}
	gen1 := token.Position{Line: 15, Column: 8}

	gen.AddMapping(src, gen1)

	if len(gen.mappings) != 1 {
		t.Fatalf("Expected 1 mapping, got %d", len(gen.mappings))
	}

	m := gen.mappings[0]
	if m.SourceLine != 10 || m.SourceColumn != 5 {
		t.Errorf("Expected source 10:5, got %d:%d", m.SourceLine, m.SourceColumn)
	}

	if m.GenLine != 15 || m.GenColumn != 8 {
		t.Errorf("Expected gen 15:8, got %d:%d", m.GenLine, m.GenColumn)
	}

	if m.Name != "" {
		t.Errorf("Expected no name, got %q", m.Name)
	}
}

func TestAddMappingWithName(t *testing.T) {
	gen := NewGenerator("test.civet", "test.ts")

	src := token.Position{Line: 5, Column: 10}
	gen1 := token.Position{Line: 7, Column: 12}

	gen.AddMappingWithName(src, gen1, "fetchUser")

	if len(gen.mappings) != 1 {
		t.Fatalf("Expected 1 mapping, got %d", len(gen.mappings))
	}

	m := gen.mappings[0]
	if m.Name != "fetchUser" {
		t.Errorf("Expected name 'fetchUser', got %q", m.Name)
	}
}

func TestMultipleMappings(t *testing.T) {
	gen := NewGenerator("test.civet", "test.ts")

	mappings := []struct {
		src  token.Position
		gen  token.Position
		name string
	}{
		{token.Position{Line: 1, Column: 1}, token.Position{Line: 1, Column: 1}, ""},
		{token.Position{Line: 5, Column: 10}, token.Position{Line: 8, Column: 5}, "fetchUser"},
		{token.Position{Line: 10, Column: 2}, token.Position{Line: 15, Column: 3}, ""},
		{token.Position{Line: 12, Column: 8}, token.Position{Line: 18, Column: 12}, "user"},
	}

	for _, m := range mappings {
		if m.name != "" {
			gen.AddMappingWithName(m.src, m.gen, m.name)
		} else {
			gen.AddMapping(m.src, m.gen)
		}
	}

	if len(gen.mappings) != 4 {
		t.Errorf("Expected 4 mappings, got %d", len(gen.mappings))
	}
}

func TestCollectNames(t *testing.T) {
	gen := NewGenerator("test.civet", "test.ts")

	gen.AddMappingWithName(token.Position{Line: 1, Column: 1}, token.Position{Line: 1, Column: 1}, "fetchUser")
	gen.AddMappingWithName(token.Position{Line: 2, Column: 1}, token.Position{Line: 2, Column: 1}, "user")
	gen.AddMappingWithName(token.Position{Line: 3, Column: 1}, token.Position{Line: 3, Column: 1}, "fetchUser") // duplicate
	gen.AddMappingWithName(token.Position{Line: 4, Column: 1}, token.Position{Line: 4, Column: 1}, "id")
	gen.AddMapping(token.Position{Line: 5, Column: 1}, token.Position{Line: 5, Column: 1}) // no name

	names := gen.collectNames()

	if len(names) != 3 {
		t.Errorf("Expected 3 unique names, got %d: %v", len(names), names)
	}

	expectedNames := map[string]bool{"fetchUser": false, "user": false, "id": false}
	for _, name := range names {
		if _, exists := expectedNames[name]; !exists {
			t.Errorf("Unexpected name %q in names list", name)
		}
		expectedNames[name] = true
	}

	for name, found := range expectedNames {
		if !found {
			t.Errorf("Expected name %q not found in names list", name)
		}
	}
}

func TestGenerateSourceMap(t *testing.T) {
	gen := NewGenerator("main.civet", "main.ts")

	gen.AddMapping(token.Position{Line: 1, Column: 0}, token.Position{Line: 1, Column: 0})
	gen.AddMappingWithName(token.Position{Line: 5, Column: 10}, token.Position{Line: 8, Column: 5}, "fetchUser")

	data, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse generated source map JSON: %v", err)
	}

	if version, ok := doc["version"].(float64); !ok || version != 3 {
		t.Errorf("Expected version 3, got %v", doc["version"])
	}

	if file, ok := doc["file"].(string); !ok || file != "main.ts" {
		t.Errorf("Expected file 'main.ts', got %v", doc["file"])
	}

	sources, ok := doc["sources"].([]interface{})
	if !ok || len(sources) != 1 {
		t.Errorf("Expected 1 source, got %v", doc["sources"])
	} else if sources[0].(string) != "main.civet" {
		t.Errorf("Expected source 'main.civet', got %v", sources[0])
	}

	names, ok := doc["names"].([]interface{})
	if !ok {
		t.Errorf("Expected names array, got %v", doc["names"])
	} else if len(names) != 1 {
		t.Errorf("Expected 1 name, got %d", len(names))
	} else if names[0].(string) != "fetchUser" {
		t.Errorf("Expected name 'fetchUser', got %v", names[0])
	}

	mappings, ok := doc["mappings"].(string)
	if !ok || mappings == "" {
		t.Errorf("Expected non-empty VLQ-encoded mappings, got %q", mappings)
	}
}

func TestGenerateInline(t *testing.T) {
	gen := NewGenerator("test.civet", "test.ts")
	gen.AddMapping(token.Position{Line: 1, Column: 0}, token.Position{Line: 1, Column: 0})

	inline, err := gen.GenerateInline()
	if err != nil {
		t.Fatalf("GenerateInline() error = %v", err)
	}

	if !strings.HasPrefix(inline, "//# sourceMappingURL=data:application/json;base64,") {
		t.Errorf("Expected inline source map comment, got %q", inline[:50])
	}

	parts := strings.Split(inline, ",")
	if len(parts) != 2 {
		t.Fatalf("Expected format '//# sourceMappingURL=data:application/json;base64,<data>', got %q", inline)
	}

	if len(parts[1]) == 0 {
		t.Error("Expected base64 data, got empty string")
	}
}

func TestGenerateEmpty(t *testing.T) {
	gen := NewGenerator("empty.civet", "empty.ts")

	data, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if version, ok := doc["version"].(float64); !ok || version != 3 {
		t.Errorf("Expected version 3, got %v", doc["version"])
	}

	names, ok := doc["names"].([]interface{})
	if !ok || len(names) != 0 {
		t.Errorf("Expected empty names array, got %v", doc["names"])
	}

	if mappings, ok := doc["mappings"].(string); !ok || mappings != "" {
		t.Errorf("Expected empty mappings for a generator with no recorded positions, got %q", mappings)
	}
}

func TestConsumerRoundTrip(t *testing.T) {
	gen := NewGenerator("main.civet", "main.ts")
	gen.AddMapping(token.Position{Line: 1, Column: 0}, token.Position{Line: 1, Column: 0})
	gen.AddMappingWithName(token.Position{Line: 5, Column: 10}, token.Position{Line: 8, Column: 5}, "fetchUser")

	data, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	consumer, err := NewConsumer(data)
	if err != nil {
		t.Fatalf("NewConsumer() error = %v", err)
	}

	pos, err := consumer.Source(8, 5)
	if err != nil {
		t.Fatalf("Source() error = %v", err)
	}
	if pos.Line != 5 || pos.Column != 10 {
		t.Errorf("Expected source 5:10, got %d:%d", pos.Line, pos.Column)
	}
	if pos.Filename != "main.civet" {
		t.Errorf("Expected filename 'main.civet', got %q", pos.Filename)
	}
}

func TestConsumerInvalidJSON(t *testing.T) {
	invalidJSON := `{invalid json`

	_, err := NewConsumer([]byte(invalidJSON))
	if err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
}
