package errors

import (
	"go/token"
	"strings"
	"testing"
)

func TestCompileError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompileError
		expected string
	}{
		{
			name: "transpile error",
			err: &CompileError{
				Message:  "unexpected indentation",
				Category: ErrorCategoryTranspile,
			},
			expected: "Transpile Error: unexpected indentation",
		},
		{
			name: "module resolution error",
			err: &CompileError{
				Message:  "cannot resolve module",
				Category: ErrorCategoryResolution,
			},
			expected: "Module Resolution Error: cannot resolve module",
		},
		{
			name: "source map error",
			err: &CompileError{
				Message:  "mapping does not round-trip",
				Category: ErrorCategoryMapping,
			},
			expected: "Source Map Error: mapping does not round-trip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNewTranspileError(t *testing.T) {
	err := NewTranspileError("test message", token.Pos(42), "test hint")

	if err.Message != "test message" {
		t.Errorf("Message = %q, want %q", err.Message, "test message")
	}
	if err.Location != token.Pos(42) {
		t.Errorf("Location = %d, want %d", err.Location, 42)
	}
	if err.Hint != "test hint" {
		t.Errorf("Hint = %q, want %q", err.Hint, "test hint")
	}
	if err.Category != ErrorCategoryTranspile {
		t.Errorf("Category = %d, want %d", err.Category, ErrorCategoryTranspile)
	}
}

func TestNewMappingError(t *testing.T) {
	err := NewMappingError("mapping error", token.Pos(100), "fix hint")

	if err.Category != ErrorCategoryMapping {
		t.Errorf("Category = %d, want %d", err.Category, ErrorCategoryMapping)
	}
}

func TestFormatWithPosition(t *testing.T) {
	fset := token.NewFileSet()
	file := fset.AddFile("main.civet.ts", -1, 100)

	pos := file.Pos(10)

	err := &CompileError{
		Message:  "test error",
		Location: pos,
		Category: ErrorCategoryTranspile,
		Hint:     "try this fix",
	}

	formatted := err.FormatWithPosition(fset)

	if !strings.Contains(formatted, "main.civet.ts") {
		t.Errorf("formatted error missing filename: %s", formatted)
	}
	if !strings.Contains(formatted, "Transpile Error") {
		t.Errorf("formatted error missing category: %s", formatted)
	}
	if !strings.Contains(formatted, "test error") {
		t.Errorf("formatted error missing message: %s", formatted)
	}
	if !strings.Contains(formatted, "Hint: try this fix") {
		t.Errorf("formatted error missing hint: %s", formatted)
	}
}

func TestFormatWithPosition_NoFileSet(t *testing.T) {
	err := &CompileError{
		Message:  "test error",
		Location: token.Pos(42),
		Category: ErrorCategoryTranspile,
	}

	formatted := err.FormatWithPosition(nil)
	expected := err.Error()

	if formatted != expected {
		t.Errorf("FormatWithPosition(nil) = %q, want %q", formatted, expected)
	}
}

func TestUnresolvedModuleError(t *testing.T) {
	err := UnresolvedModuleError("./missing", "src/main.civet")

	if !strings.Contains(err.Message, "./missing") {
		t.Errorf("Message should contain specifier: %s", err.Message)
	}
	if !strings.Contains(err.Message, "src/main.civet") {
		t.Errorf("Message should mention containing file: %s", err.Message)
	}
	if !strings.Contains(err.Hint, "baseUrl") {
		t.Errorf("Hint should mention baseUrl/paths: %s", err.Hint)
	}
	if err.Category != ErrorCategoryResolution {
		t.Errorf("Category = %d, want %d", err.Category, ErrorCategoryResolution)
	}
}

func TestRoundTripFailureError(t *testing.T) {
	err := RoundTripFailureError(4, 10)

	if !strings.Contains(err.Message, "4:10") {
		t.Errorf("Message should contain position: %s", err.Message)
	}
	if !strings.Contains(err.Message, "round-trip") {
		t.Errorf("Message should mention round-trip: %s", err.Message)
	}
	if err.Category != ErrorCategoryMapping {
		t.Errorf("Category = %d, want %d", err.Category, ErrorCategoryMapping)
	}
}
