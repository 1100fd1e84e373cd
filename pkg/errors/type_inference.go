// Package errors provides error types and reporting infrastructure for
// the civetls language-service core.
package errors

import (
	"fmt"
	"go/token"
)

// CompileError represents a failure surfaced through
// FileMeta.ParseErrors: a transpile failure, an unresolved module
// specifier, or a malformed source map.
type CompileError struct {
	Message  string    // Human-readable error message
	Location token.Pos // Position in the generated (TGT) file, if known
	Hint     string    // Suggestion for fixing the error
	Category ErrorCategory
}

// ErrorCategory categorizes different kinds of errors surfaced by the host.
type ErrorCategory int

const (
	// ErrorCategoryTranspile indicates the external compile() call
	// failed or reported a diagnostic.
	ErrorCategoryTranspile ErrorCategory = iota
	// ErrorCategoryResolution indicates a module specifier could not
	// be resolved against the registered transpilers and path mappings.
	ErrorCategoryResolution
	// ErrorCategoryMapping indicates the generated source map is
	// malformed or fails a round-trip check.
	ErrorCategoryMapping
)

// Error implements the error interface
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.categoryString(), e.Message)
}

func (e *CompileError) categoryString() string {
	switch e.Category {
	case ErrorCategoryTranspile:
		return "Transpile Error"
	case ErrorCategoryResolution:
		return "Module Resolution Error"
	case ErrorCategoryMapping:
		return "Source Map Error"
	default:
		return "Compile Error"
	}
}

// NewTranspileError creates a new transpile-failure error
func NewTranspileError(message string, location token.Pos, hint string) *CompileError {
	return &CompileError{
		Message:  message,
		Location: location,
		Hint:     hint,
		Category: ErrorCategoryTranspile,
	}
}

// NewMappingError creates a new malformed-source-map error
func NewMappingError(message string, location token.Pos, hint string) *CompileError {
	return &CompileError{
		Message:  message,
		Location: location,
		Hint:     hint,
		Category: ErrorCategoryMapping,
	}
}

// FormatWithPosition formats the error with file position information
func (e *CompileError) FormatWithPosition(fset *token.FileSet) string {
	if fset == nil || !e.Location.IsValid() {
		return e.Error()
	}

	pos := fset.Position(e.Location)
	msg := fmt.Sprintf("%s:%d:%d: %s: %s",
		pos.Filename,
		pos.Line,
		pos.Column,
		e.categoryString(),
		e.Message,
	)

	if e.Hint != "" {
		msg += fmt.Sprintf("\n  Hint: %s", e.Hint)
	}

	return msg
}

// UnresolvedModuleError creates a standardized module-resolution failure
func UnresolvedModuleError(specifier, containingFile string) *CompileError {
	return &CompileError{
		Message:  fmt.Sprintf("cannot resolve module %q from %s", specifier, containingFile),
		Category: ErrorCategoryResolution,
		Hint:     "check baseUrl/paths configuration or the specifier's relative path",
	}
}

// RoundTripFailureError creates an error for a mapping segment whose
// remapped position doesn't match what the generator recorded.
func RoundTripFailureError(genLine, genCol int) *CompileError {
	return &CompileError{
		Message:  fmt.Sprintf("generated position %d:%d does not round-trip through its own mapping", genLine, genCol),
		Category: ErrorCategoryMapping,
	}
}
