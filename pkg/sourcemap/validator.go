package sourcemap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/remap"
)

// ValidationResult represents the result of source map validation.
type ValidationResult struct {
	Valid          bool
	Errors         []ValidationError
	Warnings       []ValidationWarning
	TotalMappings  int
	RoundTripTests int
	PassedTests    int
	Accuracy       float64 // percentage (0-100)
}

// ValidationError represents a validation error.
type ValidationError struct {
	Type    string
	Message string
	Line    int // 0-based generated line, when relevant
	Column  int // 0-based generated column, when relevant
}

// ValidationWarning represents a validation warning.
type ValidationWarning struct {
	Type    string
	Message string
}

// Validator validates Source Map v3 document correctness and consistency.
type Validator struct {
	doc    sm.Document
	strict bool // strict mode: warnings become errors
}

// NewValidator creates a new source map validator over an already-decoded
// Source Map v3 document.
func NewValidator(doc sm.Document) *Validator {
	return &Validator{doc: doc}
}

// NewValidatorFromFile loads and validates a source map file.
func NewValidatorFromFile(path string) (*Validator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source map file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read source map file: %w", err)
	}

	var doc sm.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse source map: %w", err)
	}

	return NewValidator(doc), nil
}

// SetStrict enables strict validation mode (warnings become errors).
func (v *Validator) SetStrict(strict bool) {
	v.strict = strict
}

// Validate performs comprehensive source map validation: schema shape,
// per-segment sanity, and round-trip projection through the map's own
// resolved lines.
func (v *Validator) Validate() ValidationResult {
	result := ValidationResult{
		Valid:    true,
		Errors:   make([]ValidationError, 0),
		Warnings: make([]ValidationWarning, 0),
	}

	v.validateSchema(&result)

	parsed, err := remap.ParseWithLines(v.doc)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Type:    "mappings",
			Message: fmt.Sprintf("failed to decode mappings: %v", err),
		})
		result.Valid = false
		return result
	}

	for _, line := range parsed.Lines {
		result.TotalMappings += len(line)
	}

	v.validateSegments(&result, parsed.Lines)
	v.validateRoundTrip(&result, parsed.Lines)
	v.validateConsistency(&result, parsed.Lines)

	if result.RoundTripTests > 0 {
		result.Accuracy = (float64(result.PassedTests) / float64(result.RoundTripTests)) * 100.0
	}

	if v.strict && len(result.Warnings) > 0 {
		for _, w := range result.Warnings {
			result.Errors = append(result.Errors, ValidationError{Type: w.Type, Message: w.Message})
		}
		result.Warnings = nil
		result.Valid = false
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

// validateSchema validates the basic Source Map v3 envelope.
func (v *Validator) validateSchema(result *ValidationResult) {
	if v.doc.Version != 3 {
		result.Errors = append(result.Errors, ValidationError{
			Type:    "schema",
			Message: fmt.Sprintf("unsupported version %d (expected 3)", v.doc.Version),
		})
	}

	if v.doc.File == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Type:    "schema",
			Message: "missing file field (optional but recommended for debugging)",
		})
	}

	if len(v.doc.Sources) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Type:    "schema",
			Message: "sources array is empty",
		})
	}

	if v.doc.Names == nil {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Type:    "schema",
			Message: "names array is nil (should be initialized, even if empty)",
		})
	}
}

// validateSegments validates individual resolved segments against the
// document's sources/names tables.
func (v *Validator) validateSegments(result *ValidationResult, lines sm.Lines) {
	for li, line := range lines {
		genCol := 0
		for si, seg := range line {
			genCol += seg.GenColDelta
			if seg.GenColDelta < 0 {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "segment",
					Message: fmt.Sprintf("line %d segment %d: negative generated column delta %d", li, si, seg.GenColDelta),
					Line:    li,
					Column:  genCol,
				})
			}

			if !seg.Mapped() {
				continue
			}

			if seg.SrcFileIx < 0 || seg.SrcFileIx >= len(v.doc.Sources) {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "segment",
					Message: fmt.Sprintf("line %d segment %d: source index %d out of range (%d sources)", li, si, seg.SrcFileIx, len(v.doc.Sources)),
					Line:    li,
					Column:  genCol,
				})
			}
			if seg.SrcLine < 0 || seg.SrcCol < 0 {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "segment",
					Message: fmt.Sprintf("line %d segment %d: negative source position %d:%d", li, si, seg.SrcLine, seg.SrcCol),
					Line:    li,
					Column:  genCol,
				})
			}
			if seg.Named() && (seg.NameIx < 0 || seg.NameIx >= len(v.doc.Names)) {
				result.Errors = append(result.Errors, ValidationError{
					Type:    "segment",
					Message: fmt.Sprintf("line %d segment %d: name index %d out of range (%d names)", li, si, seg.NameIx, len(v.doc.Names)),
					Line:    li,
					Column:  genCol,
				})
			}
		}
	}
}

// validateRoundTrip re-projects each mapped segment's generated position
// through the map's own lines and checks it resolves back to that exact
// segment. A failure here means the document's running-absolute deltas
// were computed inconsistently with its own encoding.
func (v *Validator) validateRoundTrip(result *ValidationResult, lines sm.Lines) {
	for li, line := range lines {
		genCol := 0
		for _, seg := range line {
			genCol += seg.GenColDelta
			if !seg.Mapped() {
				continue
			}

			result.RoundTripTests++
			pos, ok := remap.RemapPosition(li, genCol, lines)
			if !ok || pos.Line != seg.SrcLine || pos.Column != seg.SrcCol {
				result.Errors = append(result.Errors, ValidationError{
					Type: "round-trip",
					Message: fmt.Sprintf(
						"line %d column %d: expected source %d:%d, got %v (ok=%v)",
						li, genCol, seg.SrcLine, seg.SrcCol, pos, ok,
					),
					Line:   li,
					Column: genCol,
				})
				continue
			}
			result.PassedTests++
		}
	}
}

// validateConsistency checks for duplicate or malformed generated columns.
func (v *Validator) validateConsistency(result *ValidationResult, lines sm.Lines) {
	hasAny := false
	for li, line := range lines {
		if len(line) == 0 {
			continue
		}
		hasAny = true

		seen := make(map[int]bool, len(line))
		genCol := 0
		for _, seg := range line {
			genCol += seg.GenColDelta
			if seen[genCol] {
				result.Warnings = append(result.Warnings, ValidationWarning{
					Type:    "consistency",
					Message: fmt.Sprintf("line %d: duplicate generated column %d", li, genCol),
				})
			}
			seen[genCol] = true
		}
	}

	if !hasAny {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Type:    "consistency",
			Message: "source map has no mappings (empty file?)",
		})
	}
}

// ValidateJSON validates a source map JSON document.
func ValidateJSON(data []byte) (*ValidationResult, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Type: "json", Message: fmt.Sprintf("invalid JSON: %v", err)}},
		}, nil
	}

	var doc sm.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Type: "parse", Message: fmt.Sprintf("failed to parse source map: %v", err)}},
		}, nil
	}

	result := NewValidator(doc).Validate()
	return &result, nil
}

// String formats the validation result as a human-readable string.
func (r ValidationResult) String() string {
	var s string
	if r.Valid {
		s += "✓ Source map is VALID\n"
	} else {
		s += "✗ Source map is INVALID\n"
	}

	s += "\nStatistics:\n"
	s += fmt.Sprintf("  Total mappings: %d\n", r.TotalMappings)
	s += fmt.Sprintf("  Round-trip tests: %d\n", r.RoundTripTests)
	s += fmt.Sprintf("  Passed tests: %d\n", r.PassedTests)
	s += fmt.Sprintf("  Accuracy: %.2f%%\n", r.Accuracy)

	if len(r.Errors) > 0 {
		s += fmt.Sprintf("\nErrors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			s += fmt.Sprintf("  [%s] %s\n", e.Type, e.Message)
		}
	}

	if len(r.Warnings) > 0 {
		s += fmt.Sprintf("\nWarnings (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			s += fmt.Sprintf("  [%s] %s\n", w.Type, w.Message)
		}
	}

	return s
}
