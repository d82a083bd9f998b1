// Package docfile loads and saves document files: a YAML rendering of
// the frame tree, used by the CLI and the scenario harness.
//
// Loaded files pass two validation layers before becoming a model:
// a CUE schema (shape and value constraints) and the model integrity
// checks the schema cannot express (id uniqueness, exclusive layer
// ownership).
package docfile

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/easelhq/easel/internal/doc"
)

//go:embed schema.cue
var schemaCUE string

// CurrentVersion is the document file format version this package
// writes.
const CurrentVersion = 1

// Document is the on-disk document shape.
type Document struct {
	Version int         `yaml:"version" json:"version"`
	Frames  []doc.Frame `yaml:"frames" json:"frames"`
}

// ValidationError is a single schema or integrity violation.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation error codes.
const (
	ErrCodeSchema         = "SCHEMA"
	ErrCodeDuplicateFrame = "DUPLICATE_FRAME_ID"
	ErrCodeDuplicateLayer = "DUPLICATE_LAYER_ID"
	ErrCodeSharedChild    = "SHARED_CHILD_ID"
	ErrCodeDeepNesting    = "DEEP_NESTING"
)

// Load reads, validates, and decodes a document file.
// Returns all validation errors found, not just the first.
func Load(path string) (Document, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, []error{fmt.Errorf("read document: %w", err)}
	}
	return Parse(data)
}

// Parse validates and decodes document file bytes.
func Parse(data []byte) (Document, []error) {
	if errs := validateSchema(data); len(errs) > 0 {
		return Document{}, errs
	}

	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Document{}, []error{fmt.Errorf("decode document: %w", err)}
	}
	if errs := ValidateIntegrity(d.Frames); len(errs) > 0 {
		return Document{}, errs
	}
	return d, nil
}

// Save writes a document file.
func Save(path string, d Document) error {
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// validateSchema unifies the raw YAML value against the embedded CUE
// schema and collects every constraint violation.
func validateSchema(data []byte) []error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []error{&ValidationError{Code: ErrCodeSchema, Message: err.Error()}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing to compile it is a build
		// defect, not a document problem.
		return []error{fmt.Errorf("compile document schema: %w", err)}
	}
	docDef := schema.LookupPath(cue.ParsePath("#Document"))
	if err := docDef.Err(); err != nil {
		return []error{fmt.Errorf("lookup #Document: %w", err)}
	}

	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return []error{&ValidationError{Code: ErrCodeSchema, Message: err.Error()}}
	}

	unified := docDef.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, &ValidationError{Code: ErrCodeSchema, Message: e.Error()})
		}
		return errs
	}
	return nil
}

// ValidateIntegrity checks the model invariants a shape schema cannot:
// frame id uniqueness, layer id uniqueness within each frame, exclusive
// ownership of group children, and the one-level nesting limit.
func ValidateIntegrity(frames []doc.Frame) []error {
	var errs []error

	frameIDs := make(map[string]bool, len(frames))
	for _, f := range frames {
		if frameIDs[f.ID] {
			errs = append(errs, &ValidationError{
				Code:    ErrCodeDuplicateFrame,
				Message: fmt.Sprintf("frame id %q appears more than once", f.ID),
			})
		}
		frameIDs[f.ID] = true

		topLevel := make(map[string]bool, len(f.Layers))
		for _, l := range f.Layers {
			if topLevel[l.ID] {
				errs = append(errs, &ValidationError{
					Code:    ErrCodeDuplicateLayer,
					Message: fmt.Sprintf("layer id %q appears more than once in frame %q", l.ID, f.ID),
				})
			}
			topLevel[l.ID] = true
		}
		for _, l := range f.Layers {
			if l.Kind != doc.KindGroup {
				continue
			}
			for _, child := range l.Children {
				// Ownership is exclusive: a child id existing at top
				// level would mean the layer has two parents.
				if topLevel[child.ID] {
					errs = append(errs, &ValidationError{
						Code: ErrCodeSharedChild,
						Message: fmt.Sprintf("layer id %q is both a top-level layer and a child of group %q in frame %q",
							child.ID, l.ID, f.ID),
					})
				}
				if child.Kind == doc.KindGroup {
					errs = append(errs, &ValidationError{
						Code: ErrCodeDeepNesting,
						Message: fmt.Sprintf("group %q in frame %q contains nested group %q; one level of grouping is supported",
							l.ID, f.ID, child.ID),
					})
				}
			}
		}
	}
	return errs
}
