package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/easelhq/easel/internal/doc"
)

// Scenario defines a declarative editor test scenario.
// Scenarios execute a sequence of editor operations and assert on the
// resulting document, selection, and canvas draw order.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// IDs is an optional fixed id sequence for the store's id generator.
	// Defaults to id-1..id-64. Explicit sequences let steps reference the
	// ids of entities they are about to create.
	IDs []string `yaml:"ids,omitempty"`

	// Document is the optional initial frame set loaded before any step
	// runs. Loading clears history, matching document-open semantics.
	Document []doc.Frame `yaml:"document,omitempty"`

	// Steps is the ordered operation sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state after all steps.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single editor operation. Op selects the operation; the
// remaining fields parameterize it and are validated per op.
type Step struct {
	// Op is the operation name. See the Op* constants.
	Op string `yaml:"op"`

	// Frame is the target frame id.
	Frame string `yaml:"frame,omitempty"`

	// Layer is the target layer id.
	Layer string `yaml:"layer,omitempty"`

	// Layers lists layer ids for group and select_layers.
	Layers []string `yaml:"layers,omitempty"`

	// Name names a new frame (add_frame).
	Name string `yaml:"name,omitempty"`

	// Width/Height size a new frame (add_frame).
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`

	// Template is the layer template for add_layer.
	Template *doc.Layer `yaml:"template,omitempty"`

	// DX/DY are the drag deltas for drag_frame and drag_layer.
	DX float64 `yaml:"dx,omitempty"`
	DY float64 `yaml:"dy,omitempty"`

	// ScaleX/ScaleY are the gesture scale factors for resize ops.
	ScaleX float64 `yaml:"scale_x,omitempty"`
	ScaleY float64 `yaml:"scale_y,omitempty"`

	// Degrees is the absolute rotation for rotate_layer.
	Degrees float64 `yaml:"degrees,omitempty"`

	// Order is the new top-level layer order for reorder.
	Order []string `yaml:"order,omitempty"`

	// Abort ends a gesture step without committing.
	Abort bool `yaml:"abort,omitempty"`
}

// Step operation names.
const (
	OpAddFrame       = "add_frame"
	OpDeleteFrame    = "delete_frame"
	OpDuplicateFrame = "duplicate_frame"
	OpAddLayer       = "add_layer"
	OpDeleteLayer    = "delete_layer"
	OpReorder        = "reorder"
	OpGroup          = "group"
	OpUngroup        = "ungroup"
	OpDragFrame      = "drag_frame"
	OpDragLayer      = "drag_layer"
	OpResizeFrame    = "resize_frame"
	OpResizeLayer    = "resize_layer"
	OpRotateLayer    = "rotate_layer"
	OpSelectFrame    = "select_frame"
	OpSelectLayers   = "select_layers"
	OpUndo           = "undo"
	OpRedo           = "redo"
)

// Assertion validates final document or canvas state.
type Assertion struct {
	// Type selects the assertion. See the Assert* constants.
	Type string `yaml:"type"`

	// Keys is the expected draw order, back to front (draw_order).
	Keys []string `yaml:"keys,omitempty"`

	// Count is the expected count (object_count, frame_count).
	Count int `yaml:"count,omitempty"`

	// Frame/Layers are the expected selection (selection).
	Frame  string   `yaml:"frame,omitempty"`
	Layers []string `yaml:"layers,omitempty"`

	// Past/Future are the expected history depths (history).
	Past   int `yaml:"past,omitempty"`
	Future int `yaml:"future,omitempty"`
}

// Assertion type constants.
const (
	AssertDrawOrder   = "draw_order"
	AssertObjectCount = "object_count"
	AssertFrameCount  = "frame_count"
	AssertSelection   = "selection"
	AssertHistory     = "history"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step) error {
	needFrame := func() error {
		if st.Frame == "" {
			return fmt.Errorf("steps[%d] (%s): frame is required", index, st.Op)
		}
		return nil
	}
	needLayer := func() error {
		if err := needFrame(); err != nil {
			return err
		}
		if st.Layer == "" {
			return fmt.Errorf("steps[%d] (%s): layer is required", index, st.Op)
		}
		return nil
	}

	switch st.Op {
	case OpAddFrame, OpUndo, OpRedo:
		return nil
	case OpDeleteFrame, OpDuplicateFrame, OpSelectFrame, OpDragFrame, OpResizeFrame:
		return needFrame()
	case OpDeleteLayer, OpUngroup, OpDragLayer, OpResizeLayer, OpRotateLayer:
		return needLayer()
	case OpAddLayer:
		if err := needFrame(); err != nil {
			return err
		}
		if st.Template == nil {
			return fmt.Errorf("steps[%d] (%s): template is required", index, st.Op)
		}
		return nil
	case OpReorder:
		if err := needFrame(); err != nil {
			return err
		}
		if len(st.Order) == 0 {
			return fmt.Errorf("steps[%d] (%s): order is required", index, st.Op)
		}
		return nil
	case OpGroup:
		if err := needFrame(); err != nil {
			return err
		}
		if len(st.Layers) == 0 {
			return fmt.Errorf("steps[%d] (%s): layers is required", index, st.Op)
		}
		return nil
	case OpSelectLayers:
		return nil
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertDrawOrder:
		if len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: keys list is required for draw_order", index)
		}
	case AssertObjectCount, AssertFrameCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSelection, AssertHistory:
		// All fields optional; zero values assert empty selection or
		// empty history.
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
