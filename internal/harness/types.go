package harness

import "github.com/easelhq/easel/internal/doc"

// StepTrace records the canvas draw order observed after one step.
// The per-step trace makes golden diffs point at the exact step where
// behavior diverged instead of only the final state.
type StepTrace struct {
	Op        string   `json:"op"`
	Target    string   `json:"target,omitempty"`
	DrawOrder []string `json:"draw_order"`
}

// FinalState is the snapshot taken after the last step.
type FinalState struct {
	Frames      []doc.Frame   `json:"frames"`
	Selection   doc.Selection `json:"selection"`
	DrawOrder   []string      `json:"draw_order"`
	ObjectCount int           `json:"object_count"`
	HistoryPast int           `json:"history_past"`
	HistoryFut  int           `json:"history_future"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: all steps executed and all
	// assertions held.
	Pass bool `json:"pass"`

	// Trace contains the per-step draw order observations.
	Trace []StepTrace `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the state snapshot after the last step.
	Final FinalState `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Trace: []StepTrace{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace records the draw order observed after a step.
func (r *Result) AddStepTrace(op, target string, drawOrder []string) {
	r.Trace = append(r.Trace, StepTrace{
		Op:        op,
		Target:    target,
		DrawOrder: drawOrder,
	})
}
