package harness

import (
	"fmt"

	"github.com/easelhq/easel/internal/doc"
	"github.com/easelhq/easel/internal/scene"
	"github.com/easelhq/easel/internal/testutil"
)

// Harness executes a scenario against a real store and reconciler wired
// to the in-memory fake engine.
//
// Steps run synchronously: after every operation the harness performs
// one reconcile pass, standing in for the session loop's
// change-notification wakeup. The engine runs in immediate mode, so
// instantiations complete inline and each step observes a settled
// canvas.
type Harness struct {
	store      *doc.Store
	engine     *testutil.FakeEngine
	reconciler *scene.Reconciler
	controller *scene.Controller
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh store with a fixed id generator, so
// generated frame and layer ids are deterministic and can be referenced
// by later steps and assertions.
func Run(scenario *Scenario) (*Result, error) {
	ids := scenario.IDs
	if len(ids) == 0 {
		ids = defaultIDs(64)
	}
	store := doc.NewStore(doc.NewFixedGenerator(ids...))
	engine := testutil.NewFakeEngine()
	reconciler := scene.NewReconciler(engine)

	h := &Harness{
		store:      store,
		engine:     engine,
		reconciler: reconciler,
		controller: scene.NewController(store, reconciler),
	}

	if len(scenario.Document) > 0 {
		store.SetFrames(scenario.Document)
	}
	h.sync()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		h.sync()
		result.AddStepTrace(step.Op, stepTarget(step), h.engine.DrawOrderKeys())
	}

	result.Final = h.snapshot()
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// sync performs one reconcile pass from the current model snapshot.
func (h *Harness) sync() {
	h.reconciler.Sync(h.store.Frames())
}

// execute runs a single step.
func (h *Harness) execute(step Step) error {
	switch step.Op {
	case OpAddFrame:
		var preset *doc.FramePreset
		if step.Name != "" || step.Width > 0 || step.Height > 0 {
			preset = &doc.FramePreset{
				Name:   step.Name,
				Width:  step.Width,
				Height: step.Height,
			}
		}
		h.store.AddFrame(preset)
		return nil

	case OpDeleteFrame:
		return h.store.DeleteFrame(step.Frame)

	case OpDuplicateFrame:
		_, err := h.store.DuplicateFrame(step.Frame)
		return err

	case OpAddLayer:
		_, err := h.store.AddLayer(step.Frame, *step.Template)
		return err

	case OpDeleteLayer:
		return h.store.DeleteLayer(step.Frame, step.Layer)

	case OpReorder:
		return h.store.ReorderLayers(step.Frame, step.Order)

	case OpGroup:
		_, err := h.store.GroupLayers(step.Frame, step.Layers)
		return err

	case OpUngroup:
		return h.store.UngroupLayers(step.Frame, step.Layer)

	case OpDragFrame:
		if err := h.controller.BeginFrameDrag(step.Frame); err != nil {
			return err
		}
		h.controller.DragBy(step.DX, step.DY)
		return h.finishGesture(step)

	case OpDragLayer:
		if err := h.controller.BeginLayerDrag(step.Frame, step.Layer); err != nil {
			return err
		}
		h.controller.DragBy(step.DX, step.DY)
		return h.finishGesture(step)

	case OpResizeFrame:
		if err := h.controller.BeginFrameResize(step.Frame); err != nil {
			return err
		}
		h.controller.ResizeTo(step.ScaleX, step.ScaleY)
		return h.finishGesture(step)

	case OpResizeLayer:
		if err := h.controller.BeginLayerResize(step.Frame, step.Layer); err != nil {
			return err
		}
		h.controller.ResizeTo(step.ScaleX, step.ScaleY)
		return h.finishGesture(step)

	case OpRotateLayer:
		if err := h.controller.BeginLayerRotate(step.Frame, step.Layer); err != nil {
			return err
		}
		h.controller.RotateTo(step.Degrees)
		return h.finishGesture(step)

	case OpSelectFrame:
		return h.store.SelectFrame(step.Frame)

	case OpSelectLayers:
		return h.store.SelectLayers(step.Layers)

	case OpUndo:
		h.store.Undo()
		return nil

	case OpRedo:
		h.store.Redo()
		return nil
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) finishGesture(step Step) error {
	if step.Abort {
		h.controller.Abort()
		return nil
	}
	return h.controller.End()
}

// snapshot captures the final state for assertions and golden files.
func (h *Harness) snapshot() FinalState {
	hist := h.store.History()
	return FinalState{
		Frames:      h.store.Frames(),
		Selection:   h.store.Selection(),
		DrawOrder:   h.engine.DrawOrderKeys(),
		ObjectCount: h.engine.Count(),
		HistoryPast: hist.PastLen(),
		HistoryFut:  hist.FutureLen(),
	}
}

func stepTarget(step Step) string {
	switch {
	case step.Frame != "" && step.Layer != "":
		return step.Frame + "/" + step.Layer
	case step.Frame != "":
		return step.Frame
	default:
		return ""
	}
}

func defaultIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i+1)
	}
	return ids
}
