package scene

import (
	"log/slog"

	"github.com/easelhq/easel/internal/doc"
)

// Bridge keeps selection state bidirectionally synchronized between
// engine pick events and the document model.
//
// Canvas to model: HandlePick and HandleClear translate the engine's
// native selection events into model selection, honoring the selection
// invariant (a selected layer implies its owning frame is the selected
// frame).
//
// Model to canvas: ApplySelection imperatively sets the engine's active
// object from the model - but only when it is not already active, which
// breaks the feedback loop with the pick handlers.
type Bridge struct {
	store *doc.Store
	eng   Engine
	rec   *Reconciler
}

// NewBridge creates a selection bridge and registers it for the
// engine's native pick events.
func NewBridge(store *doc.Store, eng Engine, rec *Reconciler) *Bridge {
	b := &Bridge{store: store, eng: eng, rec: rec}
	eng.SetPickHandler(b.HandlePick, b.HandleClear)
	return b
}

// HandlePick translates an engine pick of a render object into model
// selection. A layer-tagged object selects the layer (and thereby its
// owning frame); a frame-tagged object selects the frame and clears
// layer selection.
//
// Model errors here indicate the picked object references an entity the
// model no longer has - a reconciliation lag, contained and logged.
func (b *Bridge) HandlePick(obj Object) {
	tags, ok := obj.Tags()
	if !ok {
		slog.Debug("pick on untagged object ignored")
		return
	}
	var err error
	if tags.IsLayer() {
		// Layer ids are only unique within a frame; the pick must name
		// the owning frame from the tags, not let it be inferred.
		err = b.store.SelectLayersInFrame(tags.FrameID, []string{tags.LayerID})
	} else {
		err = b.store.SelectFrame(tags.FrameID)
	}
	if err != nil {
		slog.Error("pick selection rejected by model",
			"frame", tags.FrameID,
			"layer", tags.LayerID,
			"error", err,
		)
	}
}

// HandleClear translates a pick on empty canvas space. Layer selection is
// cleared but the selected frame is preserved: selecting "nothing" never
// implicitly deselects the working frame.
func (b *Bridge) HandleClear() {
	if err := b.store.SelectLayers(nil); err != nil {
		slog.Error("clearing layer selection failed", "error", err)
	}
}

// ApplySelection pushes the model's selection into the engine's native
// active object. Called when selection changes through non-canvas UI.
//
// The active object is only written when it differs from the current one;
// an unconditional write would echo back through the pick handlers and
// loop.
func (b *Bridge) ApplySelection() {
	sel := b.store.Selection()

	var want Object
	switch {
	case len(sel.LayerIDs) > 0:
		if obj, ok := b.rec.ObjectForLayer(sel.FrameID, sel.LayerIDs[0]); ok {
			want = obj
		}
	case sel.FrameID != "":
		if obj, ok := b.rec.ObjectForFrame(sel.FrameID); ok {
			want = obj
		}
	}

	current, hasActive := b.eng.Active()
	if want == nil {
		if hasActive {
			b.eng.SetActive(nil)
		}
		return
	}
	if hasActive && current == want {
		return // already active, avoid feedback loop
	}
	b.eng.SetActive(want)
}
