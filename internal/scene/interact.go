package scene

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/easelhq/easel/internal/doc"
)

// gesturePhase is the interaction state machine:
// idle -> dragging/resizing/rotating -> idle.
type gesturePhase int

const (
	phaseIdle gesturePhase = iota
	phaseDragging
	phaseResizing
	phaseRotating
)

// childBaseline captures a child layer object's live offset from its
// frame origin at gesture start. During a frame drag every child is
// repositioned from these offsets so the frame moves as a rigid unit
// without waiting for a model round-trip.
type childBaseline struct {
	obj  Object
	offX float64
	offY float64
}

// Controller handles real-time drag/resize/rotate gestures.
//
// Intermediate movement events write directly to render object live
// transforms for responsiveness; the document model is only touched once,
// by End, which commits the final values (rounded to whole units) as a
// single patch. An interrupted gesture (Abort) commits nothing - the
// model stays at its last-committed state and the next reconcile pass
// snaps the canvas back.
//
// Continuous gestures never push history; only their structural side
// effects, if any, are captured via the discrete actions that caused
// them.
type Controller struct {
	store *doc.Store
	rec   *Reconciler

	phase    gesturePhase
	tags     Tags
	obj      Object
	baseLive Props           // target's live props at gesture start
	baseX    float64         // model position baseline (frame: absolute, layer: frame-relative)
	baseY    float64
	children []childBaseline // frame drags only

	dx, dy   float64 // accumulated drag delta
	scaleX   float64 // live resize scale relative to baseline
	scaleY   float64
	rotation float64 // live rotation, degrees
}

// NewController creates an interaction controller.
func NewController(store *doc.Store, rec *Reconciler) *Controller {
	return &Controller{store: store, rec: rec}
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	return c.phase != phaseIdle
}

// BeginFrameDrag starts dragging a frame and, rigidly, all its layers.
// The model entity is read exactly once, here, as the delta baseline.
func (c *Controller) BeginFrameDrag(frameID string) error {
	if c.phase != phaseIdle {
		return fmt.Errorf("gesture already active")
	}
	frame, ok := c.store.Frame(frameID)
	if !ok {
		return doc.NewFrameNotFound(frameID)
	}
	obj, ok := c.rec.ObjectForFrame(frameID)
	if !ok {
		return fmt.Errorf("no render object for frame %s", frameID)
	}

	c.phase = phaseDragging
	c.tags = Tags{FrameID: frameID}
	c.obj = obj
	c.baseLive = obj.Props()
	c.baseX, c.baseY = frame.X, frame.Y
	c.dx, c.dy = 0, 0

	// Capture live per-layer offsets relative to the frame origin.
	c.children = c.children[:0]
	for _, child := range c.rec.layerObjectsForFrame(frameID) {
		p := child.Props()
		c.children = append(c.children, childBaseline{
			obj:  child,
			offX: p.X - c.baseLive.X,
			offY: p.Y - c.baseLive.Y,
		})
	}
	return nil
}

// BeginLayerDrag starts dragging a single top-level layer.
func (c *Controller) BeginLayerDrag(frameID, layerID string) error {
	if c.phase != phaseIdle {
		return fmt.Errorf("gesture already active")
	}
	layer, ok := c.store.Layer(frameID, layerID)
	if !ok {
		return doc.NewLayerNotFound(frameID, layerID)
	}
	obj, ok := c.rec.ObjectForLayer(frameID, layerID)
	if !ok {
		return fmt.Errorf("no render object for layer %s/%s", frameID, layerID)
	}

	c.phase = phaseDragging
	c.tags = Tags{FrameID: frameID, LayerID: layerID}
	c.obj = obj
	c.baseLive = obj.Props()
	c.baseX, c.baseY = layer.X, layer.Y
	c.dx, c.dy = 0, 0
	c.children = c.children[:0]
	return nil
}

// DragBy applies an incremental movement event. May fire at high
// frequency; writes only live transforms.
//
// Z-order is re-enforced on every event: the engine brings the
// manipulated object to the front on its own, and moving must never be
// allowed to visually reorder drawing.
func (c *Controller) DragBy(dx, dy float64) {
	if c.phase != phaseDragging {
		return
	}
	c.dx += dx
	c.dy += dy

	p := c.obj.Props()
	p.X = c.baseLive.X + c.dx
	p.Y = c.baseLive.Y + c.dy
	c.writeLive(c.obj, p)

	if !c.tags.IsLayer() {
		for _, cb := range c.children {
			cp := cb.obj.Props()
			cp.X = c.baseLive.X + c.dx + cb.offX
			cp.Y = c.baseLive.Y + c.dy + cb.offY
			c.writeLive(cb.obj, cp)
		}
	}
	c.rec.EnforceZOrder()
}

// BeginFrameResize starts resizing a frame. Live resizing is expressed
// as scale on the render object; End folds it back into explicit
// width/height.
func (c *Controller) BeginFrameResize(frameID string) error {
	if c.phase != phaseIdle {
		return fmt.Errorf("gesture already active")
	}
	frame, ok := c.store.Frame(frameID)
	if !ok {
		return doc.NewFrameNotFound(frameID)
	}
	obj, ok := c.rec.ObjectForFrame(frameID)
	if !ok {
		return fmt.Errorf("no render object for frame %s", frameID)
	}
	c.phase = phaseResizing
	c.tags = Tags{FrameID: frameID}
	c.obj = obj
	c.baseLive = obj.Props()
	c.baseX, c.baseY = frame.Width, frame.Height
	c.scaleX, c.scaleY = 1, 1
	return nil
}

// BeginLayerResize starts resizing a layer. Layer scale factors are model
// state, so End commits the scale itself rather than folding it away.
func (c *Controller) BeginLayerResize(frameID, layerID string) error {
	if c.phase != phaseIdle {
		return fmt.Errorf("gesture already active")
	}
	layer, ok := c.store.Layer(frameID, layerID)
	if !ok {
		return doc.NewLayerNotFound(frameID, layerID)
	}
	obj, ok := c.rec.ObjectForLayer(frameID, layerID)
	if !ok {
		return fmt.Errorf("no render object for layer %s/%s", frameID, layerID)
	}
	c.phase = phaseResizing
	c.tags = Tags{FrameID: frameID, LayerID: layerID}
	c.obj = obj
	c.baseLive = obj.Props()
	c.baseX, c.baseY = layer.ScaleX, layer.ScaleY
	c.scaleX, c.scaleY = 1, 1
	return nil
}

// ResizeTo applies a live scale relative to the gesture baseline.
func (c *Controller) ResizeTo(scaleX, scaleY float64) {
	if c.phase != phaseResizing {
		return
	}
	c.scaleX, c.scaleY = scaleX, scaleY

	p := c.obj.Props()
	p.ScaleX = c.baseLive.ScaleX * scaleX
	p.ScaleY = c.baseLive.ScaleY * scaleY
	c.writeLive(c.obj, p)
	c.rec.EnforceZOrder()
}

// BeginLayerRotate starts rotating a layer.
func (c *Controller) BeginLayerRotate(frameID, layerID string) error {
	if c.phase != phaseIdle {
		return fmt.Errorf("gesture already active")
	}
	layer, ok := c.store.Layer(frameID, layerID)
	if !ok {
		return doc.NewLayerNotFound(frameID, layerID)
	}
	obj, ok := c.rec.ObjectForLayer(frameID, layerID)
	if !ok {
		return fmt.Errorf("no render object for layer %s/%s", frameID, layerID)
	}
	c.phase = phaseRotating
	c.tags = Tags{FrameID: frameID, LayerID: layerID}
	c.obj = obj
	c.baseLive = obj.Props()
	c.rotation = layer.Rotation
	return nil
}

// RotateTo applies a live absolute rotation in degrees.
func (c *Controller) RotateTo(deg float64) {
	if c.phase != phaseRotating {
		return
	}
	c.rotation = deg
	p := c.obj.Props()
	p.Rotation = deg
	c.writeLive(c.obj, p)
	c.rec.EnforceZOrder()
}

// End completes the active gesture, committing the final authoritative
// values (rounded to whole units) to the model as a single patch.
func (c *Controller) End() error {
	defer c.reset()

	switch c.phase {
	case phaseIdle:
		return fmt.Errorf("no active gesture")

	case phaseDragging:
		x := math.Round(c.baseX + c.dx)
		y := math.Round(c.baseY + c.dy)
		if c.tags.IsLayer() {
			return c.store.UpdateLayer(c.tags.FrameID, c.tags.LayerID, doc.LayerPatch{
				X: doc.F64(x),
				Y: doc.F64(y),
			})
		}
		return c.store.UpdateFrame(c.tags.FrameID, doc.FramePatch{
			X: doc.F64(x),
			Y: doc.F64(y),
		})

	case phaseResizing:
		if c.tags.IsLayer() {
			return c.store.UpdateLayer(c.tags.FrameID, c.tags.LayerID, doc.LayerPatch{
				ScaleX: doc.F64(c.baseX * c.scaleX),
				ScaleY: doc.F64(c.baseY * c.scaleY),
			})
		}
		// Fold live scale into explicit dimensions and reset the object's
		// scale to identity, otherwise the next resize compounds it.
		width := math.Round(c.baseX * c.scaleX)
		height := math.Round(c.baseY * c.scaleY)
		p := c.obj.Props()
		p.ScaleX, p.ScaleY = 1, 1
		p.Width, p.Height = width, height
		c.writeLive(c.obj, p)
		return c.store.UpdateFrame(c.tags.FrameID, doc.FramePatch{
			Width:  doc.F64(width),
			Height: doc.F64(height),
		})

	case phaseRotating:
		return c.store.UpdateLayer(c.tags.FrameID, c.tags.LayerID, doc.LayerPatch{
			Rotation: doc.F64(math.Round(c.rotation)),
		})
	}
	return nil
}

// Abort discards the active gesture without committing. The model keeps
// its last-committed state; reconciliation restores the canvas from it.
func (c *Controller) Abort() {
	if c.phase == phaseIdle {
		return
	}
	slog.Debug("gesture aborted",
		"frame", c.tags.FrameID,
		"layer", c.tags.LayerID,
	)
	c.reset()
}

func (c *Controller) reset() {
	c.phase = phaseIdle
	c.tags = Tags{}
	c.obj = nil
	c.children = c.children[:0]
	c.dx, c.dy = 0, 0
	c.scaleX, c.scaleY = 0, 0
	c.rotation = 0
}

// writeLive pushes props to a render object during a gesture. Failures
// here are contained like all render errors; the object will be repaired
// or recreated by the next reconcile pass.
func (c *Controller) writeLive(obj Object, p Props) {
	if err := obj.SetProps(p); err != nil {
		slog.Error("live transform write failed",
			"frame", c.tags.FrameID,
			"layer", c.tags.LayerID,
			"error", err,
		)
	}
}
