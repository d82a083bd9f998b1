package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easelhq/easel/internal/doc"
	"github.com/easelhq/easel/internal/scene"
	"github.com/easelhq/easel/internal/testutil"
)

// canvasFixture builds a store with one frame at (100,100) holding one
// layer at (50,50), reconciled into a fake engine.
func canvasFixture(t *testing.T) (*doc.Store, *testutil.FakeEngine, *scene.Reconciler, *scene.Controller) {
	t.Helper()
	s := doc.NewStore(doc.NewFixedGenerator("f1", "l1", "l2"))
	fid := s.AddFrame(&doc.FramePreset{Name: "Hero", Width: 400, Height: 300})
	require.NoError(t, s.UpdateFrame(fid, doc.FramePatch{X: doc.F64(100), Y: doc.F64(100)}))

	layer := doc.Layer{
		Name: "Photo", Kind: doc.KindImage,
		X: 50, Y: 50, Width: 100, Height: 80,
		Image: &doc.ImageRef{Source: "photo.png"},
	}
	_, err := s.AddLayer(fid, layer)
	require.NoError(t, err)

	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	rec.Sync(s.Frames())
	return s, eng, rec, scene.NewController(s, rec)
}

func TestFrameDragMovesChildrenRigidly(t *testing.T) {
	s, _, rec, ctl := canvasFixture(t)

	require.NoError(t, ctl.BeginFrameDrag("f1"))
	ctl.DragBy(30, 20)
	ctl.DragBy(20, 30)

	// Live: frame and child both followed, child keeping its offset.
	frameObj, _ := rec.ObjectForFrame("f1")
	layerObj, _ := rec.ObjectForLayer("f1", "l1")
	assert.Equal(t, 150.0, frameObj.Props().X)
	assert.Equal(t, 150.0, frameObj.Props().Y)
	assert.Equal(t, 200.0, layerObj.Props().X)
	assert.Equal(t, 200.0, layerObj.Props().Y)

	// Model: untouched until End.
	f, _ := s.Frame("f1")
	assert.Equal(t, 100.0, f.X)

	require.NoError(t, ctl.End())
	f, _ = s.Frame("f1")
	assert.Equal(t, 150.0, f.X)
	assert.Equal(t, 150.0, f.Y)

	// The layer's frame-relative position is part of the rigid unit and
	// never changes.
	l, _ := s.Layer("f1", "l1")
	assert.Equal(t, 50.0, l.X)
	assert.Equal(t, 50.0, l.Y)
	assert.False(t, ctl.Active())
}

func TestDragCommitsRoundedValues(t *testing.T) {
	s, _, _, ctl := canvasFixture(t)

	require.NoError(t, ctl.BeginLayerDrag("f1", "l1"))
	ctl.DragBy(10.4, 10.6)
	require.NoError(t, ctl.End())

	l, _ := s.Layer("f1", "l1")
	assert.Equal(t, 60.0, l.X)
	assert.Equal(t, 61.0, l.Y)
}

func TestDragDoesNotPushHistory(t *testing.T) {
	s, _, _, ctl := canvasFixture(t)
	base := s.History().PastLen()

	require.NoError(t, ctl.BeginFrameDrag("f1"))
	ctl.DragBy(40, 0)
	require.NoError(t, ctl.End())

	assert.Equal(t, base, s.History().PastLen())
}

func TestLayerResizeCommitsScale(t *testing.T) {
	s, _, rec, ctl := canvasFixture(t)

	require.NoError(t, ctl.BeginLayerResize("f1", "l1"))
	ctl.ResizeTo(2, 1.5)

	obj, _ := rec.ObjectForLayer("f1", "l1")
	assert.Equal(t, 2.0, obj.Props().ScaleX)
	assert.Equal(t, 1.5, obj.Props().ScaleY)

	require.NoError(t, ctl.End())
	l, _ := s.Layer("f1", "l1")
	assert.Equal(t, 2.0, l.ScaleX)
	assert.Equal(t, 1.5, l.ScaleY)
}

func TestFrameResizeFoldsScaleIntoDimensions(t *testing.T) {
	s, _, rec, ctl := canvasFixture(t)

	require.NoError(t, ctl.BeginFrameResize("f1"))
	ctl.ResizeTo(1.5, 2)
	require.NoError(t, ctl.End())

	f, _ := s.Frame("f1")
	assert.Equal(t, 600.0, f.Width)
	assert.Equal(t, 600.0, f.Height)

	// The live object carries explicit dimensions and identity scale, so
	// the next resize does not compound.
	obj, _ := rec.ObjectForFrame("f1")
	p := obj.Props()
	assert.Equal(t, 1.0, p.ScaleX)
	assert.Equal(t, 1.0, p.ScaleY)
	assert.Equal(t, 600.0, p.Width)
	assert.Equal(t, 600.0, p.Height)
}

func TestRotateCommitsRoundedDegrees(t *testing.T) {
	s, _, _, ctl := canvasFixture(t)

	require.NoError(t, ctl.BeginLayerRotate("f1", "l1"))
	ctl.RotateTo(44.6)
	require.NoError(t, ctl.End())

	l, _ := s.Layer("f1", "l1")
	assert.Equal(t, 45.0, l.Rotation)
}

func TestAbortCommitsNothing(t *testing.T) {
	s, _, rec, ctl := canvasFixture(t)

	require.NoError(t, ctl.BeginFrameDrag("f1"))
	ctl.DragBy(40, 40)
	ctl.Abort()

	f, _ := s.Frame("f1")
	assert.Equal(t, 100.0, f.X)
	assert.Equal(t, 100.0, f.Y)
	assert.False(t, ctl.Active())

	// Next reconcile pass snaps the canvas back to the model.
	rec.Sync(s.Frames())
	obj, _ := rec.ObjectForFrame("f1")
	assert.Equal(t, 100.0, obj.Props().X)
}

func TestGestureExclusivity(t *testing.T) {
	_, _, _, ctl := canvasFixture(t)

	require.NoError(t, ctl.BeginFrameDrag("f1"))
	assert.ErrorContains(t, ctl.BeginLayerDrag("f1", "l1"), "gesture already active")
	assert.ErrorContains(t, ctl.BeginFrameResize("f1"), "gesture already active")

	ctl.Abort()
	assert.ErrorContains(t, ctl.End(), "no active gesture")
}

func TestBeginRejectsUnknownTargets(t *testing.T) {
	_, _, _, ctl := canvasFixture(t)

	assert.True(t, doc.IsNotFound(ctl.BeginFrameDrag("missing")))
	assert.True(t, doc.IsNotFound(ctl.BeginLayerDrag("f1", "missing")))
	assert.True(t, doc.IsNotFound(ctl.BeginLayerRotate("missing", "l1")))
}

func TestDragEnforcesZOrderPerEvent(t *testing.T) {
	_, eng, _, ctl := canvasFixture(t)
	eng.BringToFrontOnUpdate = true

	require.NoError(t, ctl.BeginFrameDrag("f1"))
	calls := eng.DrawOrderCalls
	ctl.DragBy(5, 5)
	assert.Greater(t, eng.DrawOrderCalls, calls, "every movement event re-enforces z-order")
	assert.Equal(t, []string{"f1", "f1/l1"}, eng.DrawOrderKeys())
	require.NoError(t, ctl.End())
}
