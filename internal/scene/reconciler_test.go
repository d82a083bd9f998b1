package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easelhq/easel/internal/doc"
	"github.com/easelhq/easel/internal/scene"
	"github.com/easelhq/easel/internal/testutil"
)

func testFrames() []doc.Frame {
	return []doc.Frame{
		{
			ID: "f1", Name: "Hero", X: 100, Y: 100,
			Width: 400, Height: 300, Visible: true,
			Layers: []doc.Layer{
				{
					ID: "l1", Name: "Photo", Kind: doc.KindImage,
					Visible: true, Opacity: 100,
					X: 50, Y: 50, Width: 100, Height: 80,
					ScaleX: 1, ScaleY: 1,
					Image: &doc.ImageRef{Source: "photo.png"},
				},
				{
					ID: "l2", Name: "Overlay", Kind: doc.KindImage,
					Visible: true, Opacity: 50,
					X: 0, Y: 0, Width: 400, Height: 300,
					ScaleX: 1, ScaleY: 1,
					Image: &doc.ImageRef{Source: "overlay.png"},
				},
			},
		},
		{
			ID: "f2", Name: "Empty", X: 600, Y: 100,
			Width: 200, Height: 200, Visible: true,
		},
	}
}

func TestSyncCreatesCanonicalOrder(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)

	rec.Sync(testFrames())

	assert.Equal(t, 4, eng.Count())
	// Frames first, then renderable layers grouped by frame.
	assert.Equal(t, []string{"f1", "f2", "f1/l1", "f1/l2"}, eng.DrawOrderKeys())
	assert.Equal(t, 4, eng.Instantiated)
}

func TestSyncIsIdempotent(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	frames := testFrames()

	rec.Sync(frames)
	created, removed := eng.Instantiated, eng.Removed

	rec.Sync(frames)
	assert.Equal(t, created, eng.Instantiated, "no new objects on identical snapshot")
	assert.Equal(t, removed, eng.Removed)
	assert.Equal(t, []string{"f1", "f2", "f1/l1", "f1/l2"}, eng.DrawOrderKeys())
}

func TestSyncRemovesDeletedEntities(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	frames[0].Layers = frames[0].Layers[:1] // drop l2
	frames = frames[:1]                     // drop f2
	rec.Sync(frames)

	assert.Equal(t, 2, eng.Count())
	assert.Equal(t, []string{"f1", "f1/l1"}, eng.DrawOrderKeys())
	assert.Equal(t, 2, eng.Removed)
}

func TestSyncAppliesModelProps(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	obj, ok := rec.ObjectForLayer("f1", "l2")
	require.True(t, ok)
	// Opacity is normalized 0..1 and position is absolute.
	p := obj.Props()
	assert.Equal(t, 0.5, p.Opacity)
	assert.Equal(t, 100.0, p.X)
	assert.Equal(t, 100.0, p.Y)

	frames[0].Layers[1].Opacity = 100
	frames[0].X = 0
	rec.Sync(frames)
	p = obj.Props()
	assert.Equal(t, 1.0, p.Opacity)
	assert.Equal(t, 0.0, p.X)
}

func TestSyncPreservesLivePositionWithinEpsilon(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	obj, ok := rec.ObjectForLayer("f1", "l1")
	require.True(t, ok)

	// Nudge the live position by less than the epsilon.
	p := obj.Props()
	baseX, baseY := p.X, p.Y
	p.X += 0.6
	p.Y -= 0.4
	require.NoError(t, obj.SetProps(p))

	rec.Sync(frames)
	p = obj.Props()
	assert.Equal(t, baseX+0.6, p.X, "live position within epsilon is preserved")
	assert.Equal(t, baseY-0.4, p.Y)

	// Beyond the epsilon the model wins.
	p.X = baseX + 5
	require.NoError(t, obj.SetProps(p))
	rec.Sync(frames)
	assert.Equal(t, baseX, obj.Props().X)
}

func TestSyncFramePositionIgnoresEpsilon(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	obj, ok := rec.ObjectForFrame("f1")
	require.True(t, ok)
	p := obj.Props()
	p.X += 0.5
	require.NoError(t, obj.SetProps(p))

	rec.Sync(frames)
	assert.Equal(t, 100.0, obj.Props().X, "frames snap to the model unconditionally")
}

func TestSyncRecreatesCorruptObject(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	obj, ok := rec.ObjectForLayer("f1", "l1")
	require.True(t, ok)
	obj.(*testutil.FakeObject).Corrupt()

	created := eng.Instantiated
	rec.Sync(frames)

	assert.Equal(t, created+1, eng.Instantiated, "corrupt object is fully recreated")
	assert.Equal(t, 4, eng.Count())
	fresh, ok := rec.ObjectForLayer("f1", "l1")
	require.True(t, ok)
	assert.NotSame(t, obj, fresh)
	assert.Equal(t, []string{"f1", "f2", "f1/l1", "f1/l2"}, eng.DrawOrderKeys())
}

func TestSyncReassertsDroppedTags(t *testing.T) {
	eng := testutil.NewFakeEngine()
	eng.DropTagsOnUpdate = true
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	// Every update drops tags engine-side; the reconciler must have
	// reasserted them afterwards.
	rec.Sync(frames)
	for _, key := range eng.DrawOrderKeys() {
		assert.NotEqual(t, "?", key, "tags must be reasserted after updates")
	}
}

func TestSyncRemovesStrayObjects(t *testing.T) {
	eng := testutil.NewFakeEngine()
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	// An object created behind the reconciler's back is a defect to
	// clean up, not adopt.
	eng.Instantiate(scene.ObjectSpec{
		Kind: scene.ObjectFrame,
		Tags: scene.Tags{FrameID: "intruder"},
	}, func(scene.Object, error) {})
	require.Equal(t, 5, eng.Count())

	rec.Sync(frames)
	assert.Equal(t, 4, eng.Count())
	assert.Equal(t, []string{"f1", "f2", "f1/l1", "f1/l2"}, eng.DrawOrderKeys())
}

func TestZOrderRebuildSkippedWhileCreationInFlight(t *testing.T) {
	eng := testutil.NewFakeEngine()
	eng.Manual = true
	rec := scene.NewReconciler(eng)

	var settled int
	rec.SetOnSettle(func() { settled++ })

	frames := testFrames()
	rec.Sync(frames)
	require.Equal(t, 4, rec.PendingCount())

	// The engine attaches the objects before the creation callbacks run:
	// the engine count runs ahead of the tracked set and the rebuild must
	// not commit, or it would drop the in-flight objects.
	eng.AttachPending()
	require.Equal(t, 4, eng.Count())

	calls := eng.DrawOrderCalls
	rec.EnforceZOrder()
	assert.Equal(t, calls, eng.DrawOrderCalls, "rebuild must not commit while counts disagree")

	// A full pass inside the same window must leave the attached but
	// undelivered objects alone: they are in flight, not strays, and
	// removing them would lose the entities for good.
	rec.Sync(frames)
	assert.Equal(t, 4, eng.Count(), "in-flight objects survive a mid-window pass")
	assert.Equal(t, 4, eng.Instantiated, "no duplicate creations for pending keys")
	assert.Equal(t, 0, eng.Removed)

	eng.FireAttached()
	assert.Equal(t, 4, settled)
	assert.Equal(t, 0, rec.PendingCount())

	// The settle-triggered follow-up pass commits the rebuild.
	rec.Sync(frames)
	assert.Equal(t, []string{"f1", "f2", "f1/l1", "f1/l2"}, eng.DrawOrderKeys())
	assert.Greater(t, eng.DrawOrderCalls, calls)
}

func TestSyncAttachesDeferredCreations(t *testing.T) {
	eng := testutil.NewFakeEngine()
	eng.Manual = true
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	require.True(t, eng.CompleteNext())
	assert.Equal(t, 3, rec.PendingCount())

	eng.CompleteAll()
	assert.Equal(t, 0, rec.PendingCount())
	rec.Sync(frames)
	assert.Equal(t, []string{"f1", "f2", "f1/l1", "f1/l2"}, eng.DrawOrderKeys())
}

func TestFailedInstantiationRetriesNextPass(t *testing.T) {
	eng := testutil.NewFakeEngine()
	eng.FailInstantiate = true
	rec := scene.NewReconciler(eng)
	frames := testFrames()

	rec.Sync(frames)
	assert.Equal(t, 0, eng.Count())
	assert.Equal(t, 0, rec.PendingCount(), "failed creations leave the pending set")

	eng.FailInstantiate = false
	rec.Sync(frames)
	assert.Equal(t, 4, eng.Count())
}

func TestEnforceZOrderFightsBringToFront(t *testing.T) {
	eng := testutil.NewFakeEngine()
	eng.BringToFrontOnUpdate = true
	rec := scene.NewReconciler(eng)
	frames := testFrames()
	rec.Sync(frames)

	// Updates raised every object in turn; the rebuild at the end of the
	// pass must have restored the canonical order.
	rec.Sync(frames)
	assert.Equal(t, []string{"f1", "f2", "f1/l1", "f1/l2"}, eng.DrawOrderKeys())
}
