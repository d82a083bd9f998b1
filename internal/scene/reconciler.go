package scene

import (
	"log/slog"
	"math"
	"sync"

	"github.com/easelhq/easel/internal/doc"
)

// DefaultEpsilon is the position tolerance, in canvas units, under which
// a layer's live position is preserved instead of being overwritten from
// the model. This keeps a reconcile pass from clobbering a position the
// interaction controller just wrote live but that has not yet
// round-tripped through a model commit.
const DefaultEpsilon = 1.0

// Reconciler diffs the document model against the live render object set
// and applies minimal create/update/remove operations.
//
// INVARIANTS upheld by Sync:
//   - exactly one render object per frame and per renderable layer,
//     keyed by entity id
//   - every object's live properties match its source entity (modulo the
//     layer position epsilon)
//   - draw order matches the canonical model order, rebuilt from scratch
//     every pass
//
// Thread-safety model:
//   - Sync and EnforceZOrder: called from the single session loop (and
//     EnforceZOrder additionally from the interaction controller, which
//     runs on the same loop)
//   - instantiation done callbacks: may arrive from any goroutine; the
//     object table is guarded by a mutex for that reason
//
// Errors during reconciliation are contained: they are logged and never
// propagate to the document layer. The document is authoritative even
// when rendering temporarily lags.
type Reconciler struct {
	engine  Engine
	epsilon float64

	mu        sync.Mutex
	objects   map[string]Object // entity key -> live object
	pending   map[string]bool   // entity key -> instantiation in flight
	lastOrder []string          // canonical entity keys from the last Sync

	onSettle func() // fired after an async instantiation attaches
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithEpsilon overrides the layer position tolerance.
func WithEpsilon(eps float64) ReconcilerOption {
	return func(r *Reconciler) {
		r.epsilon = eps
	}
}

// NewReconciler creates a Reconciler bound to an engine.
func NewReconciler(engine Engine, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		engine:  engine,
		epsilon: DefaultEpsilon,
		objects: make(map[string]Object),
		pending: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetOnSettle registers a callback fired after each asynchronous
// instantiation attaches its object. The session uses it to schedule a
// follow-up pass so the deferred z-order rebuild can commit.
func (r *Reconciler) SetOnSettle(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSettle = fn
}

// Sync reconciles the engine's object set against the given model
// snapshot. Removals are applied first, then updates, then asynchronous
// additions, then a full z-order rebuild.
//
// Sync is idempotent: running it twice against the same snapshot performs
// no additional create/remove operations and leaves draw order unchanged.
func (r *Reconciler) Sync(frames []doc.Frame) {
	entities := enumerate(frames)
	desired := make(map[string]entity, len(entities))
	for _, e := range entities {
		desired[e.key] = e
	}

	r.mu.Lock()

	// Removals first, releasing engine-side resources before anything new
	// is created.
	for key, obj := range r.objects {
		if _, ok := desired[key]; !ok {
			r.engine.Remove(obj)
			delete(r.objects, key)
			slog.Debug("render object removed", "entity", key)
		}
	}
	r.removeStraysLocked()

	// Updates for surviving entities.
	var recreate []entity
	for key, e := range desired {
		obj, ok := r.objects[key]
		if !ok {
			continue
		}
		props := e.props
		if e.tags.IsLayer() {
			// Preserve a live position within epsilon of the model value.
			live := obj.Props()
			if math.Abs(live.X-props.X) <= r.epsilon && math.Abs(live.Y-props.Y) <= r.epsilon {
				props.X, props.Y = live.X, live.Y
			}
		}
		if err := obj.SetProps(props); err != nil {
			// Corruption: no partial repair, remove and fully recreate.
			slog.Error("render object corrupt, recreating",
				"entity", key,
				"error", err,
			)
			r.engine.Remove(obj)
			delete(r.objects, key)
			recreate = append(recreate, e)
			continue
		}
		// Engines drop tags on their own batch updates; reassert as a
		// post-condition of every update.
		obj.SetTags(e.tags)
	}

	// Recreations are queued as pending before the additions scan, or the
	// scan would pick up the just-removed keys a second time.
	for _, e := range recreate {
		r.pending[e.key] = true
	}

	// Additions: anything desired but not live and not already in flight.
	additions := recreate
	for _, e := range entities {
		if _, live := r.objects[e.key]; live {
			continue
		}
		if r.pending[e.key] {
			continue
		}
		r.pending[e.key] = true
		additions = append(additions, e)
	}

	r.lastOrder = make([]string, len(entities))
	for i, e := range entities {
		r.lastOrder[i] = e.key
	}
	r.mu.Unlock()

	// Instantiate outside the lock: engines that complete synchronously
	// (the test fake in immediate mode) re-enter the object table from
	// the done callback.
	for _, e := range additions {
		r.instantiate(e)
	}

	r.EnforceZOrder()
}

// instantiate kicks off asynchronous creation for an entity whose key has
// already been marked pending.
func (r *Reconciler) instantiate(e entity) {
	spec := ObjectSpec{
		Kind:  e.kind,
		Tags:  e.tags,
		Props: e.props,
		Image: e.image,
	}
	key := e.key
	r.engine.Instantiate(spec, func(obj Object, err error) {
		r.mu.Lock()
		delete(r.pending, key)
		if err != nil {
			r.mu.Unlock()
			// Contained: the next pass will retry the addition.
			slog.Error("render object instantiation failed",
				"entity", key,
				"error", err,
			)
			return
		}
		r.objects[key] = obj
		settle := r.onSettle
		r.mu.Unlock()

		slog.Debug("render object attached", "entity", key)
		if settle != nil {
			settle()
		}
	})
}

// removeStraysLocked removes engine objects the reconciler does not
// track. The render object set is owned exclusively by this package;
// anything else in the engine is a defect to be cleaned up, not adopted.
// Caller must hold r.mu.
func (r *Reconciler) removeStraysLocked() {
	tracked := make(map[Object]bool, len(r.objects))
	for _, obj := range r.objects {
		tracked[obj] = true
	}
	for _, obj := range r.engine.Objects() {
		if tracked[obj] {
			continue
		}
		// An untracked object whose key is pending is not a stray: the
		// engine has attached it but the done callback has not delivered
		// it yet. Removing it here would orphan the entity forever.
		if tags, ok := obj.Tags(); ok && r.pending[tags.EntityKey()] {
			continue
		}
		r.engine.Remove(obj)
		slog.Debug("stray render object removed")
	}
}

// EnforceZOrder rebuilds the engine draw order from scratch in the
// canonical order of the last Sync. Incremental reordering is
// deliberately avoided: the engine's own selection behavior brings
// manipulated objects to the front, and incremental APIs are unreliable
// under that interference.
//
// The rebuild only commits when the ordered entity count exactly matches
// the engine's live object count. A mismatch signals an in-flight
// asynchronous creation or removal; committing then would drop the
// in-flight object, so the rebuild is skipped until counts agree.
func (r *Reconciler) EnforceZOrder() {
	r.mu.Lock()
	ordered := make([]Object, 0, len(r.lastOrder))
	for _, key := range r.lastOrder {
		if obj, ok := r.objects[key]; ok {
			ordered = append(ordered, obj)
		}
	}
	pending := len(r.pending)
	r.mu.Unlock()

	if len(ordered) != r.engine.Count() {
		slog.Debug("z-order rebuild skipped: counts disagree",
			"ordered", len(ordered),
			"live", r.engine.Count(),
			"pending", pending,
		)
		return
	}
	if err := r.engine.SetDrawOrder(ordered); err != nil {
		slog.Error("z-order rebuild failed", "error", err)
	}
}

// ObjectForFrame returns the live render object for a frame id.
func (r *Reconciler) ObjectForFrame(frameID string) (Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[Tags{FrameID: frameID}.EntityKey()]
	return obj, ok
}

// ObjectForLayer returns the live render object for a layer id within a
// frame.
func (r *Reconciler) ObjectForLayer(frameID, layerID string) (Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[Tags{FrameID: frameID, LayerID: layerID}.EntityKey()]
	return obj, ok
}

// layerObjectsForFrame returns the live layer objects belonging to a
// frame, in the canonical order of the last Sync. Used by the
// interaction controller to move a frame's contents as a rigid unit.
func (r *Reconciler) layerObjectsForFrame(frameID string) []Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := frameID + "/"
	var out []Object
	for _, key := range r.lastOrder {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			if obj, ok := r.objects[key]; ok {
				out = append(out, obj)
			}
		}
	}
	return out
}

// PendingCount returns the number of instantiations in flight.
// Used for diagnostics and tests.
func (r *Reconciler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
