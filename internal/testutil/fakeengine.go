// Package testutil provides deterministic fakes for scene and store
// tests: an in-memory canvas engine and instrumented helpers.
package testutil

import (
	"fmt"
	"sync"

	"github.com/easelhq/easel/internal/scene"
)

// FakeObject is an in-memory render object with switchable failure
// behaviors used to exercise the reconciler's recovery paths.
type FakeObject struct {
	mu      sync.Mutex
	kind    scene.ObjectKind
	tags    scene.Tags
	tagsOK  bool
	props   scene.Props
	corrupt bool

	eng *FakeEngine
}

// Kind implements scene.Object.
func (o *FakeObject) Kind() scene.ObjectKind {
	return o.kind
}

// Tags implements scene.Object.
func (o *FakeObject) Tags() (scene.Tags, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tags, o.tagsOK
}

// SetTags implements scene.Object.
func (o *FakeObject) SetTags(t scene.Tags) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tags = t
	o.tagsOK = true
}

// Props implements scene.Object.
func (o *FakeObject) Props() scene.Props {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.props
}

// SetProps implements scene.Object. Emulates two real-engine defects on
// demand: corrupted objects reject updates, and engines configured with
// DropTagsOnUpdate silently lose the id back-references - exactly the
// behavior the reconciler must defend against.
func (o *FakeObject) SetProps(p scene.Props) error {
	o.mu.Lock()
	if o.corrupt {
		o.mu.Unlock()
		return fmt.Errorf("object capability missing")
	}
	o.props = p
	if o.eng.DropTagsOnUpdate {
		o.tagsOK = false
	}
	o.mu.Unlock()

	if o.eng.BringToFrontOnUpdate {
		o.eng.bringToFront(o)
	}
	return nil
}

// Corrupt marks the object so subsequent SetProps calls fail.
func (o *FakeObject) Corrupt() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.corrupt = true
}

// DropTags simulates the engine losing the object's back-references.
func (o *FakeObject) DropTags() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tagsOK = false
}

type pendingCreate struct {
	spec scene.ObjectSpec
	done func(scene.Object, error)
}

type deferredDone struct {
	obj  scene.Object
	err  error
	done func(scene.Object, error)
}

// FakeEngine is an in-memory scene.Engine with instrumentation counters
// and switchable defect emulation.
//
// In the default (immediate) mode Instantiate completes synchronously.
// With Manual set, creations queue up until CompleteNext/CompleteAll is
// called, which is how tests exercise the in-flight z-order guard.
type FakeEngine struct {
	mu       sync.Mutex
	objects  []*FakeObject // draw order, back to front
	active   *FakeObject
	queue    []pendingCreate
	attached []deferredDone
	pickFn   func(scene.Object)
	clearFn  func()

	// Manual defers instantiation completion to CompleteNext/CompleteAll.
	Manual bool

	// BringToFrontOnUpdate emulates engines that raise any object whose
	// props are written, the default behavior z-order enforcement exists
	// to fight.
	BringToFrontOnUpdate bool

	// DropTagsOnUpdate emulates engines that lose custom properties
	// during their own mutations.
	DropTagsOnUpdate bool

	// FailInstantiate makes every instantiation complete with an error.
	FailInstantiate bool

	// Counters.
	Instantiated   int
	Removed        int
	DrawOrderCalls int
}

// NewFakeEngine creates an immediate-mode fake engine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{}
}

// Objects implements scene.Engine.
func (e *FakeEngine) Objects() []scene.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]scene.Object, len(e.objects))
	for i, o := range e.objects {
		out[i] = o
	}
	return out
}

// Count implements scene.Engine.
func (e *FakeEngine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.objects)
}

// Instantiate implements scene.Engine.
func (e *FakeEngine) Instantiate(spec scene.ObjectSpec, done func(scene.Object, error)) {
	e.mu.Lock()
	if e.Manual {
		e.queue = append(e.queue, pendingCreate{spec: spec, done: done})
		e.mu.Unlock()
		return
	}
	obj, err := e.attachLocked(spec)
	e.mu.Unlock()
	done(obj, err)
}

// CompleteNext finishes the oldest deferred instantiation. Returns false
// if none are queued. Only meaningful with Manual set.
func (e *FakeEngine) CompleteNext() bool {
	e.mu.Lock()
	if len(e.queue) == 0 {
		e.mu.Unlock()
		return false
	}
	pc := e.queue[0]
	e.queue = e.queue[1:]
	obj, err := e.attachLocked(pc.spec)
	e.mu.Unlock()

	pc.done(obj, err)
	return true
}

// CompleteAll finishes every deferred instantiation in FIFO order.
func (e *FakeEngine) CompleteAll() {
	for e.CompleteNext() {
	}
}

// AttachPending attaches every queued creation to the engine WITHOUT
// firing its done callback. This reproduces the window where an engine
// has landed an object in its scene graph but the creation callback has
// not yet run, so the engine count runs ahead of the caller's tracking.
// FireAttached delivers the deferred callbacks. Only meaningful with
// Manual set.
func (e *FakeEngine) AttachPending() {
	e.mu.Lock()
	for _, pc := range e.queue {
		obj, err := e.attachLocked(pc.spec)
		e.attached = append(e.attached, deferredDone{obj: obj, err: err, done: pc.done})
	}
	e.queue = nil
	e.mu.Unlock()
}

// FireAttached delivers the callbacks deferred by AttachPending.
func (e *FakeEngine) FireAttached() {
	e.mu.Lock()
	pending := e.attached
	e.attached = nil
	e.mu.Unlock()

	for _, d := range pending {
		d.done(d.obj, d.err)
	}
}

// PendingCreates returns the number of deferred instantiations.
func (e *FakeEngine) PendingCreates() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// attachLocked creates and attaches an object, applying props and tags
// atomically as real engines do at creation time.
func (e *FakeEngine) attachLocked(spec scene.ObjectSpec) (scene.Object, error) {
	if e.FailInstantiate {
		return nil, fmt.Errorf("decode failed")
	}
	obj := &FakeObject{
		kind:   spec.Kind,
		tags:   spec.Tags,
		tagsOK: true,
		props:  spec.Props,
		eng:    e,
	}
	e.objects = append(e.objects, obj)
	e.Instantiated++
	return obj, nil
}

// Remove implements scene.Engine.
func (e *FakeEngine) Remove(obj scene.Object) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, o := range e.objects {
		if scene.Object(o) == obj {
			e.objects = append(e.objects[:i], e.objects[i+1:]...)
			e.Removed++
			if e.active == o {
				e.active = nil
			}
			return
		}
	}
}

// SetDrawOrder implements scene.Engine. Rejects sequences that are not
// exactly the attached object set, mirroring real engines that drop
// unknown entries.
func (e *FakeEngine) SetDrawOrder(objs []scene.Object) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(objs) != len(e.objects) {
		return fmt.Errorf("draw order has %d objects, engine has %d", len(objs), len(e.objects))
	}
	existing := make(map[*FakeObject]bool, len(e.objects))
	for _, o := range e.objects {
		existing[o] = true
	}
	next := make([]*FakeObject, 0, len(objs))
	for _, obj := range objs {
		fo, ok := obj.(*FakeObject)
		if !ok || !existing[fo] {
			return fmt.Errorf("draw order references unknown object")
		}
		next = append(next, fo)
	}
	e.objects = next
	e.DrawOrderCalls++
	return nil
}

// SetActive implements scene.Engine.
func (e *FakeEngine) SetActive(obj scene.Object) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if obj == nil {
		e.active = nil
		return
	}
	if fo, ok := obj.(*FakeObject); ok {
		e.active = fo
	}
}

// Active implements scene.Engine.
func (e *FakeEngine) Active() (scene.Object, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil, false
	}
	return e.active, true
}

// SetPickHandler implements scene.Engine.
func (e *FakeEngine) SetPickHandler(picked func(scene.Object), cleared func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pickFn = picked
	e.clearFn = cleared
}

// Pick delivers a native pick event for obj to the registered handler.
func (e *FakeEngine) Pick(obj scene.Object) {
	e.mu.Lock()
	fn := e.pickFn
	e.mu.Unlock()
	if fn != nil {
		fn(obj)
	}
}

// PickEmpty delivers a pick on empty canvas space.
func (e *FakeEngine) PickEmpty() {
	e.mu.Lock()
	fn := e.clearFn
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// DrawOrderKeys returns the entity keys of the current draw order, back
// to front. Objects with dropped tags report "?".
func (e *FakeEngine) DrawOrderKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := make([]string, len(e.objects))
	for i, o := range e.objects {
		tags, ok := o.Tags()
		if !ok {
			keys[i] = "?"
			continue
		}
		keys[i] = tags.EntityKey()
	}
	return keys
}

// bringToFront moves an object to the end of the draw order without
// counting as a SetDrawOrder call.
func (e *FakeEngine) bringToFront(o *FakeObject) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cur := range e.objects {
		if cur == o {
			e.objects = append(e.objects[:i], e.objects[i+1:]...)
			e.objects = append(e.objects, o)
			return
		}
	}
}
