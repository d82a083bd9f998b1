package scene

import "github.com/easelhq/easel/internal/doc"

// Tags are the denormalized back-references a render object carries to
// its source entity. LayerID is empty for frame objects.
//
// Engines are known to silently drop tags during their own batch
// mutations, so the reconciler reasserts them after every update rather
// than trusting the engine to preserve them.
type Tags struct {
	FrameID string
	LayerID string
}

// EntityKey returns the reconciler's map key for these tags. Layer ids
// are only unique within their frame, so layer keys are qualified by the
// owning frame.
func (t Tags) EntityKey() string {
	if t.LayerID == "" {
		return t.FrameID
	}
	return t.FrameID + "/" + t.LayerID
}

// IsLayer reports whether the tags reference a layer object.
func (t Tags) IsLayer() bool {
	return t.LayerID != ""
}

// Props are the engine-facing properties of a render object. Positions
// are absolute canvas coordinates; opacity is normalized to 0..1.
type Props struct {
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Rotation   float64 // degrees
	ScaleX     float64
	ScaleY     float64
	Opacity    float64 // 0..1
	Visible    bool
	Selectable bool
	Fill       string // frame background; empty for image objects
}

// ObjectKind discriminates render object flavors.
type ObjectKind int

const (
	// ObjectFrame is the rectangular artboard object for a frame.
	ObjectFrame ObjectKind = iota + 1
	// ObjectImage is a decoded raster image object for a layer.
	ObjectImage
)

// ObjectSpec describes a render object to instantiate. Props and Tags
// are applied atomically on creation by the engine, before the object
// becomes visible to Objects().
type ObjectSpec struct {
	Kind  ObjectKind
	Tags  Tags
	Props Props
	Image *doc.ImageRef // required for ObjectImage (decode source)
}

// Object is a live render object on the canvas.
//
// SetProps may fail when the engine has corrupted the object (lost an
// expected capability); the reconciler recovers by removing and fully
// recreating the object rather than attempting partial repair.
type Object interface {
	// Kind returns the object flavor.
	Kind() ObjectKind

	// Tags returns the id back-references. ok is false when the engine
	// has dropped them; callers reassert via SetTags.
	Tags() (tags Tags, ok bool)

	// SetTags (re)writes the id back-references.
	SetTags(Tags)

	// Props returns the current live properties.
	Props() Props

	// SetProps overwrites the live properties. A non-nil error signals
	// object corruption.
	SetProps(Props) error
}

// Engine is the canvas engine surface the scene package needs. Real
// engines wrap a stateful graphics scene graph; tests use an in-memory
// fake.
//
// Instantiate is asynchronous because image objects require a decode.
// The done callback fires exactly once, from any goroutine, after the
// object has been attached to the engine (or instantiation failed).
type Engine interface {
	// Objects returns the live object set in current draw order.
	Objects() []Object

	// Count returns the number of attached objects. Objects whose
	// instantiation is still in flight are not counted.
	Count() int

	// Instantiate creates an object from the spec, applying props and
	// tags atomically, and attaches it. done receives the attached
	// object or an error.
	Instantiate(spec ObjectSpec, done func(Object, error))

	// Remove detaches an object and releases its engine-side resources.
	Remove(obj Object)

	// SetDrawOrder replaces the draw order with the given back-to-front
	// sequence. The sequence must contain exactly the attached objects.
	SetDrawOrder(objs []Object) error

	// SetActive makes obj the engine's native selection.
	// Passing nil clears the native selection.
	SetActive(obj Object)

	// Active returns the engine's native selection, if any.
	Active() (Object, bool)

	// SetPickHandler registers the callbacks for native pick events:
	// picked fires with the picked object, cleared fires for a pick on
	// empty canvas space. One handler pair; a later call replaces it.
	SetPickHandler(picked func(Object), cleared func())
}
