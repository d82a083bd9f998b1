package doc

// LayerKind discriminates the payload carried by a layer.
type LayerKind string

const (
	// KindImage is an imported raster image.
	KindImage LayerKind = "image"
	// KindGenerated is an AI-generated raster image.
	KindGenerated LayerKind = "generated"
	// KindSketch is a vector sketch (stroke/fill/path).
	KindSketch LayerKind = "sketch"
	// KindGroup is an ordered collection of child layers with coordinates
	// relative to the group origin.
	KindGroup LayerKind = "group"
)

// ValidKinds defines the allowed layer kinds.
var ValidKinds = map[LayerKind]bool{
	KindImage:     true,
	KindGenerated: true,
	KindSketch:    true,
	KindGroup:     true,
}

// Frame is a top-level artboard on the infinite canvas.
//
// The Layers slice order is significant: it is the back-to-front draw
// order within the frame. A frame's layer ids are unique within the frame.
type Frame struct {
	ID         string       `json:"id" yaml:"id"`
	Name       string       `json:"name" yaml:"name"`
	X          float64      `json:"x" yaml:"x"`
	Y          float64      `json:"y" yaml:"y"`
	Width      float64      `json:"width" yaml:"width"`
	Height     float64      `json:"height" yaml:"height"`
	Background string       `json:"background,omitempty" yaml:"background,omitempty"`
	Visible    bool         `json:"visible" yaml:"visible"`
	Locked     bool         `json:"locked" yaml:"locked"`
	Layers     []Layer      `json:"layers" yaml:"layers"`
	Export     ExportConfig `json:"export,omitempty" yaml:"export,omitempty"`
}

// ExportConfig carries per-frame raster export settings. The export
// pipeline itself is a read-only collaborator; the model only stores
// its configuration.
type ExportConfig struct {
	Format string  `json:"format,omitempty" yaml:"format,omitempty"` // "png" | "jpeg"
	Scale  float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Layer is a positioned visual element owned by exactly one frame or group.
//
// Position is relative to the owning frame's origin (or, for group
// children, to the group origin). Exactly one payload field is set,
// matching Kind.
type Layer struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Kind     LayerKind `json:"kind" yaml:"kind"`
	Visible  bool      `json:"visible" yaml:"visible"`
	Locked   bool      `json:"locked" yaml:"locked"`
	Opacity  float64   `json:"opacity" yaml:"opacity"` // 0..100
	Blend    string    `json:"blend,omitempty" yaml:"blend,omitempty"`
	X        float64   `json:"x" yaml:"x"`
	Y        float64   `json:"y" yaml:"y"`
	Width    float64   `json:"width" yaml:"width"`
	Height   float64   `json:"height" yaml:"height"`
	Rotation float64   `json:"rotation" yaml:"rotation"` // degrees
	ScaleX   float64   `json:"scale_x" yaml:"scale_x"`
	ScaleY   float64   `json:"scale_y" yaml:"scale_y"`

	Image      *ImageRef       `json:"image,omitempty" yaml:"image,omitempty"`
	Generation *GenerationMeta `json:"generation,omitempty" yaml:"generation,omitempty"`
	Sketch     *SketchPayload  `json:"sketch,omitempty" yaml:"sketch,omitempty"`
	Children   []Layer         `json:"children,omitempty" yaml:"children,omitempty"`
}

// Renderable reports whether this layer gets its own render object on the
// canvas. Only image-bearing layers are rendered individually; groups are
// a model-level construct and sketches are rasterized by the export
// collaborator, not the live canvas.
func (l Layer) Renderable() bool {
	switch l.Kind {
	case KindImage, KindGenerated:
		return l.Image != nil && l.Image.Source != ""
	default:
		return false
	}
}

// ImageRef points at decoded-image content for raster layers.
type ImageRef struct {
	Source string `json:"source" yaml:"source"` // file path, URL, or data URI
	MIME   string `json:"mime,omitempty" yaml:"mime,omitempty"`
}

// GenerationMeta records how a generated layer was produced.
type GenerationMeta struct {
	Prompt         string          `json:"prompt" yaml:"prompt"`
	NegativePrompt string          `json:"negative_prompt,omitempty" yaml:"negative_prompt,omitempty"`
	Provider       string          `json:"provider" yaml:"provider"`
	Model          string          `json:"model" yaml:"model"`
	Seed           int64           `json:"seed" yaml:"seed"`
	Width          int             `json:"width" yaml:"width"`
	Height         int             `json:"height" yaml:"height"`
	Attempt        int             `json:"attempt,omitempty" yaml:"attempt,omitempty"`
	Inpainting     *InpaintingMeta `json:"inpainting,omitempty" yaml:"inpainting,omitempty"`
}

// InpaintingMeta records the provenance of an inpainted generation.
type InpaintingMeta struct {
	SourceLayerID string `json:"source_layer_id" yaml:"source_layer_id"`
	MaskSource    string `json:"mask_source,omitempty" yaml:"mask_source,omitempty"`
}

// SketchPayload describes a vector sketch.
type SketchPayload struct {
	Stroke      string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty" yaml:"stroke_width,omitempty"`
	Fill        string  `json:"fill,omitempty" yaml:"fill,omitempty"`
	Path        string  `json:"path,omitempty" yaml:"path,omitempty"` // SVG path data
}

// Selection is the set of selected layer ids plus at most one selected
// frame id.
//
// INVARIANT: if LayerIDs is non-empty, FrameID is the owning frame of
// every selected layer. Selecting a frame clears LayerIDs.
type Selection struct {
	FrameID  string   `json:"frame_id,omitempty" yaml:"frame_id,omitempty"`
	LayerIDs []string `json:"layer_ids,omitempty" yaml:"layer_ids,omitempty"`
}

// FramePreset seeds a new frame with optional initial values.
// Zero-value fields fall back to defaults.
type FramePreset struct {
	Name       string
	Width      float64
	Height     float64
	Background string
}

// Default frame dimensions applied when a preset leaves them unset.
const (
	DefaultFrameWidth  = 1920.0
	DefaultFrameHeight = 1080.0
)

// DefaultOpacity is the opacity assigned to new layers.
const DefaultOpacity = 100.0
