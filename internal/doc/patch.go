package doc

import "golang.org/x/text/unicode/norm"

// FramePatch is a partial update for a frame. Nil fields are left
// untouched; set fields overwrite the current value.
type FramePatch struct {
	Name       *string
	X          *float64
	Y          *float64
	Width      *float64
	Height     *float64
	Background *string
	Visible    *bool
	Locked     *bool
	Export     *ExportConfig
}

// LayerPatch is a partial update for a layer. Nil fields are left
// untouched; set fields overwrite the current value.
type LayerPatch struct {
	Name       *string
	Visible    *bool
	Locked     *bool
	Opacity    *float64
	Blend      *string
	X          *float64
	Y          *float64
	Width      *float64
	Height     *float64
	Rotation   *float64
	ScaleX     *float64
	ScaleY     *float64
	Image      *ImageRef
	Generation *GenerationMeta
	Sketch     *SketchPayload
}

// apply writes the set fields of the patch into the frame.
// Names are NFC-normalized so visually identical names compare equal.
func (p FramePatch) apply(f *Frame) {
	if p.Name != nil {
		f.Name = norm.NFC.String(*p.Name)
	}
	if p.X != nil {
		f.X = *p.X
	}
	if p.Y != nil {
		f.Y = *p.Y
	}
	if p.Width != nil {
		f.Width = *p.Width
	}
	if p.Height != nil {
		f.Height = *p.Height
	}
	if p.Background != nil {
		f.Background = *p.Background
	}
	if p.Visible != nil {
		f.Visible = *p.Visible
	}
	if p.Locked != nil {
		f.Locked = *p.Locked
	}
	if p.Export != nil {
		f.Export = *p.Export
	}
}

// apply writes the set fields of the patch into the layer.
func (p LayerPatch) apply(l *Layer) {
	if p.Name != nil {
		l.Name = norm.NFC.String(*p.Name)
	}
	if p.Visible != nil {
		l.Visible = *p.Visible
	}
	if p.Locked != nil {
		l.Locked = *p.Locked
	}
	if p.Opacity != nil {
		l.Opacity = clampOpacity(*p.Opacity)
	}
	if p.Blend != nil {
		l.Blend = *p.Blend
	}
	if p.X != nil {
		l.X = *p.X
	}
	if p.Y != nil {
		l.Y = *p.Y
	}
	if p.Width != nil {
		l.Width = *p.Width
	}
	if p.Height != nil {
		l.Height = *p.Height
	}
	if p.Rotation != nil {
		l.Rotation = *p.Rotation
	}
	if p.ScaleX != nil {
		l.ScaleX = *p.ScaleX
	}
	if p.ScaleY != nil {
		l.ScaleY = *p.ScaleY
	}
	if p.Image != nil {
		img := *p.Image
		l.Image = &img
	}
	if p.Generation != nil {
		gen := *p.Generation
		l.Generation = &gen
	}
	if p.Sketch != nil {
		sk := *p.Sketch
		l.Sketch = &sk
	}
}

func clampOpacity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Helper constructors for pointer fields, used heavily by callers building
// patches inline.

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// F64 returns a pointer to v.
func F64(v float64) *float64 { return &v }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
