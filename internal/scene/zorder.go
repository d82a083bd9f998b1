package scene

import "github.com/easelhq/easel/internal/doc"

// entity is a single desired render object derived from the document
// model: either a frame or a renderable (image-bearing) layer.
type entity struct {
	key   string
	kind  ObjectKind
	tags  Tags
	props Props
	image *doc.ImageRef
}

// enumerate flattens the document into the canonical draw order:
// all frames first (model order), then all renderable layers grouped by
// owning frame (model order) and within each frame by layer order. Group
// children are enumerated in place of the group at its z-position, with
// coordinates translated out of the group's local space.
func enumerate(frames []doc.Frame) []entity {
	var out []entity
	for _, f := range frames {
		out = append(out, entity{
			key:  f.ID,
			kind: ObjectFrame,
			tags: Tags{FrameID: f.ID},
			props: Props{
				X:          f.X,
				Y:          f.Y,
				Width:      f.Width,
				Height:     f.Height,
				ScaleX:     1,
				ScaleY:     1,
				Opacity:    1,
				Visible:    f.Visible,
				Selectable: !f.Locked,
				Fill:       f.Background,
			},
		})
	}
	for _, f := range frames {
		for _, l := range f.Layers {
			out = appendLayerEntities(out, f, l, 0, 0, true)
		}
	}
	return out
}

// DrawOrder returns the canonical draw order for a document as entity
// keys: frame ids first, then frameID/layerID pairs for renderable
// layers. Inspection surfaces use this without needing a live engine.
func DrawOrder(frames []doc.Frame) []string {
	entities := enumerate(frames)
	keys := make([]string, len(entities))
	for i, e := range entities {
		keys[i] = e.key
	}
	return keys
}

// appendLayerEntities appends the render entities for a layer. Groups
// contribute their children (one level of nesting); offX/offY carry the
// group origin, parentVisible the group's effective visibility.
func appendLayerEntities(out []entity, f doc.Frame, l doc.Layer, offX, offY float64, parentVisible bool) []entity {
	if l.Kind == doc.KindGroup {
		for _, child := range l.Children {
			out = appendLayerEntities(out, f, child, offX+l.X, offY+l.Y, parentVisible && l.Visible)
		}
		return out
	}
	if !l.Renderable() {
		return out
	}
	tags := Tags{FrameID: f.ID, LayerID: l.ID}
	return append(out, entity{
		key:  tags.EntityKey(),
		kind: ObjectImage,
		tags: tags,
		props: Props{
			X:          f.X + offX + l.X,
			Y:          f.Y + offY + l.Y,
			Width:      l.Width,
			Height:     l.Height,
			Rotation:   l.Rotation,
			ScaleX:     l.ScaleX,
			ScaleY:     l.ScaleY,
			Opacity:    l.Opacity / 100,
			Visible:    f.Visible && parentVisible && l.Visible,
			Selectable: !f.Locked && !l.Locked,
		},
		image: l.Image,
	})
}
