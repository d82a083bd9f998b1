package doc

// CloneFrames deep-copies a frame sequence. The result shares no mutable
// sub-objects with the input: history entries and live model state must
// never alias each other, or undo would silently observe later edits.
func CloneFrames(frames []Frame) []Frame {
	if frames == nil {
		return nil
	}
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = CloneFrame(f)
	}
	return out
}

// CloneFrame deep-copies a single frame, including all layers.
func CloneFrame(f Frame) Frame {
	c := f
	c.Layers = cloneLayers(f.Layers)
	return c
}

// CloneLayer deep-copies a single layer, including group children.
func CloneLayer(l Layer) Layer {
	c := l
	if l.Image != nil {
		img := *l.Image
		c.Image = &img
	}
	if l.Generation != nil {
		gen := *l.Generation
		if l.Generation.Inpainting != nil {
			inp := *l.Generation.Inpainting
			gen.Inpainting = &inp
		}
		c.Generation = &gen
	}
	if l.Sketch != nil {
		sk := *l.Sketch
		c.Sketch = &sk
	}
	c.Children = cloneLayers(l.Children)
	return c
}

func cloneLayers(layers []Layer) []Layer {
	if layers == nil {
		return nil
	}
	out := make([]Layer, len(layers))
	for i, l := range layers {
		out[i] = CloneLayer(l)
	}
	return out
}
