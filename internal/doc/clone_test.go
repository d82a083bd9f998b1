package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneLayerIsDeep(t *testing.T) {
	original := Layer{
		ID:    "l1",
		Kind:  KindGenerated,
		Image: &ImageRef{Source: "a.png"},
		Generation: &GenerationMeta{
			Prompt:     "a fox",
			Inpainting: &InpaintingMeta{SourceLayerID: "l0"},
		},
		Sketch: &SketchPayload{Stroke: "#000"},
		Children: []Layer{
			{ID: "c1", Kind: KindImage, Image: &ImageRef{Source: "c.png"}},
		},
	}

	clone := CloneLayer(original)
	clone.Image.Source = "mutated.png"
	clone.Generation.Prompt = "mutated"
	clone.Generation.Inpainting.SourceLayerID = "mutated"
	clone.Sketch.Stroke = "mutated"
	clone.Children[0].Image.Source = "mutated.png"

	assert.Equal(t, "a.png", original.Image.Source)
	assert.Equal(t, "a fox", original.Generation.Prompt)
	assert.Equal(t, "l0", original.Generation.Inpainting.SourceLayerID)
	assert.Equal(t, "#000", original.Sketch.Stroke)
	assert.Equal(t, "c.png", original.Children[0].Image.Source)
}

func TestCloneFramesPreservesNil(t *testing.T) {
	assert.Nil(t, CloneFrames(nil))

	frames := CloneFrames([]Frame{{ID: "f1"}})
	require.Len(t, frames, 1)
	assert.Nil(t, frames[0].Layers)
}

func TestCloneFrameIndependence(t *testing.T) {
	f := Frame{
		ID:     "f1",
		Layers: []Layer{{ID: "l1", Image: &ImageRef{Source: "a.png"}}},
	}
	c := CloneFrame(f)
	c.Layers[0].ID = "other"
	c.Layers[0].Image.Source = "other.png"

	assert.Equal(t, "l1", f.Layers[0].ID)
	assert.Equal(t, "a.png", f.Layers[0].Image.Source)
}
