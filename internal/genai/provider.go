package genai

import (
	"context"

	"github.com/easelhq/easel/internal/doc"
)

// ProviderKind distinguishes free and paid providers.
type ProviderKind string

const (
	// KindFree providers need no credentials.
	KindFree ProviderKind = "free"
	// KindPaid providers bill per generation and need an API key.
	KindPaid ProviderKind = "paid"
)

// Params is a single image generation request.
type Params struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Seed           int64
	Steps          int
	Guidance       float64
	Model          string
}

// InpaintingParams extends Params with the source image and mask.
type InpaintingParams struct {
	Params
	ImageSource   string // source image path, URL, or data URI
	MaskSource    string // mask image, white = regenerate
	SourceLayerID string // provenance: the layer being inpainted
}

// Result is a generated image artifact plus its generation metadata.
type Result struct {
	Data []byte
	MIME string
	Meta doc.GenerationMeta
}

// Provider is the uniform capability interface every image provider
// implements.
//
// Optional capabilities are probed by interface assertion: a provider
// that also implements Inpainter supports inpainting, one that
// implements CostEstimator can price a request. Callers must probe
// before invoking - the orchestrator turns a missing capability into a
// fast KindUnsupported error with no network call.
type Provider interface {
	// Name returns the provider's stable identifier.
	Name() string

	// Kind reports whether the provider is free or paid.
	Kind() ProviderKind

	// Generate performs one generation attempt. Retry is the
	// orchestrator's job; providers fail fast with a typed
	// GenerationError.
	Generate(ctx context.Context, params Params) (Result, error)

	// ListModels returns the model identifiers the provider offers.
	ListModels(ctx context.Context) ([]string, error)

	// IsAvailable reports whether the provider can currently serve
	// requests (credentials present, service reachable).
	IsAvailable(ctx context.Context) bool
}

// Inpainter is the optional inpainting capability.
type Inpainter interface {
	GenerateInpainting(ctx context.Context, params InpaintingParams) (Result, error)
}

// CostEstimator is the optional pricing capability.
// EstimateCost returns the approximate cost in USD.
type CostEstimator interface {
	EstimateCost(params Params) float64
}

// LayerFromResult builds the layer creation template for a generation
// artifact. The caller persists the artifact bytes and passes the
// resulting source reference; committing the returned template through
// the document store triggers reconciliation and image instantiation
// like any other layer.
func LayerFromResult(res Result, source string, x, y float64) doc.Layer {
	meta := res.Meta
	return doc.Layer{
		Name:       meta.Prompt,
		Kind:       doc.KindGenerated,
		X:          x,
		Y:          y,
		Width:      float64(meta.Width),
		Height:     float64(meta.Height),
		Image:      &doc.ImageRef{Source: source, MIME: res.MIME},
		Generation: &meta,
	}
}
