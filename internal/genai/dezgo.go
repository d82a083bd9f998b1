package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/easelhq/easel/internal/doc"
)

const dezgoBaseURL = "https://api.dezgo.com"

// Dezgo is a paid provider. Requests are JSON POSTs authenticated with
// an API key header; responses are raw image bytes.
//
// Dezgo implements the optional Inpainter and CostEstimator
// capabilities.
type Dezgo struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewDezgo creates the paid provider. An empty key leaves the provider
// registered but unavailable.
func NewDezgo(apiKey string, logger *slog.Logger) *Dezgo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dezgo{
		baseURL: dezgoBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		logger:  logger,
	}
}

// Name implements Provider.
func (d *Dezgo) Name() string { return "dezgo" }

// Kind implements Provider.
func (d *Dezgo) Kind() ProviderKind { return KindPaid }

// IsAvailable implements Provider: requires an API key.
func (d *Dezgo) IsAvailable(ctx context.Context) bool { return d.apiKey != "" }

type dezgoRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Model          string  `json:"model,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Seed           int64   `json:"seed,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	Guidance       float64 `json:"guidance,omitempty"`
	InitImage      string  `json:"init_image,omitempty"`
	MaskImage      string  `json:"mask_image,omitempty"`
}

// Generate implements Provider.
func (d *Dezgo) Generate(ctx context.Context, params Params) (Result, error) {
	body := dezgoRequest{
		Prompt:         params.Prompt,
		NegativePrompt: params.NegativePrompt,
		Model:          params.Model,
		Width:          params.Width,
		Height:         params.Height,
		Seed:           params.Seed,
		Steps:          params.Steps,
		Guidance:       params.Guidance,
	}
	data, mime, err := d.post(ctx, "/text2image", body)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: data, MIME: mime, Meta: metaFor(d.Name(), params)}, nil
}

// GenerateInpainting implements the Inpainter capability.
func (d *Dezgo) GenerateInpainting(ctx context.Context, params InpaintingParams) (Result, error) {
	body := dezgoRequest{
		Prompt:         params.Prompt,
		NegativePrompt: params.NegativePrompt,
		Model:          params.Model,
		Width:          params.Width,
		Height:         params.Height,
		Seed:           params.Seed,
		Steps:          params.Steps,
		Guidance:       params.Guidance,
		InitImage:      params.ImageSource,
		MaskImage:      params.MaskSource,
	}
	data, mime, err := d.post(ctx, "/inpainting", body)
	if err != nil {
		return Result{}, err
	}
	meta := metaFor(d.Name(), params.Params)
	meta.Inpainting = &doc.InpaintingMeta{
		SourceLayerID: params.SourceLayerID,
		MaskSource:    params.MaskSource,
	}
	return Result{Data: data, MIME: mime, Meta: meta}, nil
}

// EstimateCost implements the CostEstimator capability: a rough
// per-megapixel, per-step figure for UI display only.
func (d *Dezgo) EstimateCost(params Params) float64 {
	megapixels := float64(params.Width*params.Height) / 1e6
	steps := params.Steps
	if steps == 0 {
		steps = 30
	}
	return 0.0005 * megapixels * float64(steps)
}

// ListModels implements Provider. The catalog is static; dezgo model
// churn is handled by releases, not runtime discovery.
func (d *Dezgo) ListModels(ctx context.Context) ([]string, error) {
	return []string{
		"flux_1_schnell",
		"flux_1_dev",
		"stablediffusion_2_1",
		"epic_realism",
	}, nil
}

func (d *Dezgo) post(ctx context.Context, path string, body dezgoRequest) ([]byte, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Dezgo-Key", d.apiKey)

	d.logger.Debug("dezgo request", "path", path, "payload_size", len(payload))
	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", &GenerationError{
			Kind:     KindNetwork,
			Message:  "request failed",
			Provider: d.Name(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if gerr := classifyStatus(d.Name(), resp.StatusCode); gerr != nil {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		d.logger.Error("dezgo error response",
			"path", path,
			"status", resp.StatusCode,
			"body", string(errBody),
			"duration", time.Since(start),
		)
		return nil, "", gerr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &GenerationError{
			Kind:     KindNetwork,
			Message:  "reading image body failed",
			Provider: d.Name(),
			Err:      err,
		}
	}
	if len(data) == 0 {
		return nil, "", &GenerationError{
			Kind:     KindBadResponse,
			Message:  "empty image body",
			Provider: d.Name(),
		}
	}
	d.logger.Debug("dezgo response",
		"path", path,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}
