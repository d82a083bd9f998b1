package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/easelhq/easel/internal/doc"
)

const pollinationsBaseURL = "https://image.pollinations.ai"

// Pollinations is the default network-backed free provider. No
// credentials: prompt and parameters are encoded into a GET URL and the
// response body is the image.
type Pollinations struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewPollinations creates the free provider.
func NewPollinations(logger *slog.Logger) *Pollinations {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pollinations{
		baseURL: pollinationsBaseURL,
		// No client-level timeout: the orchestrator bounds each attempt
		// through the request context.
		client: &http.Client{},
		logger: logger,
	}
}

// Name implements Provider.
func (p *Pollinations) Name() string { return "pollinations" }

// Kind implements Provider.
func (p *Pollinations) Kind() ProviderKind { return KindFree }

// IsAvailable implements Provider. The free endpoint needs no
// credentials, so availability is assumed; actual outages surface as
// retried attempt failures.
func (p *Pollinations) IsAvailable(ctx context.Context) bool { return true }

// Generate implements Provider.
func (p *Pollinations) Generate(ctx context.Context, params Params) (Result, error) {
	q := url.Values{}
	q.Set("width", fmt.Sprintf("%d", params.Width))
	q.Set("height", fmt.Sprintf("%d", params.Height))
	q.Set("seed", fmt.Sprintf("%d", params.Seed))
	q.Set("nologo", "true")
	if params.Model != "" {
		q.Set("model", params.Model)
	}
	if params.NegativePrompt != "" {
		q.Set("negative_prompt", params.NegativePrompt)
	}
	endpoint := fmt.Sprintf("%s/prompt/%s?%s", p.baseURL, url.PathEscape(params.Prompt), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	p.logger.Debug("pollinations request",
		"model", params.Model,
		"size", fmt.Sprintf("%dx%d", params.Width, params.Height),
	)
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, &GenerationError{
			Kind:     KindNetwork,
			Message:  "request failed",
			Provider: p.Name(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if gerr := classifyStatus(p.Name(), resp.StatusCode); gerr != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		p.logger.Error("pollinations error response",
			"status", resp.StatusCode,
			"body", string(body),
			"duration", time.Since(start),
		)
		return Result{}, gerr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &GenerationError{
			Kind:     KindNetwork,
			Message:  "reading image body failed",
			Provider: p.Name(),
			Err:      err,
		}
	}
	if len(data) == 0 {
		return Result{}, &GenerationError{
			Kind:     KindBadResponse,
			Message:  "empty image body",
			Provider: p.Name(),
		}
	}
	p.logger.Debug("pollinations response",
		"bytes", len(data),
		"duration", time.Since(start),
	)

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}
	return Result{
		Data: data,
		MIME: mime,
		Meta: metaFor(p.Name(), params),
	}, nil
}

// ListModels implements Provider. The endpoint returns a JSON array of
// model names.
func (p *Pollinations) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &GenerationError{
			Kind:     KindNetwork,
			Message:  "model listing failed",
			Provider: p.Name(),
			Err:      err,
		}
	}
	defer resp.Body.Close()
	if gerr := classifyStatus(p.Name(), resp.StatusCode); gerr != nil {
		return nil, gerr
	}

	var models []string
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, &GenerationError{
			Kind:     KindBadResponse,
			Message:  "decode model list",
			Provider: p.Name(),
			Err:      err,
		}
	}
	return models, nil
}

// classifyStatus maps a non-2xx status to a typed error, distinguishing
// rate limiting from server failure so retry exhaustion messages can say
// which it was.
func classifyStatus(provider string, status int) *GenerationError {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return &GenerationError{
			Kind:     KindRateLimit,
			Message:  fmt.Sprintf("status %d", status),
			Provider: provider,
		}
	case status >= 500:
		return &GenerationError{
			Kind:     KindServer,
			Message:  fmt.Sprintf("status %d", status),
			Provider: provider,
		}
	default:
		return &GenerationError{
			Kind:     KindBadResponse,
			Message:  fmt.Sprintf("status %d", status),
			Provider: provider,
		}
	}
}

// metaFor builds generation metadata from request parameters.
func metaFor(provider string, params Params) doc.GenerationMeta {
	return doc.GenerationMeta{
		Prompt:         params.Prompt,
		NegativePrompt: params.NegativePrompt,
		Provider:       provider,
		Model:          params.Model,
		Seed:           params.Seed,
		Width:          params.Width,
		Height:         params.Height,
	}
}
