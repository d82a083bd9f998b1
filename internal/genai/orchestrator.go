package genai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RetryPolicy controls the orchestrator's retry loop.
type RetryPolicy struct {
	// MaxAttempts caps the number of generation attempts.
	MaxAttempts int

	// BaseBackoff is the wait after the first failed attempt; it doubles
	// per attempt up to MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	// AttemptTimeout bounds the first attempt; each subsequent attempt
	// gets TimeoutGrowth more, up to MaxAttemptTimeout. Slow providers
	// often succeed on a retry given slightly more room.
	AttemptTimeout    time.Duration
	TimeoutGrowth     time.Duration
	MaxAttemptTimeout time.Duration
}

// DefaultRetryPolicy matches the default network-backed provider:
// 5 attempts, 1s backoff doubling to 8s, 35s attempt timeout growing to
// 50s.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:       5,
	BaseBackoff:       1 * time.Second,
	MaxBackoff:        8 * time.Second,
	AttemptTimeout:    35 * time.Second,
	TimeoutGrowth:     5 * time.Second,
	MaxAttemptTimeout: 50 * time.Second,
}

// ProgressFunc reports retry progress: the attempt about to run and the
// attempt cap. UIs use it to distinguish "generating" from "retrying".
type ProgressFunc func(attempt, maxAttempts int)

// ProviderInfo describes a registered provider for listing surfaces.
type ProviderInfo struct {
	Name      string       `json:"name"`
	Kind      ProviderKind `json:"kind"`
	Available bool         `json:"available"`
	Current   bool         `json:"current"`
}

// Orchestrator runs generation requests against the current provider
// with retry, backoff, cancellation, and progress reporting.
//
// Concurrent generations are allowed with no additional locking beyond
// the provider registry: each completes into an independent layer-commit
// and the document store's commit path is the only ordering guarantee.
type Orchestrator struct {
	mu        sync.Mutex
	providers []Provider
	current   Provider

	policy   RetryPolicy
	progress ProgressFunc

	// sleep is injectable so tests can run the backoff loop without
	// wall-clock waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) OrchestratorOption {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// withSleep replaces the backoff sleeper. Test hook.
func withSleep(fn func(ctx context.Context, d time.Duration) error) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sleep = fn
	}
}

// NewOrchestrator creates an orchestrator over the given providers.
// The first provider is current. At least one provider is required.
func NewOrchestrator(providers []Provider, opts ...OrchestratorOption) (*Orchestrator, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	o := &Orchestrator{
		providers: providers,
		current:   providers[0],
		policy:    DefaultRetryPolicy,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UseProvider switches the current provider by name.
func (o *Orchestrator) UseProvider(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.providers {
		if p.Name() == name {
			o.current = p
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q", name)
}

// Current returns the current provider.
func (o *Orchestrator) Current() Provider {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// ListProviders describes all registered providers.
func (o *Orchestrator) ListProviders(ctx context.Context) []ProviderInfo {
	o.mu.Lock()
	providers := append([]Provider(nil), o.providers...)
	current := o.current
	o.mu.Unlock()

	out := make([]ProviderInfo, len(providers))
	for i, p := range providers {
		out[i] = ProviderInfo{
			Name:      p.Name(),
			Kind:      p.Kind(),
			Available: p.IsAvailable(ctx),
			Current:   p == current,
		}
	}
	return out
}

// ListModels returns the current provider's models.
func (o *Orchestrator) ListModels(ctx context.Context) ([]string, error) {
	return o.Current().ListModels(ctx)
}

// SupportsInpainting reports whether the current provider implements the
// inpainting capability.
func (o *Orchestrator) SupportsInpainting() bool {
	_, ok := o.Current().(Inpainter)
	return ok
}

// GenerateImage runs a generation with retry. On success the result's
// metadata records which attempt succeeded.
func (o *Orchestrator) GenerateImage(ctx context.Context, params Params) (Result, error) {
	provider := o.Current()
	return o.retry(ctx, provider.Name(), func(attemptCtx context.Context) (Result, error) {
		return provider.Generate(attemptCtx, params)
	})
}

// GenerateInpainting runs an inpainting generation with retry. Fails
// fast with a KindUnsupported error, before any network call, when the
// current provider lacks the capability.
func (o *Orchestrator) GenerateInpainting(ctx context.Context, params InpaintingParams) (Result, error) {
	provider := o.Current()
	inpainter, ok := provider.(Inpainter)
	if !ok {
		return Result{}, &GenerationError{
			Kind:     KindUnsupported,
			Message:  fmt.Sprintf("provider %s does not support inpainting", provider.Name()),
			Provider: provider.Name(),
		}
	}
	return o.retry(ctx, provider.Name(), func(attemptCtx context.Context) (Result, error) {
		return inpainter.GenerateInpainting(attemptCtx, params)
	})
}

// retry drives the attempt loop. Cancellation is checked before each
// attempt and inside the backoff wait; it aborts immediately with a
// KindCancelled error, never a retry-exhausted one.
func (o *Orchestrator) retry(ctx context.Context, providerName string, attempt func(context.Context) (Result, error)) (Result, error) {
	policy := o.policy
	var lastErr error

	for n := 1; n <= policy.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return Result{}, o.cancelled(providerName, n, err)
		}
		if o.progress != nil {
			o.progress(n, policy.MaxAttempts)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout(n))
		res, err := attempt(attemptCtx)
		cancel()

		if err == nil {
			res.Meta.Attempt = n
			slog.Info("generation succeeded",
				"provider", providerName,
				"attempt", n,
			)
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, o.cancelled(providerName, n, ctx.Err())
		}
		lastErr = err
		slog.Warn("generation attempt failed",
			"provider", providerName,
			"attempt", n,
			"max_attempts", policy.MaxAttempts,
			"error", err,
		)

		if n == policy.MaxAttempts {
			break
		}
		if err := o.sleep(ctx, o.backoff(n)); err != nil {
			return Result{}, o.cancelled(providerName, n, err)
		}
	}

	kind := kindOf(lastErr)
	return Result{}, &GenerationError{
		Kind:     kind,
		Message:  fmt.Sprintf("%s after %d attempts", describeKind(kind), policy.MaxAttempts),
		Provider: providerName,
		Attempt:  policy.MaxAttempts,
		Err:      lastErr,
	}
}

func (o *Orchestrator) cancelled(providerName string, attempt int, cause error) error {
	slog.Info("generation cancelled",
		"provider", providerName,
		"attempt", attempt,
	)
	return &GenerationError{
		Kind:     KindCancelled,
		Message:  "generation cancelled",
		Provider: providerName,
		Attempt:  attempt,
		Err:      cause,
	}
}

// backoff returns the wait after attempt n: base doubling per attempt,
// capped.
func (o *Orchestrator) backoff(n int) time.Duration {
	d := o.policy.BaseBackoff
	for i := 1; i < n; i++ {
		d *= 2
		if d >= o.policy.MaxBackoff {
			return o.policy.MaxBackoff
		}
	}
	if d > o.policy.MaxBackoff {
		return o.policy.MaxBackoff
	}
	return d
}

// attemptTimeout returns the per-attempt timeout for attempt n: the base
// timeout plus growth per prior attempt, capped.
func (o *Orchestrator) attemptTimeout(n int) time.Duration {
	d := o.policy.AttemptTimeout + time.Duration(n-1)*o.policy.TimeoutGrowth
	if d > o.policy.MaxAttemptTimeout {
		return o.policy.MaxAttemptTimeout
	}
	return d
}
