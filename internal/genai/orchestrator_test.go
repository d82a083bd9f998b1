package genai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easelhq/easel/internal/doc"
)

// stubProvider fails a configurable number of attempts before succeeding.
type stubProvider struct {
	name     string
	kind     ProviderKind
	failWith error
	failures int
	calls    int
	models   []string
}

func (s *stubProvider) Name() string       { return s.name }
func (s *stubProvider) Kind() ProviderKind { return s.kind }

func (s *stubProvider) Generate(ctx context.Context, params Params) (Result, error) {
	s.calls++
	if s.calls <= s.failures {
		if s.failWith != nil {
			return Result{}, s.failWith
		}
		return Result{}, &GenerationError{Kind: KindServer, Message: "boom", Provider: s.name}
	}
	return Result{
		Data: []byte("png-bytes"),
		MIME: "image/png",
		Meta: doc.GenerationMeta{
			Prompt:   params.Prompt,
			Provider: s.name,
			Width:    params.Width,
			Height:   params.Height,
		},
	}, nil
}

func (s *stubProvider) ListModels(ctx context.Context) ([]string, error) { return s.models, nil }
func (s *stubProvider) IsAvailable(ctx context.Context) bool             { return true }

// inpaintStub adds the optional inpainting capability.
type inpaintStub struct {
	stubProvider
	inpaintCalls int
}

func (s *inpaintStub) GenerateInpainting(ctx context.Context, params InpaintingParams) (Result, error) {
	s.inpaintCalls++
	return Result{MIME: "image/png", Meta: doc.GenerationMeta{Prompt: params.Prompt}}, nil
}

// noSleep removes the backoff wait so retry tests run instantly.
func noSleep(sleeps *[]time.Duration) OrchestratorOption {
	return withSleep(func(ctx context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
		return nil
	})
}

func TestGenerateRetriesWithDoublingBackoff(t *testing.T) {
	p := &stubProvider{name: "flaky", kind: KindFree, failures: 4}
	var sleeps []time.Duration
	o, err := NewOrchestrator([]Provider{p}, noSleep(&sleeps))
	require.NoError(t, err)

	res, err := o.GenerateImage(context.Background(), Params{Prompt: "a fox", Width: 512, Height: 512})
	require.NoError(t, err)
	assert.Equal(t, 5, p.calls)
	assert.Equal(t, 5, res.Meta.Attempt, "metadata records the successful attempt")

	// 1s base doubling per attempt, capped at 8s.
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	assert.Equal(t, want, sleeps)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	p := &stubProvider{name: "down", kind: KindFree, failures: 100}
	o, err := NewOrchestrator([]Provider{p}, noSleep(nil))
	require.NoError(t, err)

	_, err = o.GenerateImage(context.Background(), Params{Prompt: "a fox"})
	require.Error(t, err)
	assert.Equal(t, 5, p.calls)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindServer, ge.Kind, "last failure kind survives exhaustion")
	assert.Equal(t, 5, ge.Attempt)
	assert.Contains(t, ge.Message, "after 5 attempts")
	assert.Contains(t, ge.Message, "the provider failed to generate")
}

func TestCancellationDuringBackoff(t *testing.T) {
	p := &stubProvider{name: "slow", kind: KindFree, failures: 100}
	o, err := NewOrchestrator([]Provider{p}, withSleep(
		func(ctx context.Context, d time.Duration) error { return context.Canceled },
	))
	require.NoError(t, err)

	_, err = o.GenerateImage(context.Background(), Params{Prompt: "a fox"})
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, 1, p.calls, "cancellation aborts the loop, no further attempts")

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindCancelled, ge.Kind)
	assert.NotContains(t, ge.Message, "attempts", "cancellation is never reported as exhaustion")
}

func TestCancellationBetweenAttempts(t *testing.T) {
	p := &stubProvider{name: "slow", kind: KindFree, failures: 100}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	o, err := NewOrchestrator([]Provider{p}, withSleep(
		func(c context.Context, d time.Duration) error {
			sleeps++
			if sleeps == 2 {
				cancel()
				return c.Err()
			}
			return nil
		},
	))
	require.NoError(t, err)

	_, err = o.GenerateImage(ctx, Params{Prompt: "a fox"})
	assert.True(t, IsCancelled(err))
	assert.Equal(t, 2, p.calls, "cancelling after the second attempt prevents a third")
}

func TestPreCancelledContextMakesNoCalls(t *testing.T) {
	p := &stubProvider{name: "idle", kind: KindFree}
	o, err := NewOrchestrator([]Provider{p})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.GenerateImage(ctx, Params{Prompt: "a fox"})
	assert.True(t, IsCancelled(err))
	assert.Equal(t, 0, p.calls)
}

func TestInpaintingUnsupportedFailsFast(t *testing.T) {
	p := &stubProvider{name: "basic", kind: KindFree}
	o, err := NewOrchestrator([]Provider{p})
	require.NoError(t, err)
	assert.False(t, o.SupportsInpainting())

	_, err = o.GenerateInpainting(context.Background(), InpaintingParams{
		Params: Params{Prompt: "fix the sky"},
	})
	assert.True(t, IsUnsupported(err))
	assert.Equal(t, 0, p.calls, "capability mismatch is detected before any call")
}

func TestInpaintingRunsThroughRetryLoop(t *testing.T) {
	p := &inpaintStub{stubProvider: stubProvider{name: "painter", kind: KindPaid}}
	o, err := NewOrchestrator([]Provider{p})
	require.NoError(t, err)
	assert.True(t, o.SupportsInpainting())

	res, err := o.GenerateInpainting(context.Background(), InpaintingParams{
		Params: Params{Prompt: "fix the sky"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.inpaintCalls)
	assert.Equal(t, 1, res.Meta.Attempt)
}

func TestProgressReportsEveryAttempt(t *testing.T) {
	p := &stubProvider{name: "flaky", kind: KindFree, failures: 2}
	var attempts []int
	o, err := NewOrchestrator([]Provider{p},
		noSleep(nil),
		WithProgress(func(attempt, maxAttempts int) {
			attempts = append(attempts, attempt)
			assert.Equal(t, 5, maxAttempts)
		}),
	)
	require.NoError(t, err)

	_, err = o.GenerateImage(context.Background(), Params{Prompt: "a fox"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestUseProviderSwitchesCurrent(t *testing.T) {
	free := &stubProvider{name: "pollinations", kind: KindFree}
	paid := &stubProvider{name: "dezgo", kind: KindPaid}
	o, err := NewOrchestrator([]Provider{free, paid})
	require.NoError(t, err)

	assert.Equal(t, "pollinations", o.Current().Name())
	require.NoError(t, o.UseProvider("dezgo"))
	assert.Equal(t, "dezgo", o.Current().Name())
	assert.ErrorContains(t, o.UseProvider("nonexistent"), "unknown provider")

	infos := o.ListProviders(context.Background())
	require.Len(t, infos, 2)
	assert.False(t, infos[0].Current)
	assert.True(t, infos[1].Current)
	assert.Equal(t, KindPaid, infos[1].Kind)
}

func TestNewOrchestratorRequiresProvider(t *testing.T) {
	_, err := NewOrchestrator(nil)
	assert.Error(t, err)
}

func TestAttemptTimeoutGrowsWithCap(t *testing.T) {
	o, err := NewOrchestrator([]Provider{&stubProvider{name: "p"}})
	require.NoError(t, err)

	assert.Equal(t, 35*time.Second, o.attemptTimeout(1))
	assert.Equal(t, 40*time.Second, o.attemptTimeout(2))
	assert.Equal(t, 50*time.Second, o.attemptTimeout(4))
	assert.Equal(t, 50*time.Second, o.attemptTimeout(5), "timeout growth is capped")
}

func TestClassifyStatus(t *testing.T) {
	assert.Nil(t, classifyStatus("p", 200))

	assert.Equal(t, KindRateLimit, classifyStatus("p", 429).Kind)
	assert.Equal(t, KindServer, classifyStatus("p", 500).Kind)
	assert.Equal(t, KindServer, classifyStatus("p", 503).Kind)
	assert.Equal(t, KindBadResponse, classifyStatus("p", 404).Kind)
}

func TestLayerFromResult(t *testing.T) {
	res := Result{
		Data: []byte("png"),
		MIME: "image/png",
		Meta: doc.GenerationMeta{
			Prompt:   "a fox in the snow",
			Provider: "pollinations",
			Width:    512,
			Height:   768,
		},
	}

	layer := LayerFromResult(res, "assets/gen-1.png", 40, 60)
	assert.Equal(t, doc.KindGenerated, layer.Kind)
	assert.Equal(t, "a fox in the snow", layer.Name)
	assert.Equal(t, 40.0, layer.X)
	assert.Equal(t, 60.0, layer.Y)
	assert.Equal(t, 512.0, layer.Width)
	assert.Equal(t, 768.0, layer.Height)
	require.NotNil(t, layer.Image)
	assert.Equal(t, "assets/gen-1.png", layer.Image.Source)
	assert.Equal(t, "image/png", layer.Image.MIME)
	require.NotNil(t, layer.Generation)
	assert.Equal(t, "a fox in the snow", layer.Generation.Prompt)
}
