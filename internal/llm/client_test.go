package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	// genai pulls in opencensus, whose view worker starts in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeProvider returns scripted results in order, repeating the last one.
type fakeProvider struct {
	mu      sync.Mutex
	results []result
	calls   int
	opts    []GenerateOptions
	block   bool
}

type result struct {
	text string
	err  error
}

func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	f.mu.Lock()
	f.calls++
	f.opts = append(f.opts, opts)
	r := f.results[min(f.calls, len(f.results))-1]
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	return &Generation{Text: r.text, TokensUsed: 42, Model: "fake-model"}, nil
}

func newClient(p Provider, policy RetryPolicy) *Client {
	return NewClient(p, policy, 0.3, 2048, zap.NewNop())
}

func TestGenerate_SucceedsFirstTry(t *testing.T) {
	p := &fakeProvider{results: []result{{text: `{"ok":true}`}}}
	gen, err := newClient(p, NoWait(3)).Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, gen.Text)
	assert.Equal(t, 42, gen.TokensUsed)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, GenerateOptions{Temperature: 0.3, MaxOutputTokens: 2048, Safety: DefaultSafety}, p.opts[0])
}

func TestGenerate_RetriesThenSucceeds(t *testing.T) {
	boom := errors.New("503 overloaded")
	p := &fakeProvider{results: []result{{err: boom}, {err: boom}, {text: "done"}}}
	gen, err := newClient(p, NoWait(3)).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "done", gen.Text)
	assert.Equal(t, 3, p.calls)
}

func TestGenerate_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("connection reset")
	p := &fakeProvider{results: []result{{err: boom}}}
	_, err := newClient(p, NoWait(3)).Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 3, p.calls)
}

func TestGenerate_CancelledDuringBackoff(t *testing.T) {
	p := &fakeProvider{results: []result{{err: errors.New("nope")}}}
	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newClient(p, policy).Generate(ctx, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrModelUnavailable))
	assert.Equal(t, 1, p.calls)
}

func TestGenerate_AttemptTimeout(t *testing.T) {
	p := &fakeProvider{results: []result{{}}, block: true}
	policy := RetryPolicy{MaxAttempts: 2, AttemptTimeout: 10 * time.Millisecond}

	_, err := newClient(p, policy).Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, p.calls)
}

func TestBackoff(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 4*time.Second, p.Backoff(1))
	assert.Equal(t, 8*time.Second, p.Backoff(2))
	assert.Equal(t, 10*time.Second, p.Backoff(3))
	assert.Equal(t, 10*time.Second, p.Backoff(10))
	assert.Equal(t, time.Duration(0), NoWait(3).Backoff(2))
}

func TestGeminiSafety(t *testing.T) {
	settings := geminiSafety(DefaultSafety)
	require.Len(t, settings, 4)
	for _, s := range settings {
		assert.Equal(t, "BLOCK_MEDIUM_AND_ABOVE", string(s.Threshold))
	}
	assert.Equal(t, "HARM_CATEGORY_HARASSMENT", string(settings[0].Category))
	assert.Equal(t, "HARM_CATEGORY_DANGEROUS_CONTENT", string(settings[3].Category))
}
