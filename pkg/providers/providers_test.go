package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyCompleter struct {
	failures int
	err      error
	calls    int
}

func (f *flakyCompleter) Complete(ctx context.Context, model string, prompt string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "ok: " + prompt, nil
}

func TestRetrying(t *testing.T) {
	ctx := context.Background()
	fast := WithBackoff(time.Millisecond, 5*time.Millisecond)

	t.Run("Should retry transient failures", func(t *testing.T) {
		next := &flakyCompleter{failures: 2, err: errors.New("503 service unavailable")}
		out, err := WithRetry(next, fast).Complete(ctx, "m", "hi")
		require.NoError(t, err)
		assert.Equal(t, "ok: hi", out)
		assert.Equal(t, 3, next.calls)
	})

	t.Run("Should give up after the configured attempts", func(t *testing.T) {
		next := &flakyCompleter{failures: 10, err: errors.New("timeout")}
		_, err := WithRetry(next, fast, WithAttempts(2)).Complete(ctx, "m", "hi")
		require.Error(t, err)
		assert.Equal(t, 3, next.calls)
	})

	t.Run("Should not retry permanent failures", func(t *testing.T) {
		next := &flakyCompleter{failures: 1, err: ErrMissingAPIKey}
		_, err := WithRetry(next, fast).Complete(ctx, "m", "hi")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
		assert.Equal(t, 1, next.calls)
	})
}

func TestByName(t *testing.T) {
	ctx := context.Background()

	t.Run("Should build the OpenAI client without network access", func(t *testing.T) {
		c, err := ByName(ctx, "OpenAI", WithAPIKey("sk-test"), WithBaseURL("http://localhost:1/v1/"))
		require.NoError(t, err)
		assert.IsType(t, &OpenAIClient{}, c)
	})

	t.Run("Should require a Gemini key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		_, err := ByName(ctx, "gemini")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := ByName(ctx, "llama")
		assert.Error(t, err)
	})
}
