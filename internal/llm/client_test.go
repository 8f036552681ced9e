package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozzie78066/bulkbot/internal/plan"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Retry:   fastRetry(),
	}, nil)
}

func completionJSON(text string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": text}},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotBody chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(completionJSON("Day 1: squats")))
	})

	text, err := c.Generate(context.Background(), "make a plan")
	require.NoError(t, err)
	assert.Equal(t, "Day 1: squats", text)
	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "make a plan", gotBody.Messages[1].Content)
	assert.Equal(t, DefaultModel, gotBody.Model)
}

func TestGenerateRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completionJSON("ok after backoff")))
	})

	text, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok after backoff", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateRateLimitExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestGenerateServerErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "non-429 errors must fail immediately")
}

func TestGenerateEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.Generate(context.Background(), "p")
	assert.Error(t, err)
}

func TestBuildPromptDeterministic(t *testing.T) {
	a := BuildPrompt("Goal: bulk", "peanuts", plan.FourWeek, 1)
	b := BuildPrompt("Goal: bulk", "peanuts", plan.FourWeek, 1)
	assert.Equal(t, a, b)

	assert.Contains(t, a, "Weeks 1 and 2")
	assert.Contains(t, a, "**4 Week** plan")
	assert.Contains(t, a, "**peanuts**")
	assert.Contains(t, a, "Goal: bulk")

	second := BuildPrompt("Goal: bulk", "peanuts", plan.FourWeek, 2)
	assert.Contains(t, second, "Weeks 3 and 4")
	assert.NotEqual(t, a, second)
}

func TestBuildPromptVariants(t *testing.T) {
	one := BuildPrompt("d", "", plan.OneWeek, 1)
	assert.Contains(t, one, "1 Week")
	assert.Contains(t, one, "**None**", "missing allergies default to None")

	workout := BuildPrompt("d", "None", plan.WorkoutOnly, 1)
	assert.Contains(t, workout, "workout plan")
	assert.NotContains(t, workout, "Breakfast", "workout-only plan has no meals")

	meals := BuildPrompt("d", "None", plan.MealsOnly, 1)
	assert.Contains(t, meals, "meal plan")
	assert.NotContains(t, meals, "sets x reps", "meals-only plan has no workouts")
}

func TestCleanOutput(t *testing.T) {
	in := "**Day 1:** squats *3x5*\n\n"
	assert.Equal(t, "Day 1: squats 3x5", CleanOutput(in))
	assert.False(t, strings.Contains(CleanOutput(in), "*"))
}
