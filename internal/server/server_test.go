package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/config"
	"github.com/ozzie78066/bulkbot/internal/intake"
	"github.com/ozzie78066/bulkbot/internal/plan"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Plans: map[string]config.PlanConfig{}}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 38753
	cfg.Store.Path = filepath.Join(t.TempDir(), "tokens.json")
	cfg.Dedupe.Window = time.Minute
	cfg.OpenAI.Model = "gpt-4o"
	cfg.OpenAI.BaseURL = "http://127.0.0.1:1"
	cfg.Mail.Host = "127.0.0.1"
	cfg.Mail.Port = 2525
	cfg.RateLimit.PerMin = 60
	cfg.Media.CacheTTL = time.Minute
	for _, v := range plan.All() {
		cfg.Plans[string(v)] = config.PlanConfig{
			FormURL: "https://forms.example.com/" + string(v),
			Schema:  intake.FieldSchema{TokenField: "question_token"},
		}
	}
	return cfg
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dedupe.Window = 0
	_, err := New(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "dedupe.window")
}

func TestNewRejectsUnknownMediaPlan(t *testing.T) {
	cfg := testConfig(t)
	cfg.Media.Videos = map[string]string{"5week": "https://example.com/v"}
	_, err := New(cfg, zap.NewNop())
	assert.ErrorContains(t, err, "media.videos")
}

func TestServerLifecycle(t *testing.T) {
	cfg := testConfig(t)

	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start(nil))
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(nil), "double start rejected")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())
	assert.Error(t, s.Stop(ctx), "double stop rejected")
}
