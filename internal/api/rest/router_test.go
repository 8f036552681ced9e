package rest

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/dedupe"
	"github.com/ozzie78066/bulkbot/internal/token"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := token.Open(filepath.Join(t.TempDir(), "tokens.json"), zap.NewNop())
	require.NoError(t, err)
	dd := dedupe.New(time.Minute)
	t.Cleanup(dd.Stop)
	h := NewHandler(testConfig(t), store, dd, &fakeGenerator{}, &fakeRenderer{}, &fakeMailer{}, &fakeMedia{}, zap.NewNop())
	return NewRouter(h, zap.NewNop(), RouterConfig{RateLimitPerMin: 600})
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterMetricsExposed(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook/order", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouterOrderEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	body := bytes.NewBufferString(`{"email":"buyer@example.com","line_items":[{"title":"Workout Only"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/order", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"plan":"workout"`)
}
