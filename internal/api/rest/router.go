package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/api/middleware"
)

// RouterConfig tunes the middleware chain.
type RouterConfig struct {
	RateLimitPerMin int
}

// NewRouter builds the HTTP surface: the two webhook routes plus health
// and metrics.
func NewRouter(h *Handler, log *zap.Logger, cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.StructuredLog(log))
	r.Use(middleware.Recovery(log))

	r.HandleFunc("/webhook/order", h.HandleOrder).Methods(http.MethodPost)
	r.HandleFunc("/webhook/form/{plan}", h.HandleForm).Methods(http.MethodPost)
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", middleware.ResponseRequestIDHeader},
	})

	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = 60
	}

	// Outermost first: request id, rate limit, CORS, then the router.
	var handler http.Handler = r
	handler = c.Handler(handler)
	handler = middleware.RateLimit(perMin, perMin)(handler)
	handler = middleware.RequestID(handler)
	return handler
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
