// Package media resolves intro/how-to video links for plan emails through a
// cache-aside lookup: hits come from an expirable LRU, misses go to the
// configured source. Lookup failures degrade to "no link" so the delivery
// pipeline never fails on a missing video.
package media

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/pkg/metrics"
	"github.com/ozzie78066/bulkbot/internal/plan"
)

// Source looks up a video URL for a plan variant. An empty URL with a nil
// error means the variant has no video.
type Source interface {
	VideoURL(ctx context.Context, v plan.Variant) (string, error)
}

// StaticSource serves links from a fixed table.
type StaticSource map[plan.Variant]string

// VideoURL implements Source.
func (s StaticSource) VideoURL(_ context.Context, v plan.Variant) (string, error) {
	return s[v], nil
}

// Resolver caches source lookups for a fixed TTL.
type Resolver struct {
	source Source
	cache  *expirable.LRU[plan.Variant, string]
	logger *zap.Logger
}

// NewResolver creates a Resolver with the given cache TTL (1 hour if <= 0).
func NewResolver(source Source, ttl time.Duration, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		source: source,
		cache:  expirable.NewLRU[plan.Variant, string](32, nil, ttl),
		logger: logger,
	}
}

// Resolve returns the video URL for a variant, or "" when none is known or
// the source fails.
func (r *Resolver) Resolve(ctx context.Context, v plan.Variant) string {
	if url, ok := r.cache.Get(v); ok {
		metrics.MediaCacheHitsTotal.Inc()
		return url
	}
	url, err := r.source.VideoURL(ctx, v)
	if err != nil {
		r.logger.Warn("video link lookup failed", zap.String("plan", string(v)), zap.Error(err))
		return ""
	}
	r.cache.Add(v, url)
	return url
}
