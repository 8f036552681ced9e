// Package rest exposes the two webhook endpoints that drive the pipeline:
// order intake (mint a token, email the form link) and form intake
// (validate the token, generate the plan, render and email the PDF,
// consume the token).
package rest

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/config"
	"github.com/ozzie78066/bulkbot/internal/dedupe"
	"github.com/ozzie78066/bulkbot/internal/mail"
	"github.com/ozzie78066/bulkbot/internal/pdf"
	"github.com/ozzie78066/bulkbot/internal/plan"
	"github.com/ozzie78066/bulkbot/internal/token"
)

// TextGenerator produces plan text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DocumentRenderer turns a document into PDF bytes.
type DocumentRenderer interface {
	Render(doc pdf.Document) ([]byte, error)
}

// MediaResolver looks up the intro-video link for a plan variant. An empty
// string means no link.
type MediaResolver interface {
	Resolve(ctx context.Context, v plan.Variant) string
}

// Handler holds the webhook handlers and their collaborators.
type Handler struct {
	cfg       *config.Config
	store     *token.Store
	dedupe    *dedupe.Deduplicator
	generator TextGenerator
	renderer  DocumentRenderer
	mailer    mail.Mailer
	media     MediaResolver
	logger    *zap.Logger

	// inflight serializes form pipelines per token so two concurrent
	// submissions for the same token cannot both reach the send stage.
	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// NewHandler wires the webhook handlers.
func NewHandler(cfg *config.Config, store *token.Store, dd *dedupe.Deduplicator,
	gen TextGenerator, renderer DocumentRenderer, mailer mail.Mailer,
	media MediaResolver, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     store,
		dedupe:    dd,
		generator: gen,
		renderer:  renderer,
		mailer:    mailer,
		media:     media,
		logger:    logger,
		inflight:  make(map[string]struct{}),
	}
}

// acquireToken marks a token's pipeline as in flight. Returns false when
// another request already holds it.
func (h *Handler) acquireToken(id string) bool {
	h.inflightMu.Lock()
	defer h.inflightMu.Unlock()
	if _, busy := h.inflight[id]; busy {
		return false
	}
	h.inflight[id] = struct{}{}
	return true
}

func (h *Handler) releaseToken(id string) {
	h.inflightMu.Lock()
	delete(h.inflight, id)
	h.inflightMu.Unlock()
}
