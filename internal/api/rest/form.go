package rest

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/intake"
	"github.com/ozzie78066/bulkbot/internal/llm"
	"github.com/ozzie78066/bulkbot/internal/pdf"
	"github.com/ozzie78066/bulkbot/internal/pkg/logger"
	"github.com/ozzie78066/bulkbot/internal/pkg/metrics"
	"github.com/ozzie78066/bulkbot/internal/plan"
	"github.com/ozzie78066/bulkbot/internal/token"
)

const maxFormBody = 1 << 20

// HandleForm runs the full delivery pipeline for a form submission:
// dedupe, token validation, profile extraction, text generation, PDF
// render, plan email, token consume. The token is consumed only after the
// email went out, so any earlier failure leaves it valid for a retry.
func (h *Handler) HandleForm(w http.ResponseWriter, r *http.Request) {
	reqID := logger.RequestIDFrom(r.Context())

	variant, err := plan.Parse(mux.Vars(r)["plan"])
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown plan", reqID)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unreadable body", reqID)
		return
	}
	sub, err := intake.ParseSubmission(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed form payload", reqID)
		return
	}

	if h.dedupe.Seen(sub.SubmissionID) {
		metrics.DuplicateSubmissionsTotal.Inc()
		h.logger.Info("duplicate submission ignored",
			zap.String("submission_id", sub.SubmissionID),
			zap.String("request_id", reqID))
		respondJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	schema := h.cfg.PlanFor(variant).Schema
	tokenID := schema.Token(sub)
	if tokenID == "" {
		h.rejectToken(w, variant, "missing", reqID)
		return
	}

	// One pipeline per token at a time. A concurrent submission for the
	// same token loses here instead of racing the send stage.
	if !h.acquireToken(tokenID) {
		h.rejectToken(w, variant, "in_flight", reqID)
		return
	}
	defer h.releaseToken(tokenID)

	rec, err := h.store.Validate(tokenID, variant)
	if err != nil {
		h.rejectToken(w, variant, rejectionReason(err), reqID)
		return
	}

	profile := intake.ExtractProfile(sub, schema, intake.DefaultLabeler, rec.Email)

	planText, err := h.generatePlan(r, profile, variant)
	if err != nil {
		h.logger.Error("plan generation failed",
			zap.Error(err),
			zap.String("plan", string(variant)),
			zap.String("request_id", reqID))
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "plan generation failed", reqID)
		return
	}

	pdfBytes, err := h.renderer.Render(pdf.Document{
		Name:      profile.Name,
		Email:     profile.Email,
		Allergies: profile.Allergies,
		Body:      planText,
	})
	if err != nil {
		h.logger.Error("pdf render failed", zap.Error(err), zap.String("request_id", reqID))
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "document render failed", reqID)
		return
	}

	videoURL := h.media.Resolve(r.Context(), variant)
	if err := h.mailer.SendPlan(r.Context(), profile.Email, profile.Name, pdfBytes, videoURL); err != nil {
		h.logger.Error("plan email failed", zap.Error(err), zap.String("request_id", reqID))
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "could not send plan", reqID)
		return
	}

	if err := h.store.Consume(tokenID); err != nil {
		if errors.Is(err, token.ErrConsumed) || errors.Is(err, token.ErrNotFound) {
			h.rejectToken(w, variant, rejectionReason(err), reqID)
			return
		}
		// The flush failed and the store rolled the consume back, so the
		// token is still live. The mail has already gone out, but a 200
		// here would report a commit that never happened; the provider's
		// retry of this submission id is absorbed by the dedupe window.
		h.logger.Error("token consume flush failed",
			zap.Error(err),
			zap.String("token_prefix", logger.TokenPrefix(tokenID)),
			zap.String("request_id", reqID))
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "could not consume token", reqID)
		return
	}
	metrics.TokensConsumedTotal.WithLabelValues(string(variant)).Inc()

	h.logger.Info("plan delivered",
		zap.String("plan", string(variant)),
		zap.String("token_prefix", logger.TokenPrefix(tokenID)),
		zap.String("request_id", reqID))
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "plan": string(variant)})
}

// generatePlan issues one text-generation request per plan period and
// concatenates the results in order.
func (h *Handler) generatePlan(r *http.Request, profile intake.Profile, variant plan.Variant) (string, error) {
	parts := make([]string, 0, variant.Periods())
	for period := 1; period <= variant.Periods(); period++ {
		prompt := llm.BuildPrompt(profile.Description, profile.Allergies, variant, period)
		text, err := h.generator.Generate(r.Context(), prompt)
		if err != nil {
			return "", err
		}
		parts = append(parts, llm.CleanOutput(text))
	}
	return strings.Join(parts, "\n\n"), nil
}

// rejectToken answers every token failure with the same 401 so the
// response never reveals whether a token exists, was used, or belongs to
// another plan. The distinction survives only in logs and metrics.
func (h *Handler) rejectToken(w http.ResponseWriter, variant plan.Variant, reason, reqID string) {
	metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
	h.logger.Warn("token rejected",
		zap.String("reason", reason),
		zap.String("plan", string(variant)),
		zap.String("request_id", reqID))
	respondError(w, http.StatusUnauthorized, ErrCodeInvalidToken, "invalid token", reqID)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, token.ErrNotFound):
		return "not_found"
	case errors.Is(err, token.ErrConsumed):
		return "consumed"
	case errors.Is(err, token.ErrPlanMismatch):
		return "plan_mismatch"
	default:
		return "unknown"
	}
}
