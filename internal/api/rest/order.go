package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/pkg/logger"
	"github.com/ozzie78066/bulkbot/internal/pkg/metrics"
	"github.com/ozzie78066/bulkbot/internal/plan"
)

// orderRequest is the shop webhook payload. Only the buyer email and the
// line-item titles matter; everything else is ignored.
type orderRequest struct {
	Email     string `json:"email"`
	LineItems []struct {
		Title string `json:"title"`
	} `json:"line_items"`
}

// HandleOrder mints a single-use token for the classified plan and emails
// the buyer a form link carrying it. Redelivery of the same order mints a
// fresh token; the previous one stays valid until used.
func (h *Handler) HandleOrder(w http.ResponseWriter, r *http.Request) {
	reqID := logger.RequestIDFrom(r.Context())

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed order payload", reqID)
		return
	}
	if req.Email == "" || len(req.LineItems) == 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "email and line_items are required", reqID)
		return
	}

	titles := make([]string, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		titles = append(titles, item.Title)
	}
	variant, err := plan.Classify(titles)
	if err != nil {
		if errors.Is(err, plan.ErrUnclassified) {
			h.logger.Warn("order did not classify to a plan",
				zap.Strings("titles", titles),
				zap.String("request_id", reqID))
			respondError(w, http.StatusBadRequest, ErrCodePlanUnclassified, "no line item matches a known plan", reqID)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "classification failed", reqID)
		return
	}

	id, err := h.store.Create(variant, req.Email)
	if err != nil {
		h.logger.Error("token create failed", zap.Error(err), zap.String("request_id", reqID))
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "could not persist token", reqID)
		return
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(variant)).Inc()

	formURL := h.formURL(variant, id)
	if err := h.mailer.SendFormLink(r.Context(), req.Email, variant, formURL); err != nil {
		h.logger.Error("form link email failed",
			zap.Error(err),
			zap.String("plan", string(variant)),
			zap.String("request_id", reqID))
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "could not send form link", reqID)
		return
	}

	h.logger.Info("order processed",
		zap.String("plan", string(variant)),
		zap.String("token_prefix", logger.TokenPrefix(id)),
		zap.String("request_id", reqID))
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "plan": string(variant)})
}

// formURL appends the token and plan slug to the variant's form base URL.
func (h *Handler) formURL(v plan.Variant, tokenID string) string {
	base := h.cfg.PlanFor(v).FormURL
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(tokenID) + "&plan=" + string(v)
	}
	q := u.Query()
	q.Set("token", tokenID)
	q.Set("plan", string(v))
	u.RawQuery = q.Encode()
	return u.String()
}
