package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/groceryhub/internal/grocery"
	"github.com/dukerupert/groceryhub/internal/metrics"
	"github.com/dukerupert/groceryhub/internal/store"
	"github.com/dukerupert/groceryhub/internal/tips"
)

type TipsHandler struct {
	advisor  *tips.Advisor
	items    *store.ItemStore
	metrics  *metrics.Metrics
	validate *validator.Validate
	logger   *slog.Logger
}

func NewTipsHandler(a *tips.Advisor, is *store.ItemStore, m *metrics.Metrics, v *validator.Validate, logger *slog.Logger) *TipsHandler {
	return &TipsHandler{advisor: a, items: is, metrics: m, validate: v, logger: logger}
}

type healthTipsRequest struct {
	ItemList string `json:"itemList"`
}

type parseItemsRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type tipsResponse struct {
	Tips string `json:"tips"`
	Demo bool   `json:"demo"`
}

func (h *TipsHandler) CheckConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"isConfigured": h.advisor.Configured()})
}

// HealthTips answers tips for a caller-formatted item list.
func (h *TipsHandler) HealthTips(w http.ResponseWriter, r *http.Request) {
	var req healthTipsRequest
	if !decode(w, r, h.validate, &req) {
		return
	}
	if req.ItemList == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "Missing itemList in request body")
		return
	}

	text, err := h.advisor.HealthTips(r.Context(), req.ItemList)
	if errors.Is(err, tips.ErrNotConfigured) {
		h.count("health", "unconfigured")
		writeError(w, http.StatusPreconditionFailed, "API_KEY_MISSING", "API_KEY_MISSING")
		return
	}
	if err != nil {
		h.fail(w, r, "health", err)
		return
	}
	h.count("health", "ok")
	writeJSON(w, http.StatusOK, tipsResponse{Tips: text})
}

// ListTips answers tips for the caller's current list. Without an API key
// the demo text is returned instead.
func (h *TipsHandler) ListTips(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.Snapshot(r.PathValue("list_id"))
	if err != nil {
		writeStoreError(w, h.logger, "snapshot items", err)
		return
	}
	itemList := tips.FormatItemList(grocery.Aggregate(items))
	if itemList == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "The list is empty")
		return
	}

	if !h.advisor.Configured() {
		h.count("health", "demo")
		writeJSON(w, http.StatusOK, tipsResponse{Tips: tips.DemoTips, Demo: true})
		return
	}

	text, err := h.advisor.HealthTips(r.Context(), itemList)
	if err != nil {
		h.fail(w, r, "health", err)
		return
	}
	h.count("health", "ok")
	writeJSON(w, http.StatusOK, tipsResponse{Tips: text})
}

// ParseItems turns free text into suggested items. Nothing is stored.
func (h *TipsHandler) ParseItems(w http.ResponseWriter, r *http.Request) {
	var req parseItemsRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	parsed, err := h.advisor.ParseItems(r.Context(), req.Text, grocery.CategoryNames())
	if errors.Is(err, tips.ErrNotConfigured) {
		h.count("parse", "unconfigured")
		writeError(w, http.StatusPreconditionFailed, "API_KEY_MISSING", "API_KEY_MISSING")
		return
	}
	if err != nil {
		h.fail(w, r, "parse", err)
		return
	}
	h.count("parse", "ok")
	writeJSON(w, http.StatusOK, map[string]any{"items": parsed})
}

// fail reports a model error, or nothing at all when the caller has gone
// away and the answer would be stale.
func (h *TipsHandler) fail(w http.ResponseWriter, r *http.Request, kind string, err error) {
	if errors.Is(r.Context().Err(), context.Canceled) {
		h.count(kind, "canceled")
		h.logger.Debug("tips request abandoned", "kind", kind)
		return
	}
	h.count(kind, "error")
	h.logger.Error("tips request failed", "kind", kind, "error", err)
	msg := "Failed to generate health tips. Details: " + err.Error()
	if kind == "parse" {
		msg = "Failed to parse items. Details: " + err.Error()
	}
	writeError(w, http.StatusInternalServerError, "TIPS_FAILED", msg)
}

func (h *TipsHandler) count(kind, outcome string) {
	h.metrics.TipsRequests.WithLabelValues(kind, outcome).Inc()
}
