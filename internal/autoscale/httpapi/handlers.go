package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daksh204singh/distributed-banking-ops/internal/autoscale"
)

// WebhookProcessor turns alert webhooks into scaling results.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload *autoscale.WebhookPayload) []autoscale.Result
}

// Handler serves the autoscale webhook endpoint.
type Handler struct {
	scaler WebhookProcessor
	log    *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(scaler WebhookProcessor, log *zap.Logger) *Handler {
	return &Handler{scaler: scaler, log: log}
}

// NewRouter builds the autoscale service router.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", healthHandler)
	r.Post("/webhook", h.Webhook)
	return r
}

// Webhook handles POST /webhook.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload autoscale.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid webhook payload")
		return
	}

	results := h.scaler.HandleWebhook(r.Context(), &payload)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"results": results,
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
