package handler

import (
	"io"
	"net/http"

	"github.com/ayo6706/utility-payments/internal/service"
	"go.uber.org/zap"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookHandler receives provider settlement callbacks.
type WebhookHandler struct {
	svc *service.CallbackService
}

func NewWebhookHandler(svc *service.CallbackService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// HandleProviderCallback handles POST /v1/webhooks/provider/callback.
// Processing outcomes are never reported back to the provider. The answer is
// always 200 {"ok":true}; rejected callbacks are audited by the service.
func (h *WebhookHandler) HandleProviderCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		zap.L().Warn("read callback body failed", zap.Error(err))
		RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	outcome, err := h.svc.HandleCallback(r.Context(), body, r.Header.Get(signatureHeader))
	switch {
	case err != nil:
		zap.L().Warn("provider callback not applied", zap.Error(err))
	case outcome != nil:
		zap.L().Info("provider callback processed",
			zap.String("reference", outcome.Reference),
			zap.String("status", outcome.Status),
			zap.Bool("applied", outcome.Applied),
			zap.Bool("conflict", outcome.Conflict),
		)
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
