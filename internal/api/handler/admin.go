package handler

import (
	"net/http"

	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/go-chi/chi/v5"
)

// AdminHandler exposes operator tooling: provider status checks, manual
// reconciliation, the conflict queue and the ledger audit.
type AdminHandler struct {
	polls  *service.StatusPollService
	audit  *service.AuditService
	ledger *service.ReconciliationService
}

func NewAdminHandler(polls *service.StatusPollService, audit *service.AuditService, ledger *service.ReconciliationService) *AdminHandler {
	return &AdminHandler{polls: polls, audit: audit, ledger: ledger}
}

// ProviderStatus handles GET /v1/admin/purchases/{reference}/provider-status.
// It reports what the provider says without changing any state.
func (h *AdminHandler) ProviderStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.polls.QueryProviderStatus(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		RespondServiceError(w, r, err, "query provider status")
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

// Reconcile handles POST /v1/admin/purchases/{reference}/reconcile.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	res, err := h.polls.Reconcile(r.Context(), chi.URLParam(r, "reference"), &actorID)
	if err != nil {
		RespondServiceError(w, r, err, "reconcile purchase")
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// ListConflicts handles GET /v1/admin/conflicts.
func (h *AdminHandler) ListConflicts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	entries, err := h.audit.ListByAction(r.Context(), service.ActionReconciliationConflict, page, pageSize)
	if err != nil {
		RespondServiceError(w, r, err, "list conflicts")
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}

// LedgerDrift handles GET /v1/admin/ledger/drift.
func (h *AdminHandler) LedgerDrift(w http.ResponseWriter, r *http.Request) {
	drift, err := h.ledger.Run(r.Context())
	if err != nil {
		RespondServiceError(w, r, err, "ledger audit")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{
		"drifted": len(drift),
		"wallets": drift,
	})
}
