package handler

import (
	"net/http"
	"strings"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/service"
)

type WalletHandler struct {
	svc *service.WalletService
}

func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// GetWallet handles GET /v1/wallet for the authenticated owner.
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	wallet, err := h.svc.GetWallet(r.Context(), actorID.String())
	if err != nil {
		RespondServiceError(w, r, err, "get wallet")
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// GetStatement handles GET /v1/wallet/transactions.
func (h *WalletHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	page, pageSize := pageParams(r)
	entries, err := h.svc.Statement(r.Context(), actorID.String(), page, pageSize)
	if err != nil {
		RespondServiceError(w, r, err, "get statement")
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}

type openWalletRequest struct {
	OwnerID        string `json:"owner_id" validate:"required,max=128"`
	Currency       string `json:"currency" validate:"omitempty,len=3"`
	OpeningBalance string `json:"opening_balance"`
}

// OpenWallet handles POST /v1/admin/wallets.
func (h *WalletHandler) OpenWallet(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req openWalletRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		RespondServiceError(w, r, err, "decode wallet")
		return
	}
	var opening int64
	if strings.TrimSpace(req.OpeningBalance) != "" {
		opening, err = domain.ParseAmount(req.OpeningBalance)
		if err != nil || opening < 0 {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", "opening_balance must be a non-negative decimal")
			return
		}
	}

	wallet, err := h.svc.OpenWallet(r.Context(), req.OwnerID, req.Currency, opening, &actorID)
	if err != nil {
		RespondServiceError(w, r, err, "open wallet")
		return
	}
	RespondJSON(w, http.StatusCreated, wallet)
}
