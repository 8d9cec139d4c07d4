package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ayo6706/utility-payments/internal/api/middleware"
	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PurchaseHandler struct {
	svc *service.PurchaseService
}

func NewPurchaseHandler(svc *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

type purchaseRequest struct {
	Amount       json.Number       `json:"amount" validate:"required"`
	Destination  string            `json:"destination" validate:"required,max=64"`
	ProviderID   string            `json:"provider_id" validate:"omitempty,uuid"`
	ProviderCode string            `json:"provider_code" validate:"omitempty,max=64"`
	Fields       map[string]string `json:"fields"`
}

func (req purchaseRequest) providerRef() (service.ProviderRef, error) {
	ref := service.ProviderRef{Code: req.ProviderCode}
	if req.ProviderID != "" {
		id, err := uuid.Parse(req.ProviderID)
		if err != nil {
			return ref, domain.New(domain.KindValidation, "provider_id must be a valid uuid")
		}
		ref.ID = &id
	}
	return ref, nil
}

// CreatePurchase handles POST /v1/products/{product}/purchases.
// Every accepted purchase, including replays and provider failures, is 200.
func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req purchaseRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		RespondServiceError(w, r, err, "decode purchase")
		return
	}
	amount, err := domain.ParseAmount(req.Amount.String())
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", err.Error())
		return
	}
	provider, err := req.providerRef()
	if err != nil {
		RespondServiceError(w, r, err, "decode purchase")
		return
	}

	res, err := h.svc.Purchase(r.Context(), service.PurchaseCommand{
		OwnerID:        actorID.String(),
		Product:        chi.URLParam(r, "product"),
		Amount:         amount,
		Destination:    req.Destination,
		Provider:       provider,
		Fields:         req.Fields,
		IdempotencyKey: middleware.IdempotencyKeyFromContext(r.Context()),
	})
	if err != nil {
		RespondServiceError(w, r, err, "purchase")
		return
	}
	if res.Duplicate {
		w.Header().Set("X-Idempotent-Replay", "true")
	}
	RespondJSON(w, http.StatusOK, res)
}

// GetPurchase handles GET /v1/purchases/{reference}.
func (h *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	view, err := h.svc.GetPurchase(r.Context(), chi.URLParam(r, "reference"), actorID.String(), isAdmin)
	if err != nil {
		RespondServiceError(w, r, err, "get purchase")
		return
	}
	RespondJSON(w, http.StatusOK, view)
}
