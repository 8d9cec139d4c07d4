package handler

import (
	"net/http"
	"strings"

	"github.com/ayo6706/utility-payments/internal/domain"
	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// lookupReserved are query parameters consumed by the lookup handler itself.
var lookupReserved = map[string]struct{}{
	"destination":   {},
	"provider_id":   {},
	"provider_code": {},
}

// CatalogHandler serves products, providers and pre-purchase lookups.
type CatalogHandler struct {
	resolver *service.ProviderResolver
	lookups  *service.LookupService
}

func NewCatalogHandler(resolver *service.ProviderResolver, lookups *service.LookupService) *CatalogHandler {
	return &CatalogHandler{resolver: resolver, lookups: lookups}
}

// ListProducts handles GET /v1/products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, domain.Products())
}

// ListProviders handles GET /v1/providers?channel=.
func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	channel := domain.Channel(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("channel"))))
	providers, err := h.resolver.ListProviders(r.Context(), channel)
	if err != nil {
		RespondServiceError(w, r, err, "list providers")
		return
	}
	RespondJSON(w, http.StatusOK, providers)
}

// Lookup handles GET /v1/products/{product}/lookup. Query parameters other
// than destination and the provider selector are passed as product fields.
func (h *CatalogHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := service.ProviderRef{Code: q.Get("provider_code")}
	if raw := q.Get("provider_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/validation-failed", "provider_id must be a valid uuid")
			return
		}
		ref.ID = &id
	}
	fields := map[string]string{}
	for name, values := range q {
		if _, reserved := lookupReserved[name]; reserved || len(values) == 0 {
			continue
		}
		fields[name] = values[0]
	}

	view, err := h.lookups.Lookup(r.Context(), service.LookupCommand{
		Product:     chi.URLParam(r, "product"),
		Destination: q.Get("destination"),
		Provider:    ref,
		Fields:      fields,
	})
	if err != nil {
		RespondServiceError(w, r, err, "lookup")
		return
	}
	RespondJSON(w, http.StatusOK, view)
}
