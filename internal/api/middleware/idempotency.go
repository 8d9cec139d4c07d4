package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayo6706/utility-payments/internal/api/problem"
	"github.com/ayo6706/utility-payments/internal/observability"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 100

	idempotencyContextKey contextKey = "idempotency_key"
)

var idempotentMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// IdempotencyKeyMiddleware validates an optional Idempotency-Key header on
// mutating requests and passes it to handlers through the context. Replay and
// fingerprint checks happen in the purchase engine, next to the ledger write.
func IdempotencyKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := idempotentMethods[r.Method]; !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if key == "" {
			observability.IncrementIdempotencyEvent("missing_key")
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			observability.IncrementIdempotencyEvent("invalid_key")
			problem.Write(w, r, http.StatusBadRequest, problem.Type("idempotency/invalid-key"), http.StatusText(http.StatusBadRequest), "Idempotency-Key must be at most 100 characters")
			return
		}

		ctx := context.WithValue(r.Context(), idempotencyContextKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdempotencyKeyFromContext returns the client supplied key, if any.
func IdempotencyKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(idempotencyContextKey).(string); ok {
		return v
	}
	return ""
}
