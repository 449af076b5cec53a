package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calebmonroe/printhaus-backend/pkg/logger"
)

// OwnerIDHeader carries the caller's identity, injected by the trusted edge.
// There is no end-user auth here; the gateway in front terminates that.
const OwnerIDHeader = "X-Owner-Id"

type ownerCtxKey struct{}

// OwnerContext extracts the owner id header into the request context. A
// missing or malformed header is not an error at this layer; handlers that
// need an owner reject the request themselves.
func OwnerContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(OwnerIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			ownerID, err := uuid.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ownerCtxKey{}, ownerID)
			if logg != nil {
				ctx = logg.WithOwnerID(ctx, ownerID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerID returns the authenticated owner for the request, if any.
func OwnerID(ctx context.Context) (uuid.UUID, bool) {
	ownerID, ok := ctx.Value(ownerCtxKey{}).(uuid.UUID)
	return ownerID, ok
}
