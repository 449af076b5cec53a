package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calebmonroe/printhaus-backend/api/responses"
	catalogsvc "github.com/calebmonroe/printhaus-backend/internal/catalog"
	pkgerrors "github.com/calebmonroe/printhaus-backend/pkg/errors"
	"github.com/calebmonroe/printhaus-backend/pkg/logger"
)

// CatalogItemFetch serves a catalog item through the cache, reporting the
// outcome in an X-Cache diagnostic header.
func CatalogItemFetch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		dto, hit, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if hit {
			w.Header().Set("X-Cache", "hit")
		} else {
			w.Header().Set("X-Cache", "miss")
		}
		responses.WriteSuccess(w, dto)
	}
}
