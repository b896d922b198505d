package api

import (
	"net/http"

	"github.com/Aytaditya/salessense/internal/observability"
)

func handleGetCatalog(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CATALOG_DISABLED", "product catalog is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, deps.Catalog.Current())
}

func handleReloadCatalog(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CATALOG_DISABLED", "product catalog is not configured", false, nil)
		return
	}
	snapshot, err := deps.Catalog.Reload(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CATALOG_RELOAD_FAILED", err.Error(), true, nil)
		return
	}
	observability.IncrementCatalogReload()
	writeJSON(w, http.StatusOK, snapshot)
}
