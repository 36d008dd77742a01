package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/service"
)

// CatalogHandler serves the read-only tag and ingredient lists. They are
// small and not paginated.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *CatalogHandler) HandleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.catalog.GetTag(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// HandleListIngredients handles GET /api/ingredients?name=<prefix>.
func (h *CatalogHandler) HandleListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.catalog.SearchIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func (h *CatalogHandler) HandleGetIngredient(w http.ResponseWriter, r *http.Request) {
	ing, err := h.catalog.GetIngredient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ing)
}
