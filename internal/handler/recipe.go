package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/filter"
	"github.com/sakif/foodgram/internal/metrics"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/render"
	"github.com/sakif/foodgram/internal/service"
)

// RecipeHandler serves /api/recipes: the recipe CRUD, the favorite and
// shopping cart toggles and the shopping list download.
type RecipeHandler struct {
	recipes   *service.RecipeService
	relations *service.RelationService
	shopping  *service.ShoppingService
	users     *service.UserService
	pager     Pager
	logger    *slog.Logger

	// Clock dates the rendered shopping list.
	Clock func() time.Time
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	relations *service.RelationService,
	shopping *service.ShoppingService,
	users *service.UserService,
	pager Pager,
	logger *slog.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		relations: relations,
		shopping:  shopping,
		users:     users,
		pager:     pager,
		logger:    logger,
		Clock:     time.Now,
	}
}

// HandleList handles GET /api/recipes with the tags, author, is_favorited
// and is_in_shopping_cart filters.
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserIDFromContext(r.Context())

	opts, err := filter.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	recipes, total, err := h.recipes.List(r.Context(), viewer, opts, page.listOptions())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, page, recipes, total))
}

func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserIDFromContext(r.Context())

	recipe, err := h.recipes.Get(r.Context(), viewer, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.RecipeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// HandleUpdate handles PATCH /api/recipes/{id}. Omitted fields keep their
// stored values.
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.RecipeUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), userID, r.PathValue("id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.recipes.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFavorite handles POST and DELETE /api/recipes/{id}/favorite.
func (h *RecipeHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggleRecipe(w, r, model.RelationFavorite)
}

// HandleShoppingCart handles POST and DELETE /api/recipes/{id}/shopping_cart.
func (h *RecipeHandler) HandleShoppingCart(w http.ResponseWriter, r *http.Request) {
	h.toggleRecipe(w, r, model.RelationCart)
}

func (h *RecipeHandler) toggleRecipe(w http.ResponseWriter, r *http.Request, kind model.RelationKind) {
	userID, _ := auth.UserIDFromContext(r.Context())
	req := service.ToggleRequest{
		Kind:     kind,
		UserID:   userID,
		TargetID: r.PathValue("id"),
		State:    stateFor(r.Method),
	}

	res, err := toggle(r, h.relations, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.State == model.Absent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, res.Recipe)
}

// HandleDownloadShoppingCart handles GET
// /api/recipes/download_shopping_cart?format=txt|pdf.
func (h *RecipeHandler) HandleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("format", "format must be txt or pdf"))
		return
	}

	items, err := h.shopping.BuildShoppingList(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	owner, err := h.users.Me(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Render fully before writing so a failure can still become a 500.
	var buf bytes.Buffer
	doc := render.Document{Owner: owner.User, Items: items, Date: h.Clock()}
	if err := format.Write(&buf, doc); err != nil {
		writeError(w, h.logger, fmt.Errorf("rendering shopping list: %w", err))
		return
	}

	metrics.RecordDownload(string(format))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(owner.Username)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write shopping list", slog.String("error", err.Error()))
	}
}

// stateFor maps the toggle verbs: DELETE removes, anything else adds.
func stateFor(method string) model.DesiredState {
	if method == http.MethodDelete {
		return model.Absent
	}
	return model.Present
}

// toggle runs req and counts its outcome.
func toggle(r *http.Request, relations *service.RelationService, req service.ToggleRequest) (*service.ToggleResult, error) {
	res, err := relations.Toggle(r.Context(), req)

	outcome := "ok"
	if err != nil {
		outcome = apperror.Kind(err)
	}
	metrics.RecordToggle(req.Kind.String(), req.State.String(), outcome)
	return res, err
}

// parseRecipesLimit reads ?recipes_limit. Absent means no cap.
func parseRecipesLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("recipes_limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed("recipes_limit", "recipes_limit must be a non-negative integer")
	}
	return n, nil
}
