package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/service"
)

// UserHandler serves /api/users: profiles and subscriptions.
type UserHandler struct {
	users     *service.UserService
	relations *service.RelationService
	pager     Pager
	logger    *slog.Logger
}

func NewUserHandler(users *service.UserService, relations *service.RelationService, pager Pager, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, relations: relations, pager: pager, logger: logger}
}

func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserIDFromContext(r.Context())

	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	users, total, err := h.users.List(r.Context(), viewer, page.listOptions())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, page, users, total))
}

func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.Get(r.Context(), viewer, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.Me(r.Context(), viewer)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleSubscriptions handles GET /api/users/subscriptions.
func (h *UserHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserIDFromContext(r.Context())

	page, err := h.pager.parse(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := parseRecipesLimit(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	authors, total, err := h.relations.ListSubscriptions(r.Context(), viewer, page.listOptions(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, page, authors, total))
}

// HandleSubscribe handles POST and DELETE /api/users/{id}/subscribe.
func (h *UserHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.UserIDFromContext(r.Context())

	limit, err := parseRecipesLimit(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	req := service.ToggleRequest{
		Kind:         model.RelationSubscription,
		UserID:       viewer,
		TargetID:     r.PathValue("id"),
		State:        stateFor(r.Method),
		RecipesLimit: limit,
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
	writeJSON(w, http.StatusCreated, res.Author)
}
