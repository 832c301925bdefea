package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/auth"
	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/storage"
)

// FavoritesHandler serves the favorites endpoints
type FavoritesHandler struct {
	store storage.Storage
	log   *zap.SugaredLogger
}

// NewFavoritesHandler creates a favorites handler over the given storage
func NewFavoritesHandler(store storage.Storage, log *zap.SugaredLogger) *FavoritesHandler {
	return &FavoritesHandler{store: store, log: log}
}

// RegisterRoutes mounts the favorites endpoints on an authenticated router
func (h *FavoritesHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(routePath(contract.API.FavoritesList), h.List).Methods(contract.API.FavoritesList.Method)
	router.HandleFunc(routePath(contract.API.FavoritesCreate), h.Create).Methods(contract.API.FavoritesCreate.Method)
	router.HandleFunc(routePath(contract.API.FavoritesDelete), h.Delete).Methods(contract.API.FavoritesDelete.Method)
}

// List returns all favorites for the current user
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	favorites, err := h.store.GetFavorites(r.Context(), principal.Subject)
	if err != nil {
		h.log.Errorw("failed to list favorites", "user", principal.Subject, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, favorites)
}

// Create adds a favorite for the current user. The owner is always the
// session principal; a userId in the body is ignored.
func (h *FavoritesHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var input contract.InsertFavorite
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, &contract.ValidationError{Field: "body", Message: "Invalid request body"})
		return
	}
	if err := contract.Validate(input); err != nil {
		writeError(w, err)
		return
	}

	favorite, err := h.store.CreateFavorite(r.Context(), principal.Subject, input)
	if err != nil {
		h.log.Errorw("failed to create favorite", "user", principal.Subject, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, favorite)
}

// Delete removes a favorite by id. The delete is unconditional: it succeeds
// with 204 even when the id does not exist or belongs to another user,
// matching the upstream system's behavior. See DESIGN.md for the ownership
// decision.
func (h *FavoritesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.PrincipalFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, &contract.ValidationError{Field: "id", Message: "Invalid id"})
		return
	}

	if err := h.store.DeleteFavorite(r.Context(), uint(id)); err != nil {
		h.log.Errorw("failed to delete favorite", "id", id, "err", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
