package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/auth"
	"github.com/coindeck/coindeck/internal/config"
	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/models"
)

// AuthHandler handles login, logout and registration
type AuthHandler struct {
	service  *auth.Service
	sessions auth.SessionStore
	cfg      config.SessionConfig
	log      *zap.SugaredLogger
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(service *auth.Service, sessions auth.SessionStore, cfg config.SessionConfig, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions, cfg: cfg, log: log}
}

// RegisterPublicRoutes mounts the endpoints that need no session
func (h *AuthHandler) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc(contract.API.Login.Path, h.Login).Methods(contract.API.Login.Method)
	router.HandleFunc(contract.API.Register.Path, h.Register).Methods(contract.API.Register.Method)
	router.HandleFunc(contract.API.Logout.Path, h.Logout).Methods(contract.API.Logout.Method)
}

// RegisterRoutes mounts the endpoints that require a session
func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(routePath(contract.API.CurrentUser), h.CurrentUser).Methods(contract.API.CurrentUser.Method)
}

// Login verifies credentials, opens a session and returns an identity token.
// The session id travels in a cookie; the token can be used as a bearer
// credential by non-browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &contract.ValidationError{Field: "body", Message: "Invalid request body"})
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	token, err := h.service.IssueToken(user)
	if err != nil {
		h.log.Errorw("failed to issue token", "user", user.ID, "err", err)
		writeError(w, err)
		return
	}

	principal := auth.Principal{Subject: user.ID, Username: user.Username, Email: user.Email}
	sessionID, err := h.sessions.Create(r.Context(), principal)
	if err != nil {
		h.log.Errorw("failed to create session", "user", user.ID, "err", err)
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cfg.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Register creates a user and logs nothing else in; the client follows up
// with a normal login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &contract.ValidationError{Field: "body", Message: "Invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, &contract.ValidationError{Field: "username", Message: "username and password are required"})
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.log.Errorw("failed to register user", "username", req.Username, "err", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Logout destroys the current session, if any. Always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cfg.CookieName); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.log.Warnw("failed to destroy session", "err", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser returns the authenticated principal
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, principal)
}
