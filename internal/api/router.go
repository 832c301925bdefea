package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/auth"
	"github.com/coindeck/coindeck/internal/chat"
	"github.com/coindeck/coindeck/internal/config"
	"github.com/coindeck/coindeck/internal/handlers"
	"github.com/coindeck/coindeck/internal/market"
	"github.com/coindeck/coindeck/internal/storage"
	"github.com/coindeck/coindeck/internal/ws"
	"github.com/coindeck/coindeck/web"
)

// Deps carries the explicitly constructed collaborators the route layer
// binds together. Nothing here is a package-level singleton.
type Deps struct {
	Store       storage.Storage
	Market      *market.Client
	AuthService *auth.Service
	Sessions    auth.SessionStore
	Responder   *chat.Responder
	Hub         *ws.Hub
	Config      *config.Config
	Log         *zap.SugaredLogger
}

// SetupRouter configures all routes and returns the router
func SetupRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/health", HealthHandler).Methods("GET")

	if d.Hub != nil {
		router.HandleFunc("/ws", d.Hub.HandleWebSocket)
	}

	// Static assets from the embedded bundle
	router.PathPrefix("/static/").Handler(http.FileServer(web.GetFileSystem()))

	authHandler := handlers.NewAuthHandler(d.AuthService, d.Sessions, d.Config.Session, d.Log)
	marketHandler := handlers.NewMarketHandler(d.Market)
	favoritesHandler := handlers.NewFavoritesHandler(d.Store, d.Log)
	scenariosHandler := handlers.NewScenariosHandler(d.Store, d.Log)
	chatHandler := handlers.NewChatHandler(d.Store, d.Responder, d.Log)

	// Public endpoints: login/register/logout and the market proxy. The
	// proxy is unauthenticated and never errors to the caller.
	authHandler.RegisterPublicRoutes(router)

	apiRouter := router.PathPrefix("/api").Subrouter()
	marketHandler.RegisterRoutes(apiRouter)

	// Authenticated endpoints
	authRouter := apiRouter.PathPrefix("").Subrouter()
	authRouter.Use(auth.Middleware(d.AuthService, d.Sessions, d.Config.Session.CookieName))

	authHandler.RegisterRoutes(authRouter)
	favoritesHandler.RegisterRoutes(authRouter)
	scenariosHandler.RegisterRoutes(authRouter)
	chatHandler.RegisterRoutes(authRouter)

	// Catch-all serving the SPA; unmatched API paths 404 instead
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		web.ServeIndex(w, r)
	})

	return router
}
