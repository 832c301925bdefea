package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/api"
	"github.com/coindeck/coindeck/internal/auth"
	"github.com/coindeck/coindeck/internal/chat"
	"github.com/coindeck/coindeck/internal/config"
	"github.com/coindeck/coindeck/internal/db"
	"github.com/coindeck/coindeck/internal/market"
	"github.com/coindeck/coindeck/internal/storage"
	"github.com/coindeck/coindeck/internal/ticker"
	"github.com/coindeck/coindeck/internal/ws"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "err", err)
	}

	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalw("failed to connect to database", "err", err)
	}
	store := storage.New(database)

	// Sessions live in Redis; fall back to in-process sessions when Redis
	// is unreachable so a dev setup still works.
	var sessions auth.SessionStore
	if redisClient, err := db.ConnectRedis(cfg.Redis); err != nil {
		log.Warnw("failed to connect to Redis, using in-memory sessions", "err", err)
		sessions = auth.NewMemorySessionStore(cfg.Session.TTL)
	} else {
		sessions = auth.NewRedisSessionStore(redisClient, cfg.Session.TTL)
	}

	authService := auth.NewService(store, []byte(cfg.Session.SecretKey))
	marketClient := market.NewClient(cfg.Market, log)

	hub := ws.NewHub(log)
	go hub.Run()

	marketTicker := ticker.New(marketClient, hub, cfg.Market.TickRate, log)
	go marketTicker.Start()
	defer marketTicker.Stop()

	router := api.SetupRouter(api.Deps{
		Store:       store,
		Market:      marketClient,
		AuthService: authService,
		Sessions:    sessions,
		Responder:   chat.NewResponder(),
		Hub:         hub,
		Config:      cfg,
		Log:         log,
	})

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	handler := corsMiddleware.Handler(router)

	log.Infow("server starting", "port", cfg.Server.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, handler))
}
