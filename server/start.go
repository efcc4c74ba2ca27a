package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cachepackage "tweet-fleet/cache"
	"tweet-fleet/config"
	"tweet-fleet/database"
	"tweet-fleet/handlers"
	"tweet-fleet/notes"
	"tweet-fleet/oauth"
	"tweet-fleet/session"
	"tweet-fleet/store"
	"tweet-fleet/twitter"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Tweets   *handlers.TweetHandler
	Notes    *handlers.NoteHandler
	Sessions handlers.SessionVerifier
}

// NewRouter mounts the API under /api. Cross-origin requests are allowed
// only from frontendURL; without one no origin is allowed.
func NewRouter(h Handlers, frontendURL string) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet).Name("HealthCheck")
	r.HandleFunc("/", handlers.Root).Methods(http.MethodGet).Name("Root")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost).Name("Login")
	api.HandleFunc("/auth/twitter", h.Auth.TwitterStatus).Methods(http.MethodGet).Name("TwitterStatus")
	api.HandleFunc("/auth/twitter/oauth", h.Auth.TwitterAuthorize).Methods(http.MethodGet).Name("TwitterAuthorize")
	api.HandleFunc("/auth/twitter/callback", h.Auth.TwitterCallback).Methods(http.MethodGet).Name("TwitterCallback")

	protected := api.NewRoute().Subrouter()
	protected.Use(handlers.RequireSession(h.Sessions))
	protected.HandleFunc("/tweets", h.Tweets.CreateTweet).Methods(http.MethodPost).Name("CreateTweet")
	protected.HandleFunc("/save", h.Notes.SaveNote).Methods(http.MethodPost).Name("SaveNote")

	if frontendURL == "" {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}

// Build wires every component from cfg on top of an open database and
// challenge store.
func Build(cfg *config.Config, st *store.Store, challenges cachepackage.ChallengeStore, httpClient *http.Client) (Handlers, error) {
	sessions := session.NewService(cfg.Admin.JWTSecret)
	engine := oauth.NewEngine(oauth.ConfigFrom(cfg.Twitter), challenges, st, httpClient)
	client := twitter.NewClient(cfg.Twitter.APIURL, twitter.CredentialsFrom(cfg.Twitter), httpClient)
	publisher := twitter.NewPublisher(client, engine)
	if err := client.CheckAuth(); err != nil {
		logger.Info("Operator posting is disabled", zap.Error(err))
	}

	writer, err := notes.NewWriter(cfg.GitHub)
	if err != nil {
		return Handlers{}, err
	}
	auth, err := handlers.NewAuthHandler(cfg.Admin.Password, cfg.Server.FrontendURL, sessions, engine, client)
	if err != nil {
		return Handlers{}, err
	}

	return Handlers{
		Auth:     auth,
		Tweets:   handlers.NewTweetHandler(publisher),
		Notes:    handlers.NewNoteHandler(writer),
		Sessions: sessions,
	}, nil
}

func StartServer(cfg *config.Config) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	logger.Info("Starting Tweet Fleet...")

	dbConn := database.InitializeDatabase(cfg.Database)
	defer dbConn.Close()

	challenges := cachepackage.InitializeCache(cfg.PKCE)
	defer challenges.Close()

	h, err := Build(cfg, store.New(dbConn), challenges, nil)
	if err != nil {
		logger.Error("Failed to build handlers", zap.Error(err))
		os.Exit(1)
	}
	if cfg.Admin.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set, sessions cannot be issued")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h, cfg.Server.FrontendURL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Tweet Fleet listening", zap.String("addr", addr))
		logger.Info("Health check: GET /health")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
		}
	case sig := <-stop:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
