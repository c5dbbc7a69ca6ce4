package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpupo63/unified-personal-site-frontend/config"
	"github.com/rpupo63/unified-personal-site-frontend/editor"
	"github.com/rpupo63/unified-personal-site-frontend/remote"
	"github.com/rpupo63/unified-personal-site-frontend/session"
	"github.com/rpupo63/unified-personal-site-frontend/storage"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators main wires into the server.
type Dependencies struct {
	Client   *remote.Client
	Sessions *session.Manager
	Journal  editor.Journal
	Sink     storage.Sink
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Health is run by /healthz; nil means always healthy.
	Health func(ctx context.Context) error
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(c map[string]string, deps Dependencies) (Server, error) {
	if deps.Client == nil || deps.Sessions == nil || deps.Journal == nil || deps.Sink == nil {
		return Server{}, fmt.Errorf("server needs a client, session manager, journal and sink")
	}

	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	startupTime := time.Now()

	router := newRouter(deps, withConfig(c), withStartupTime(startupTime))

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 180),
		WriteTimeout: config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180),
		IdleTimeout:  config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	router := router{startupTime: time.Now()}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(ColoredHTTPLoggingMiddleware)

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS")
	if len(acceptedOrigins) == 0 {
		acceptedOrigins = []string{"http://localhost:3000"}
	}
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsMiddleware(acceptedOrigins))

	if rps := config.GetFloat(router.config, "RATE_LIMIT_RPS", 20); rps > 0 {
		proxies := parseTrustedProxies(config.GetList(router.config, "TRUSTED_PROXIES"))
		limiter := newRateLimiter(rps, config.GetInt(router.config, "RATE_LIMIT_BURST", 40), proxies)
		chiRouter.Use(limiter.middleware)
	}

	idle := time.Duration(config.GetInt(router.config, "WORKSPACE_IDLE_MINUTES", 60)) * time.Minute
	workspaces := newWorkspaces(deps.Client, deps.Journal, deps.Sink, idle)

	handlers := initializeHandlers(deps, workspaces, router.startupTime)
	sessions := newSessionMiddleware(deps.Sessions, workspaces, deps.Client)

	setupPublicRoutes(chiRouter, handlers, deps.Gatherer)
	setupAccountRoutes(chiRouter, handlers, sessions)
	setupAdminRoutes(chiRouter, handlers, sessions)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
