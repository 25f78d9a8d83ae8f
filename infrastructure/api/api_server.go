package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/starscout/starscout"
	"github.com/starscout/starscout/infrastructure/api/dto"
	apimiddleware "github.com/starscout/starscout/infrastructure/api/middleware"
)

// APIServer provides the HTTP API backed by a starscout Client.
type APIServer struct {
	client *starscout.Client
	server *Server
	router chi.Router
	logger *slog.Logger
}

// NewAPIServer creates an APIServer wired to the given Client.
func NewAPIServer(client *starscout.Client) *APIServer {
	return &APIServer{
		client: client,
		logger: client.Logger(),
	}
}

// Handler returns the router as an http.Handler, building it on first use.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.router = chi.NewRouter()
		a.mountRoutes(a.router)
	}
	return a.router
}

// ListenAndServe starts the HTTP server on the given address and blocks.
func (a *APIServer) ListenAndServe(addr string) error {
	a.Handler()
	a.server = NewServer(addr, a.router, a.logger)
	return a.server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	cfg := a.client.Config()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(apimiddleware.Logging(a.logger))

	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", apimiddleware.APIKeyHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	users := NewUsersRouter(a.client)
	jobs := NewJobsRouter(a.client)
	search := NewSearchRouter(a.client)

	router.Get("/", a.health)
	router.Get("/settings", a.settings)

	cache := apimiddleware.NewTokenCache(0)

	router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(apimiddleware.BearerAuth(a.client.Resolver(), cache, a.logger))

		r.Get("/user/exists", users.Exists)
		r.Get("/jobs/status", jobs.Status)

		// Embedding-backed routes sit behind the quota gate and the
		// star-count key policy.
		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.RateLimit(cfg.RatePerMinute(), cfg.RateBurst()))
			r.Use(apimiddleware.APIKeyPolicy(a.client.Resolver(), a.client.Embedder(), cfg.APIKeyStarThreshold(), a.logger))

			r.Get("/user/process_star", users.ProcessStar)
			r.Post("/user/process_star", users.ProcessStar)
			r.Get("/search", search.Search)
			r.Get("/search_global", search.SearchGlobal)
		})
	})
}

func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "healthy"})
}

func (a *APIServer) settings(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, dto.SettingsResponse{
		APIKeyStarThreshold: a.client.Config().APIKeyStarThreshold(),
	})
}
