package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starscout/starscout"
	appservice "github.com/starscout/starscout/application/service"
	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/infrastructure/api/dto"
	"github.com/starscout/starscout/infrastructure/api/middleware"
)

// SearchRouter handles the semantic search endpoints.
type SearchRouter struct {
	client *starscout.Client
	logger *slog.Logger
}

// NewSearchRouter creates a SearchRouter.
func NewSearchRouter(client *starscout.Client) *SearchRouter {
	return &SearchRouter{client: client, logger: client.Logger()}
}

// Search handles GET /search, scoped to the caller's starred repositories.
func (s *SearchRouter) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		middleware.WriteError(w, r, fmt.Errorf("%w: missing user", service.ErrAuthInvalid), s.logger)
		return
	}

	query, topK, opts, err := searchParams(r)
	if err != nil {
		middleware.WriteError(w, r, err, s.logger)
		return
	}

	matches, err := s.client.Search.Query(ctx, user.ID(), query, topK, opts...)
	if err != nil {
		middleware.WriteError(w, r, err, s.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewSearchResponse(query, matches))
}

// SearchGlobal handles GET /search_global, across every indexed repository.
func (s *SearchRouter) SearchGlobal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query, topK, opts, err := searchParams(r)
	if err != nil {
		middleware.WriteError(w, r, err, s.logger)
		return
	}

	matches, err := s.client.Search.QueryGlobal(ctx, query, topK, opts...)
	if err != nil {
		middleware.WriteError(w, r, err, s.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewSearchResponse(query, matches))
}

func searchParams(r *http.Request) (string, int, []service.EmbedOption, error) {
	query := r.URL.Query().Get("query")

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return "", 0, nil, service.NewValidationError("top_k", "must be an integer")
		}
		topK = parsed
	}
	if topK <= 0 {
		topK = appservice.DefaultSearchLimit
	}

	var opts []service.EmbedOption
	if apiKey := middleware.APIKeyFromContext(r.Context()); apiKey != "" {
		opts = append(opts, service.WithAPIKey(apiKey))
	}
	return query, topK, opts, nil
}
