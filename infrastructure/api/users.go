package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starscout/starscout"
	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/infrastructure/api/dto"
	"github.com/starscout/starscout/infrastructure/api/middleware"
)

// UsersRouter handles the user-facing ingestion endpoints.
type UsersRouter struct {
	client *starscout.Client
	logger *slog.Logger
}

// NewUsersRouter creates a UsersRouter.
func NewUsersRouter(client *starscout.Client) *UsersRouter {
	return &UsersRouter{client: client, logger: client.Logger()}
}

// Exists handles GET /user/exists.
func (u *UsersRouter) Exists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		middleware.WriteError(w, r, fmt.Errorf("%w: missing user", service.ErrAuthInvalid), u.logger)
		return
	}

	exists, err := u.client.Stars.HasUser(ctx, user.ID())
	if err != nil {
		middleware.WriteError(w, r, err, u.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.UserExistsResponse{UserExists: exists})
}

// ProcessStar handles GET and POST /user/process_star. It starts an
// ingestion job, or returns the job already running for the user.
func (u *UsersRouter) ProcessStar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		middleware.WriteError(w, r, fmt.Errorf("%w: missing user", service.ErrAuthInvalid), u.logger)
		return
	}
	token, ok := middleware.TokenFromContext(ctx)
	if !ok {
		middleware.WriteError(w, r, fmt.Errorf("%w: missing bearer token", service.ErrAuthInvalid), u.logger)
		return
	}

	force := forceRefresh(r)
	apiKey := middleware.APIKeyFromContext(ctx)

	j, _, err := u.client.Jobs.StartJob(ctx, token, apiKey, user, force)
	if err != nil {
		middleware.WriteError(w, r, err, u.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.NewJobSchema(j))
}

func forceRefresh(r *http.Request) bool {
	switch r.URL.Query().Get("force_refresh") {
	case "true", "True", "1":
		return true
	default:
		return false
	}
}
