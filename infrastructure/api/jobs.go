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

// JobsRouter handles job polling endpoints.
type JobsRouter struct {
	client *starscout.Client
	logger *slog.Logger
}

// NewJobsRouter creates a JobsRouter.
func NewJobsRouter(client *starscout.Client) *JobsRouter {
	return &JobsRouter{client: client, logger: client.Logger()}
}

// Status handles GET /jobs/status. It never blocks on a running job.
func (j *JobsRouter) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		middleware.WriteError(w, r, fmt.Errorf("%w: missing user", service.ErrAuthInvalid), j.logger)
		return
	}

	snapshot, err := j.client.Jobs.Status(ctx, user.ID())
	if err != nil {
		middleware.WriteError(w, r, err, j.logger)
		return
	}

	response := dto.JobStatusResponse{
		IsRunning:       snapshot.IsRunning(),
		UserID:          user.ID(),
		TotalActiveJobs: snapshot.TotalActiveJobs(),
	}
	if snapshot.Found() {
		response.Job = dto.NewJobSchema(snapshot.Job())
	}
	middleware.WriteJSON(w, http.StatusOK, response)
}
