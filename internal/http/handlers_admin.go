package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/propkit/marketing-kit-api/internal/domain/model"
)

const defaultAdminListLimit = 50

// JobDirectory exposes job records for operational visibility.
type JobDirectory interface {
	ListRecent(ctx context.Context, limit int) ([]*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
}

// AdminHandlers provides credentialed operational endpoints.
type AdminHandlers struct {
	Jobs JobDirectory
}

// ListJobs returns recent jobs, newest first.
func (h *AdminHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultAdminListLimit)

	jobs, err := h.Jobs.ListRecent(r.Context(), limit)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "list_failed",
			Err:     errors.New("could not list jobs"),
		})
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// GetJob returns a single job record by id.
func (h *AdminHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.GetByID(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, model.ErrJobNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
	case err != nil:
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "get_failed",
			Err:     errors.New("could not load job"),
		})
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"job": job})
	}
}
