package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatvault/internal/service"
)

// JobsHandler serves import job status.
type JobsHandler struct {
	library service.LibraryService
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(library service.LibraryService) *JobsHandler {
	return &JobsHandler{library: library}
}

// List returns recent jobs, newest first.
//
// swagger:route GET /api/jobs listJobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobs, err := h.library.ListJobs(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobResponse(&jobs[i]))
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

// Get returns one job.
//
// swagger:route GET /api/jobs/{id} getJob
//
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/JobResponse"
//	'404':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	job, err := h.library.GetJob(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, jobResponse(job))
}
