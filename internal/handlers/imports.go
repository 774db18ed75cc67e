package handlers

import (
	"encoding/json"
	"net/http"

	"chatvault/internal/contextutil"
	"chatvault/internal/service"
)

// maxImportBody bounds the request body of an import request.
const maxImportBody = 1 << 20

// ImportHandler starts import jobs.
type ImportHandler struct {
	imports      service.ImportService
	allowPartial bool
}

// NewImportHandler creates a new ImportHandler. allowPartial is used when a
// request does not say.
func NewImportHandler(imports service.ImportService, allowPartial bool) *ImportHandler {
	return &ImportHandler{imports: imports, allowPartial: allowPartial}
}

// ImportRequest is the body of an import request.
//
// swagger:model ImportRequest
type ImportRequest struct {
	// Server-side files, directories or zip archives
	Paths []string `json:"paths"`
	// "chatgpt", "claude" or empty to detect
	PlatformHint string `json:"platform_hint,omitempty"`
	AllowPartial *bool  `json:"allow_partial,omitempty"`
}

// ImportResponse acknowledges a started import.
//
// swagger:model ImportResponse
type ImportResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ServeHTTP starts an import in the background.
//
// swagger:route POST /api/imports startImport
//
// # Start an import
//
// The job runs in the background; poll /api/jobs/{id} for progress.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'202':
//	  schema:
//	    "$ref": "#/definitions/ImportResponse"
//	'400':
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'409':
//	  description: Another import job is running
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ImportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid import request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	allowPartial := h.allowPartial
	if req.AllowPartial != nil {
		allowPartial = *req.AllowPartial
	}

	job, err := h.imports.StartImport(ctx, service.ImportRequest{
		Paths:        req.Paths,
		PlatformHint: req.PlatformHint,
		AllowPartial: allowPartial,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	logger.InfoContext(ctx, "import started via API", "job_id", job.ID, "paths", len(req.Paths))
	writeJSON(ctx, w, http.StatusAccepted, ImportResponse{JobID: job.ID, Status: string(job.Status)})
}
