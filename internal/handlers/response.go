package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chatvault/internal/contextutil"
	"chatvault/internal/service"
	"chatvault/internal/storage"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ThreadSummaryResponse is one thread in a listing.
//
// swagger:model ThreadSummaryResponse
type ThreadSummaryResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Platform     string    `json:"platform"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	TotalTokens  int       `json:"total_tokens"`
	// First matching message, or the first message when no query was given
	Preview string `json:"preview"`
}

// AttachmentResponse describes a stored attachment.
type AttachmentResponse struct {
	ID            string         `json:"id"`
	Filename      string         `json:"filename"`
	MimeType      string         `json:"mime_type"`
	FileSize      int64          `json:"file_size"`
	ContentHash   string         `json:"content_hash"`
	StoragePath   string         `json:"storage_path"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// MessageResponse is one message of a thread.
type MessageResponse struct {
	ID             string               `json:"id"`
	ExternalID     string               `json:"external_id,omitempty"`
	Role           string               `json:"role"`
	Content        string               `json:"content"`
	ContentType    string               `json:"content_type"`
	Timestamp      time.Time            `json:"timestamp"`
	SequenceNumber int                  `json:"sequence_number"`
	TokenCount     int                  `json:"token_count"`
	Attachments    []AttachmentResponse `json:"attachments"`
}

// ThreadResponse is a thread with its ordered messages.
//
// swagger:model ThreadResponse
type ThreadResponse struct {
	ID           string            `json:"id"`
	ExternalID   string            `json:"external_id"`
	Title        string            `json:"title"`
	Summary      string            `json:"summary,omitempty"`
	Platform     string            `json:"platform"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	MessageCount int               `json:"message_count"`
	TotalTokens  int               `json:"total_tokens"`
	QualityScore *float64          `json:"quality_score,omitempty"`
	Messages     []MessageResponse `json:"messages"`
}

// JobResponse reports an import job.
//
// swagger:model JobResponse
type JobResponse struct {
	ID              string           `json:"id"`
	JobType         string           `json:"job_type"`
	Status          string           `json:"status"`
	Scope           storage.JobScope `json:"scope"`
	FilesTotal      int              `json:"files_total"`
	FilesProcessed  int              `json:"files_processed"`
	ProgressPercent float64          `json:"progress_percent"`
	Errors          []string         `json:"errors"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
}

func summaryResponses(in []storage.ThreadSummary) []ThreadSummaryResponse {
	out := make([]ThreadSummaryResponse, 0, len(in))
	for _, s := range in {
		out = append(out, ThreadSummaryResponse{
			ID:           s.ID,
			Title:        s.Title,
			Platform:     s.Platform,
			UpdatedAt:    s.UpdatedAt,
			MessageCount: s.MessageCount,
			TotalTokens:  s.TotalTokens,
			Preview:      s.Preview,
		})
	}
	return out
}

func threadResponse(t *storage.ThreadDetail) ThreadResponse {
	resp := ThreadResponse{
		ID:           t.ID,
		ExternalID:   t.ExternalID,
		Title:        t.Title,
		Summary:      t.Summary,
		Platform:     t.Platform,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		MessageCount: t.MessageCount,
		TotalTokens:  t.TotalTokens,
		QualityScore: t.QualityScore,
		Messages:     make([]MessageResponse, 0, len(t.Messages)),
	}
	for _, m := range t.Messages {
		msg := MessageResponse{
			ID:             m.ID,
			ExternalID:     m.ExternalID,
			Role:           m.Role,
			Content:        m.Content,
			ContentType:    m.ContentType,
			Timestamp:      m.Timestamp,
			SequenceNumber: m.SequenceNumber,
			TokenCount:     m.TokenCount,
			Attachments:    make([]AttachmentResponse, 0, len(m.Attachments)),
		}
		for _, a := range m.Attachments {
			msg.Attachments = append(msg.Attachments, AttachmentResponse{
				ID:            a.ID,
				Filename:      a.Filename,
				MimeType:      a.MimeType,
				FileSize:      a.FileSize,
				ContentHash:   a.ContentHash,
				StoragePath:   a.StoragePath,
				ExtractedText: a.ExtractedText,
				Metadata:      a.Metadata,
			})
		}
		resp.Messages = append(resp.Messages, msg)
	}
	return resp
}

func jobResponse(j *storage.Job) JobResponse {
	errs := j.ErrorMessages
	if errs == nil {
		errs = []string{}
	}
	return JobResponse{
		ID:              j.ID,
		JobType:         j.JobType,
		Status:          string(j.Status),
		Scope:           j.Scope,
		FilesTotal:      j.FilesTotal,
		FilesProcessed:  j.FilesProcessed,
		ProgressPercent: j.ProgressPercent,
		Errors:          errs,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		StartedAt:       j.StartedAt,
		FinishedAt:      j.FinishedAt,
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// writeServiceError maps a service error to a status code.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "An import job is already running")
	default:
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
