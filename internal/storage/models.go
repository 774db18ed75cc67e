package storage

import "time"

// JobStatus is the lifecycle state of an import job.
type JobStatus string

const (
	JobPending               JobStatus = "pending"
	JobRunning               JobStatus = "running"
	JobCompleted             JobStatus = "completed"
	JobCompletedWithWarnings JobStatus = "completed_with_warnings"
	JobFailed                JobStatus = "failed"
	JobCancelled             JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are expected from s.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobCompletedWithWarnings, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Platform is a chat platform that threads were imported from.
type Platform struct {
	ID         string
	Name       string
	APIVersion string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JobScope records what an import job was asked to do.
type JobScope struct {
	Sources      []string `json:"sources"`
	AllowPartial bool     `json:"allow_partial"`
	PlatformHint string   `json:"platform_hint,omitempty"`
}

// JobSpec describes a job to create.
type JobSpec struct {
	JobType    string // Platform hint or "auto"
	Scope      JobScope
	FilesTotal int
}

// Job is a persisted import job.
type Job struct {
	ID              string
	JobType         string
	Status          JobStatus
	Scope           JobScope
	FilesTotal      int
	FilesProcessed  int
	ProgressPercent float64
	ErrorMessages   []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

// JobUpdate is a partial update of a job. Nil fields are left unchanged and
// AppendErrors is appended to the existing error list.
type JobUpdate struct {
	Status          *JobStatus
	FilesTotal      *int
	FilesProcessed  *int
	ProgressPercent *float64
	AppendErrors    []string
}

// ImportedFile marks a payload as ingested. Its content hash is unique.
type ImportedFile struct {
	ContentHash    string
	JobID          string
	SourcePath     string
	DetectedFormat string
	ImportedAt     time.Time
}

// ThreadRecord is a thread row.
type ThreadRecord struct {
	ID           string
	PlatformID   string
	ExternalID   string
	Title        string
	Summary      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	TotalTokens  int
	QualityScore *float64
}

// MessageRecord is a message row.
type MessageRecord struct {
	ID             string
	ThreadID       string
	ExternalID     string
	Role           string
	Content        string
	ContentType    string
	Timestamp      time.Time
	SequenceNumber int
	TokenCount     int
	HasAttachments bool
}

// AttachmentRecord is an attachment row. The bytes live in the content store
// at StoragePath.
type AttachmentRecord struct {
	ID            string
	MessageID     string
	Filename      string
	MimeType      string
	FileSize      int64
	ContentHash   string
	StoragePath   string
	ExtractedText string
	Metadata      map[string]any
}

// ThreadSummary is one row of a thread listing.
type ThreadSummary struct {
	ID           string
	Title        string
	Platform     string
	UpdatedAt    time.Time
	MessageCount int
	TotalTokens  int
	Preview      string
}

// MessageDetail is a message with its attachments.
type MessageDetail struct {
	MessageRecord
	Attachments []AttachmentRecord
}

// ThreadDetail is a thread with its platform name and ordered messages.
type ThreadDetail struct {
	ThreadRecord
	Platform string
	Messages []MessageDetail
}
