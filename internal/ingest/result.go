package ingest

import (
	"chatvault/internal/dialect"
	"chatvault/internal/storage"
)

// Result summarizes a finished import.
type Result struct {
	JobID            string
	Status           storage.JobStatus
	FilesTotal       int
	FilesProcessed   int
	FilesSkipped     int
	ThreadsCreated   int
	ThreadsUpdated   int
	MessagesCreated  int
	AttachmentsSaved int
	Errors           []string
}

// Success reports whether the import finished without any error.
func (r *Result) Success() bool {
	return len(r.Errors) == 0 && r.Status == storage.JobCompleted
}

// payloadStats counts what one payload contributed.
type payloadStats struct {
	format           dialect.Dialect
	skipped          bool
	threadsCreated   int
	threadsUpdated   int
	messagesCreated  int
	attachmentsSaved int
}

func (r *Result) add(s payloadStats) {
	if s.skipped {
		r.FilesSkipped++
		return
	}
	r.FilesProcessed++
	r.ThreadsCreated += s.threadsCreated
	r.ThreadsUpdated += s.threadsUpdated
	r.MessagesCreated += s.messagesCreated
	r.AttachmentsSaved += s.attachmentsSaved
}
