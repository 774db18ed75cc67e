// Package ingest drives imports of chat exports: it enumerates sources,
// deduplicates payloads by content hash, normalizes them and persists the
// result while tracking progress on an import job.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chatvault/internal/contentstore"
	"chatvault/internal/contextutil"
	"chatvault/internal/conversation"
	"chatvault/internal/dialect"
	"chatvault/internal/storage"
)

// ErrBusy is returned when an import is requested while another is running.
var ErrBusy = errors.New("an import job is already running")

// AttachmentWriter persists attachment bytes and reports where they went.
type AttachmentWriter interface {
	Persist(ownerID string, att conversation.Attachment) (hash, path string, err error)
}

// Options configures one import.
type Options struct {
	// PlatformHint forces a dialect instead of detecting one. Empty or "auto" detects.
	PlatformHint string
	// AllowPartial keeps going after a payload fails.
	AllowPartial bool
	// Location is applied to timestamps without a zone. Defaults to UTC.
	Location *time.Location
	// Now is the clock used for threads without timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Batch is a prepared import: an enumerated set of payloads and its pending job.
type Batch struct {
	Job      *storage.Job
	Payloads []Payload
	opts     Options
	hint     dialect.Dialect
}

// Importer runs import jobs one at a time.
type Importer struct {
	tx      storage.TxRunner
	jobs    storage.JobStore
	content AttachmentWriter

	mu      sync.Mutex
	running bool
}

// NewImporter creates a new Importer.
func NewImporter(tx storage.TxRunner, jobs storage.JobStore, content AttachmentWriter) *Importer {
	return &Importer{tx: tx, jobs: jobs, content: content}
}

// Busy reports whether a job is prepared or running.
func (imp *Importer) Busy() bool {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	return imp.running
}

func (imp *Importer) claim() error {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	if imp.running {
		return ErrBusy
	}
	imp.running = true
	return nil
}

func (imp *Importer) release() {
	imp.mu.Lock()
	imp.running = false
	imp.mu.Unlock()
}

// Ingest prepares and runs an import of sources.
func (imp *Importer) Ingest(ctx context.Context, sources []string, opts Options) (*Result, error) {
	batch, err := imp.Prepare(ctx, sources, opts)
	if err != nil {
		return nil, err
	}
	return imp.Run(ctx, batch)
}

// Prepare enumerates sources and creates a pending job. It reserves the
// importer, so a successful Prepare must be followed by Run.
func (imp *Importer) Prepare(ctx context.Context, sources []string, opts Options) (*Batch, error) {
	var hint dialect.Dialect
	if h := strings.TrimSpace(opts.PlatformHint); h != "" && !strings.EqualFold(h, "auto") {
		d, err := dialect.ParseDialect(h)
		if err != nil {
			return nil, err
		}
		hint = d
	}
	if len(sources) == 0 {
		return nil, errors.New("no sources given")
	}

	if err := imp.claim(); err != nil {
		return nil, err
	}

	payloads, err := EnumerateSources(ctx, sources)
	if err != nil {
		imp.release()
		return nil, fmt.Errorf("failed to enumerate sources: %w", err)
	}

	jobType := "auto"
	if hint != "" {
		jobType = string(hint)
	}
	job, err := imp.jobs.Create(ctx, storage.JobSpec{
		JobType: jobType,
		Scope: storage.JobScope{
			Sources:      sources,
			AllowPartial: opts.AllowPartial,
			PlatformHint: string(hint),
		},
		FilesTotal: len(payloads),
	})
	if err != nil {
		imp.release()
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}

	return &Batch{Job: job, Payloads: payloads, opts: opts, hint: hint}, nil
}

// Run processes the batch payloads in order and finalizes the job. Errors in
// individual payloads are reported in the result; the returned error is set
// only for failures of the job bookkeeping or a fatal storage error.
func (imp *Importer) Run(ctx context.Context, batch *Batch) (*Result, error) {
	defer imp.release()

	ctx, logger := contextutil.WithAttrs(ctx, "job_id", batch.Job.ID)
	// Bookkeeping must still land after the caller cancels.
	bookkeeping := context.WithoutCancel(ctx)

	res := &Result{JobID: batch.Job.ID, FilesTotal: len(batch.Payloads), Errors: []string{}}
	running := storage.JobRunning
	if err := imp.jobs.UpdateProgress(bookkeeping, batch.Job.ID, storage.JobUpdate{Status: &running}); err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}
	logger.InfoContext(ctx, "starting import", "payloads", len(batch.Payloads), "allow_partial", batch.opts.AllowPartial)

	normOpts := dialect.Options{Location: batch.opts.Location, Now: batch.opts.Now}
	cancelled := false

	for i, p := range batch.Payloads {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			logger.WarnContext(bookkeeping, "import cancelled", "remaining", len(batch.Payloads)-i)
			break
		}

		// A started payload runs to completion; cancellation only stops the next one.
		stats, err := imp.processPayload(bookkeeping, batch, normOpts, p)
		if err != nil {
			msg := fmt.Sprintf("%s: %v", p.Label, err)
			res.Errors = append(res.Errors, msg)
			logger.ErrorContext(ctx, "failed to import payload", "source", p.Label, "error", err)

			if storage.IsFatal(err) {
				fatal := fmt.Errorf("fatal storage error: %w", err)
				if ferr := imp.finish(bookkeeping, batch, res, storage.JobFailed, []string{msg}); ferr != nil {
					logger.ErrorContext(bookkeeping, "failed to mark job failed", "error", ferr)
					return res, errors.Join(fatal, ferr)
				}
				return res, fatal
			}
			if uerr := imp.jobs.UpdateProgress(bookkeeping, batch.Job.ID, storage.JobUpdate{AppendErrors: []string{msg}}); uerr != nil {
				return res, fmt.Errorf("failed to record job error: %w", uerr)
			}
			if !batch.opts.AllowPartial {
				break
			}
		} else {
			res.add(stats)
			logger.DebugContext(ctx, "payload handled", "source", p.Label, "skipped", stats.skipped,
				"format", stats.format, "threads", stats.threadsCreated+stats.threadsUpdated)
		}

		handled := res.FilesProcessed + res.FilesSkipped
		percent := float64(i+1) / float64(len(batch.Payloads)) * 100
		if err := imp.jobs.UpdateProgress(bookkeeping, batch.Job.ID, storage.JobUpdate{
			FilesProcessed:  &handled,
			ProgressPercent: &percent,
		}); err != nil {
			return res, fmt.Errorf("failed to update job progress: %w", err)
		}
	}

	status := finalStatus(cancelled, res)
	if err := imp.finish(bookkeeping, batch, res, status, nil); err != nil {
		return res, err
	}

	logger.InfoContext(ctx, "import finished", "status", res.Status,
		"processed", res.FilesProcessed, "skipped", res.FilesSkipped, "errors", len(res.Errors))
	return res, nil
}

func (imp *Importer) finish(ctx context.Context, batch *Batch, res *Result, status storage.JobStatus, appendErrors []string) error {
	res.Status = status
	if err := imp.jobs.UpdateProgress(ctx, batch.Job.ID, storage.JobUpdate{Status: &status, AppendErrors: appendErrors}); err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}
	return nil
}

func finalStatus(cancelled bool, res *Result) storage.JobStatus {
	switch {
	case cancelled:
		return storage.JobCancelled
	case len(res.Errors) > 0 && res.FilesProcessed == 0:
		return storage.JobFailed
	case len(res.Errors) > 0:
		return storage.JobCompletedWithWarnings
	default:
		return storage.JobCompleted
	}
}

// processPayload decodes, detects and, inside one transaction, claims the
// payload hash, normalizes and persists it. A hash that is already recorded
// leaves the payload skipped without normalizing it.
func (imp *Importer) processPayload(ctx context.Context, batch *Batch, normOpts dialect.Options, p Payload) (payloadStats, error) {
	var stats payloadStats

	raw, err := p.Load()
	if err != nil {
		return stats, err
	}
	payload, err := decodePayload(raw)
	if err != nil {
		return stats, err
	}
	hash := contentstore.Hash(raw)

	d := batch.hint
	if d == "" {
		var rule string
		d, rule, err = dialect.DetectWithRule(payload)
		if err != nil {
			return stats, err
		}
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "detected format", "source", p.Label, "format", d, "rule", rule)
	}
	stats.format = d

	normalizer, err := dialect.NormalizerFor(d, normOpts)
	if err != nil {
		return stats, err
	}

	err = imp.tx.InTx(ctx, func(r storage.Repos) error {
		stats = payloadStats{format: d}
		accepted, err := r.Files.Record(ctx, storage.ImportedFile{
			ContentHash:    hash,
			JobID:          batch.Job.ID,
			SourcePath:     p.Label,
			DetectedFormat: string(d),
		})
		if err != nil {
			return err
		}
		if !accepted {
			stats.skipped = true
			return nil
		}

		imported, err := normalizer.Normalize(payload)
		if err != nil {
			return err
		}
		return imp.persist(ctx, r, imported, &stats)
	})
	if err != nil {
		return payloadStats{}, err
	}
	return stats, nil
}

// persist writes the normalized threads. A re-imported thread keeps its ID
// and has its message set replaced.
func (imp *Importer) persist(ctx context.Context, r storage.Repos, imported *conversation.Import, stats *payloadStats) error {
	platformID, err := r.Platforms.GetOrCreate(ctx, imported.Platform)
	if err != nil {
		return fmt.Errorf("failed to resolve platform: %w", err)
	}

	for _, th := range imported.Threads {
		threadID, created, err := r.Threads.Upsert(ctx, storage.ThreadRecord{
			PlatformID:   platformID,
			ExternalID:   th.ExternalID,
			Title:        th.Title,
			Summary:      th.Summary,
			CreatedAt:    th.CreatedAt,
			UpdatedAt:    th.UpdatedAt,
			MessageCount: th.MessageCount(),
			TotalTokens:  th.TotalTokens(),
			QualityScore: th.QualityScore,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert thread %s: %w", th.ExternalID, err)
		}
		if created {
			stats.threadsCreated++
		} else {
			stats.threadsUpdated++
			if err := r.Threads.ReplaceMessages(ctx, threadID); err != nil {
				return fmt.Errorf("failed to replace messages of thread %s: %w", th.ExternalID, err)
			}
		}

		for _, m := range th.Messages {
			messageID, err := r.Threads.InsertMessage(ctx, storage.MessageRecord{
				ThreadID:       threadID,
				ExternalID:     m.ExternalID,
				Role:           m.Role,
				Content:        m.Content,
				ContentType:    m.ContentType,
				Timestamp:      m.Timestamp,
				SequenceNumber: m.Sequence,
				TokenCount:     m.TokenEstimate(),
				HasAttachments: m.HasAttachments(),
			})
			if err != nil {
				return fmt.Errorf("failed to insert message %d of thread %s: %w", m.Sequence, th.ExternalID, err)
			}
			stats.messagesCreated++

			for _, att := range m.Attachments {
				hash, path, err := imp.content.Persist(messageID, att)
				if err != nil {
					return fmt.Errorf("failed to store attachment %s: %w", att.Filename, err)
				}
				if _, err := r.Threads.InsertAttachment(ctx, storage.AttachmentRecord{
					MessageID:     messageID,
					Filename:      contentstore.SanitizeFilename(att.Filename),
					MimeType:      contentstore.DetectMIME(att),
					FileSize:      int64(len(att.Content)),
					ContentHash:   hash,
					StoragePath:   path,
					ExtractedText: att.ExtractedText,
					Metadata:      att.Metadata,
				}); err != nil {
					return fmt.Errorf("failed to insert attachment %s: %w", att.Filename, err)
				}
				stats.attachmentsSaved++
			}
		}
	}
	return nil
}
