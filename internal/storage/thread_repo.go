package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_thread_store.go -package=mocks chatvault/internal/storage ThreadStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// PreviewLength is the maximum number of characters in a search preview.
const PreviewLength = 200

// ThreadStore defines the interface for thread, message and attachment storage.
type ThreadStore interface {
	// Upsert inserts a thread or updates the existing one with the same
	// (platform_id, external_id). It returns the thread ID and whether a row was created.
	Upsert(ctx context.Context, thread ThreadRecord) (string, bool, error)
	// ReplaceMessages deletes every message of the thread along with their attachments.
	ReplaceMessages(ctx context.Context, threadID string) error
	// InsertMessage inserts a message and returns its ID.
	InsertMessage(ctx context.Context, msg MessageRecord) (string, error)
	// InsertAttachment inserts an attachment and returns its ID.
	InsertAttachment(ctx context.Context, att AttachmentRecord) (string, error)
	// Search returns threads whose title or message content contains query,
	// most recently updated first. An empty query lists all threads.
	Search(ctx context.Context, query string, limit int) ([]ThreadSummary, error)
	// Get returns a thread with its ordered messages and attachments.
	// Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (*ThreadDetail, error)
}

// ThreadRepo implements ThreadStore.
type ThreadRepo struct {
	c conn
}

// NewThreadRepo creates a new ThreadRepo bound to the connection pool.
func NewThreadRepo(db *DB) *ThreadRepo {
	return &ThreadRepo{c: conn{q: db.DB, driver: db.driver}}
}

// Upsert inserts or updates a thread. A lost insert race falls back to update.
func (r *ThreadRepo) Upsert(ctx context.Context, t ThreadRecord) (string, bool, error) {
	id, err := r.update(ctx, t)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}

	id = t.ID
	if id == "" {
		id = uuid.NewString()
	}
	res, err := r.c.exec(ctx,
		`INSERT INTO threads (id, platform_id, external_id, title, summary, created_at, updated_at,
		 message_count, total_tokens, quality_score) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (platform_id, external_id) DO NOTHING`,
		id, t.PlatformID, t.ExternalID, nullString(t.Title), nullString(t.Summary),
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(), t.MessageCount, t.TotalTokens, nullFloat(t.QualityScore),
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert thread: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		id, err := r.update(ctx, t)
		return id, false, err
	}
	return id, true, nil
}

func (r *ThreadRepo) update(ctx context.Context, t ThreadRecord) (string, error) {
	var id string
	err := r.c.queryRow(ctx,
		"SELECT id FROM threads WHERE platform_id = ? AND external_id = ?", t.PlatformID, t.ExternalID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query thread: %w", err)
	}

	_, err = r.c.exec(ctx,
		`UPDATE threads SET title = ?, summary = ?, created_at = ?, updated_at = ?, message_count = ?,
		 total_tokens = ?, quality_score = ? WHERE id = ?`,
		nullString(t.Title), nullString(t.Summary), t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
		t.MessageCount, t.TotalTokens, nullFloat(t.QualityScore), id,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update thread: %w", err)
	}
	return id, nil
}

// ReplaceMessages removes the thread's messages so a re-import can write the full set.
func (r *ThreadRepo) ReplaceMessages(ctx context.Context, threadID string) error {
	if _, err := r.c.exec(ctx,
		"DELETE FROM attachments WHERE message_id IN (SELECT id FROM messages WHERE thread_id = ?)", threadID,
	); err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}
	if _, err := r.c.exec(ctx, "DELETE FROM messages WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

// InsertMessage inserts a message. An empty ID is generated.
func (r *ThreadRepo) InsertMessage(ctx context.Context, m MessageRecord) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.c.exec(ctx,
		`INSERT INTO messages (id, thread_id, external_id, role, content, content_type, "timestamp",
		 sequence_number, token_count, has_attachments) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, nullString(m.ExternalID), m.Role, m.Content, m.ContentType, m.Timestamp.UTC(),
		m.SequenceNumber, m.TokenCount, m.HasAttachments,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}
	return m.ID, nil
}

// InsertAttachment inserts an attachment. An empty ID is generated.
func (r *ThreadRepo) InsertAttachment(ctx context.Context, a AttachmentRecord) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	metadata := a.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode attachment metadata: %w", err)
	}
	_, err = r.c.exec(ctx,
		`INSERT INTO attachments (id, message_id, filename, mime_type, file_size, content_hash, storage_path,
		 extracted_text, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.MessageID, a.Filename, a.MimeType, a.FileSize, a.ContentHash, a.StoragePath,
		nullString(a.ExtractedText), string(meta),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert attachment: %w", err)
	}
	return a.ID, nil
}

// Search lists threads matching query case-insensitively. The preview is the
// first matching message, or the first message when only the title matched.
func (r *ThreadRepo) Search(ctx context.Context, query string, limit int) ([]ThreadSummary, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	stmt := `SELECT t.id, t.title, p.name, t.updated_at, t.message_count, t.total_tokens,
		COALESCE(
			(SELECT m.content FROM messages m WHERE m.thread_id = t.id AND LOWER(m.content) LIKE ? ESCAPE '\'
			 ORDER BY m.sequence_number LIMIT 1),
			(SELECT m.content FROM messages m WHERE m.thread_id = t.id ORDER BY m.sequence_number LIMIT 1),
			'')
		FROM threads t JOIN platforms p ON p.id = t.platform_id`
	args := []any{pattern}
	if strings.TrimSpace(query) != "" {
		stmt += ` WHERE LOWER(COALESCE(t.title, '')) LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM messages m WHERE m.thread_id = t.id AND LOWER(m.content) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	stmt += " ORDER BY t.updated_at DESC, t.id LIMIT ?"
	args = append(args, limit)

	rows, err := r.c.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search threads: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := []ThreadSummary{}
	for rows.Next() {
		var s ThreadSummary
		var title sql.NullString
		if err := rows.Scan(&s.ID, &title, &s.Platform, &s.UpdatedAt, &s.MessageCount, &s.TotalTokens, &s.Preview); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		s.Title = title.String
		s.Preview = truncate(s.Preview, PreviewLength)
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate threads: %w", err)
	}
	return results, nil
}

// Get returns a thread with its messages in sequence order.
func (r *ThreadRepo) Get(ctx context.Context, id string) (*ThreadDetail, error) {
	var (
		d              ThreadDetail
		title, summary sql.NullString
		score          sql.NullFloat64
	)
	err := r.c.queryRow(ctx,
		`SELECT t.id, t.platform_id, p.name, t.external_id, t.title, t.summary, t.created_at, t.updated_at,
		 t.message_count, t.total_tokens, t.quality_score
		 FROM threads t JOIN platforms p ON p.id = t.platform_id WHERE t.id = ?`, id,
	).Scan(&d.ID, &d.PlatformID, &d.Platform, &d.ExternalID, &title, &summary, &d.CreatedAt, &d.UpdatedAt,
		&d.MessageCount, &d.TotalTokens, &score)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}
	d.Title = title.String
	d.Summary = summary.String
	if score.Valid {
		v := score.Float64
		d.QualityScore = &v
	}

	attachments, err := r.attachmentsByMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.c.query(ctx,
		`SELECT id, thread_id, external_id, role, content, content_type, "timestamp", sequence_number,
		 token_count, has_attachments FROM messages WHERE thread_id = ? ORDER BY sequence_number`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	d.Messages = []MessageDetail{}
	for rows.Next() {
		var m MessageDetail
		var extID sql.NullString
		if err := rows.Scan(&m.ID, &m.ThreadID, &extID, &m.Role, &m.Content, &m.ContentType, &m.Timestamp,
			&m.SequenceNumber, &m.TokenCount, &m.HasAttachments); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.ExternalID = extID.String
		m.Attachments = attachments[m.ID]
		d.Messages = append(d.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return &d, nil
}

func (r *ThreadRepo) attachmentsByMessage(ctx context.Context, threadID string) (map[string][]AttachmentRecord, error) {
	rows, err := r.c.query(ctx,
		`SELECT a.id, a.message_id, a.filename, a.mime_type, a.file_size, a.content_hash, a.storage_path,
		 a.extracted_text, a.metadata
		 FROM attachments a JOIN messages m ON m.id = a.message_id
		 WHERE m.thread_id = ? ORDER BY m.sequence_number, a.id`, threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(map[string][]AttachmentRecord)
	for rows.Next() {
		var a AttachmentRecord
		var extracted sql.NullString
		var meta string
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Filename, &a.MimeType, &a.FileSize, &a.ContentHash,
			&a.StoragePath, &extracted, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.ExtractedText = extracted.String
		if err := json.Unmarshal([]byte(meta), &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode attachment metadata: %w", err)
		}
		out[a.MessageID] = append(out[a.MessageID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
