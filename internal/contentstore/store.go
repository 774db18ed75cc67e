// Package contentstore keeps attachment bytes on disk in a content-addressed
// fan-out layout.
package contentstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"chatvault/internal/conversation"
)

const (
	// DefaultFilename is used when an attachment name sanitizes to nothing.
	DefaultFilename = "attachment.bin"
	maxFilenameLen  = 128
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store writes attachments under a base directory.
type Store struct {
	base string
}

// New creates the base directory if needed and returns a store rooted there.
func New(base string) (*Store, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("attachments path is empty")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachments directory %s: %w", base, err)
	}
	return &Store{base: base}, nil
}

// Base returns the root directory of the store.
func (s *Store) Base() string {
	return s.base
}

// Persist writes the attachment bytes to <base>/<h[0:2]>/<h[2:4]>/<ownerID>/<filename>
// and returns the content hash and the written path. Writing the same
// attachment again overwrites the file with identical bytes.
func (s *Store) Persist(ownerID string, att conversation.Attachment) (hash, path string, err error) {
	hash = Hash(att.Content)
	dir := filepath.Join(s.base, hash[0:2], hash[2:4], SanitizeFilename(ownerID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create attachment directory: %w", err)
	}

	path = filepath.Join(dir, SanitizeFilename(att.Filename))
	if err := os.WriteFile(path, att.Content, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write attachment %s: %w", path, err)
	}
	return hash, path, nil
}

// Hash returns the lower-case hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SanitizeFilename strips directory components and collapses runs of unsafe
// characters into a single underscore.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	if name == "" || strings.Trim(name, ".") == "" {
		return DefaultFilename
	}
	return name
}

// DetectMIME resolves the media type of an attachment. The declared type wins,
// then the filename extension, then content sniffing.
func DetectMIME(att conversation.Attachment) string {
	candidates := []string{att.MimeType, mime.TypeByExtension(filepath.Ext(att.Filename))}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if mediaType, _, err := mime.ParseMediaType(c); err == nil {
			return mediaType
		}
	}
	mediaType, _, err := mime.ParseMediaType(mimetype.Detect(att.Content).String())
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}
