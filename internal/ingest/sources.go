package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Payload is one JSON document to import. Its bytes are read lazily so a
// large batch is not held in memory at once.
type Payload struct {
	Label string // Source label used in error messages
	load  func() ([]byte, error)
}

// Load returns the raw bytes of the payload.
func (p Payload) Load() ([]byte, error) {
	return p.load()
}

// staticPayload wraps bytes that are already in memory.
func staticPayload(label string, raw []byte) Payload {
	return Payload{Label: label, load: func() ([]byte, error) { return raw, nil }}
}

// failedPayload carries a source that could not be read. The error surfaces
// in order when the batch runs.
func failedPayload(label string, err error) Payload {
	return Payload{Label: label, load: func() ([]byte, error) { return nil, err }}
}

var importableExts = map[string]bool{
	".json":   true,
	".jsonl":  true,
	".ndjson": true,
	".zip":    true,
}

func isLineDelimited(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jsonl" || ext == ".ndjson"
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// EnumerateSources expands files, directories and zip archives into payloads
// in a deterministic order.
func EnumerateSources(ctx context.Context, sources []string) ([]Payload, error) {
	var payloads []Payload
	for _, src := range sources {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := os.Stat(src)
		if err != nil {
			payloads = append(payloads, failedPayload(src, fmt.Errorf("failed to access source: %w", err)))
			continue
		}
		if info.IsDir() {
			payloads = append(payloads, walkDirectory(src)...)
			continue
		}
		payloads = append(payloads, expandFile(src)...)
	}
	return payloads, nil
}

// walkDirectory lists importable files below root in lexical order, skipping
// hidden files and directories.
func walkDirectory(root string) []Payload {
	var payloads []Payload
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			payloads = append(payloads, failedPayload(path, fmt.Errorf("failed to access path: %w", err)))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !importableExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		payloads = append(payloads, expandFile(path)...)
		return nil
	})
	if err != nil {
		payloads = append(payloads, failedPayload(root, fmt.Errorf("failed to scan directory: %w", err)))
	}
	return payloads
}

// expandFile turns one file into payloads according to its extension.
func expandFile(path string) []Payload {
	switch {
	case strings.EqualFold(filepath.Ext(path), ".zip"):
		return expandArchive(path)
	case isLineDelimited(path):
		raw, err := os.ReadFile(path)
		if err != nil {
			return []Payload{failedPayload(path, fmt.Errorf("failed to read file: %w", err))}
		}
		return splitLines(path, raw)
	default:
		return []Payload{{Label: path, load: func() ([]byte, error) {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read file: %w", err)
			}
			return raw, nil
		}}}
	}
}

// splitLines yields one payload per non-blank line, labelled <label>#L<n>.
func splitLines(label string, raw []byte) []Payload {
	var payloads []Payload
	for i, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		payloads = append(payloads, staticPayload(fmt.Sprintf("%s#L%d", label, i+1), line))
	}
	return payloads
}

// expandArchive lists JSON members of a zip archive in archive order.
func expandArchive(path string) []Payload {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return []Payload{failedPayload(path, fmt.Errorf("failed to open archive: %w", err))}
	}
	defer func() {
		_ = zr.Close()
	}()

	var payloads []Payload
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isHidden(filepath.Base(f.Name)) || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".json" && !isLineDelimited(f.Name) {
			continue
		}

		label := path + "::" + f.Name
		if isLineDelimited(f.Name) {
			raw, err := readMember(f)
			if err != nil {
				payloads = append(payloads, failedPayload(label, err))
				continue
			}
			payloads = append(payloads, splitLines(label, raw)...)
			continue
		}

		name := f.Name
		payloads = append(payloads, Payload{Label: label, load: func() ([]byte, error) {
			return readArchiveMember(path, name)
		}})
	}
	return payloads
}

func readArchiveMember(path, name string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		_ = zr.Close()
	}()
	for _, f := range zr.File {
		if f.Name == name {
			return readMember(f)
		}
	}
	return nil, fmt.Errorf("archive member %s disappeared", name)
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive member: %w", err)
	}
	defer func() {
		_ = rc.Close()
	}()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive member: %w", err)
	}
	return raw, nil
}
