package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(payloads []Payload) []string {
	out := make([]string, len(payloads))
	for i, p := range payloads {
		out[i] = p.Label
	}
	return out
}

func writeZip(t *testing.T, path string, members map[string]string, order []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(members[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestEnumerateSources_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	for name, content := range map[string]string{
		"b.json":          `{}`,
		"a.json":          `{}`,
		"notes.txt":       `ignored`,
		".hidden.json":    `{}`,
		".git/x.json":     `{}`,
		"nested/c.ndjson": "{\"a\":1}\n\n{\"b\":2}\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	payloads, err := EnumerateSources(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "nested", "c.ndjson") + "#L1",
		filepath.Join(dir, "nested", "c.ndjson") + "#L3",
	}, labels(payloads))

	raw, err := payloads[3].Load()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(raw))
}

func TestEnumerateSources_ExplicitFileAlwaysRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.txt")
	require.NoError(t, os.WriteFile(path, []byte(`{"mapping": {}}`), 0o644))

	payloads, err := EnumerateSources(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	raw, err := payloads[0].Load()
	require.NoError(t, err)
	assert.Equal(t, `{"mapping": {}}`, string(raw))
}

func TestEnumerateSources_Zip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "export.zip")
	writeZip(t, archive, map[string]string{
		"conversations.json": `{"conversations": []}`,
		"readme.md":          `# nope`,
		"lines.jsonl":        "{\"x\":1}\n{\"y\":2}",
		"__MACOSX/._a.json":  `junk`,
	}, []string{"conversations.json", "readme.md", "lines.jsonl", "__MACOSX/._a.json"})

	payloads, err := EnumerateSources(context.Background(), []string{archive})
	require.NoError(t, err)
	assert.Equal(t, []string{
		archive + "::conversations.json",
		archive + "::lines.jsonl#L1",
		archive + "::lines.jsonl#L2",
	}, labels(payloads))

	raw, err := payloads[0].Load()
	require.NoError(t, err)
	assert.Equal(t, `{"conversations": []}`, string(raw))
}

func TestEnumerateSources_MissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	payloads, err := EnumerateSources(context.Background(), []string{missing})
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	assert.Equal(t, missing, payloads[0].Label)
	_, err = payloads[0].Load()
	assert.Error(t, err)
}

func TestEnumerateSources_BrokenZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	payloads, err := EnumerateSources(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, payloads, 1)
	_, err = payloads[0].Load()
	assert.Error(t, err)
}

func TestEnumerateSources_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EnumerateSources(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
