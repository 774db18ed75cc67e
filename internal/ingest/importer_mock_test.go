package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chatvault/internal/contentstore"
	"chatvault/internal/storage"
	storage_mocks "chatvault/internal/storage/mocks"
)

type mockStores struct {
	tx        *storage_mocks.MockTxRunner
	jobs      *storage_mocks.MockJobStore
	files     *storage_mocks.MockImportedFileStore
	platforms *storage_mocks.MockPlatformStore
	threads   *storage_mocks.MockThreadStore
}

func newMockStores(ctrl *gomock.Controller) *mockStores {
	m := &mockStores{
		tx:        storage_mocks.NewMockTxRunner(ctrl),
		jobs:      storage_mocks.NewMockJobStore(ctrl),
		files:     storage_mocks.NewMockImportedFileStore(ctrl),
		platforms: storage_mocks.NewMockPlatformStore(ctrl),
		threads:   storage_mocks.NewMockThreadStore(ctrl),
	}
	repos := storage.Repos{Platforms: m.platforms, Jobs: m.jobs, Files: m.files, Threads: m.threads}
	m.tx.EXPECT().InTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(storage.Repos) error) error {
			return fn(repos)
		}).AnyTimes()
	return m
}

func (m *mockStores) expectJob(id string) {
	m.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&storage.Job{ID: id, Status: storage.JobPending}, nil)
	m.jobs.EXPECT().UpdateProgress(gomock.Any(), id, gomock.Any()).Return(nil).AnyTimes()
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_DedupPrecedesNormalization(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMockStores(ctrl)
	m.expectJob("job-1")

	// Normalizing this payload would fail; a recorded hash must skip it first.
	raw := `{"mapping": {}, "create_time": "not a time"}`
	path := writeTemp(t, "dup.json", raw)

	m.files.EXPECT().Record(gomock.Any(), storage.ImportedFile{
		ContentHash:    contentstore.Hash([]byte(raw)),
		JobID:          "job-1",
		SourcePath:     path,
		DetectedFormat: "chatgpt",
	}).Return(false, nil)

	store, err := contentstore.New(t.TempDir())
	require.NoError(t, err)
	imp := NewImporter(m.tx, m.jobs, store)

	res, err := imp.Ingest(context.Background(), []string{path}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Equal(t, 0, res.FilesProcessed)
	assert.Empty(t, res.Errors)
	assert.Equal(t, storage.JobCompleted, res.Status)
}

func TestRun_FatalStorageErrorStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMockStores(ctrl)
	m.expectJob("job-2")

	first := writeTemp(t, "a.json", `{"conversations": [{"id": "1", "mapping": {}}]}`)
	second := writeTemp(t, "b.json", `{"conversations": [{"id": "2", "mapping": {}}]}`)

	corrupt := sqlite3.Error{Code: sqlite3.ErrCorrupt}
	m.files.EXPECT().Record(gomock.Any(), gomock.Any()).Return(false, corrupt).Times(1)

	store, err := contentstore.New(t.TempDir())
	require.NoError(t, err)
	imp := NewImporter(m.tx, m.jobs, store)

	res, err := imp.Ingest(context.Background(), []string{first, second}, Options{AllowPartial: true})
	require.Error(t, err)
	assert.True(t, storage.IsFatal(err))
	assert.Equal(t, storage.JobFailed, res.Status)
	assert.Len(t, res.Errors, 1)
	assert.False(t, imp.Busy())
}

func TestRun_FatalStorageErrorReportsFinishFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMockStores(ctrl)
	m.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&storage.Job{ID: "job-4"}, nil)
	gomock.InOrder(
		m.jobs.EXPECT().UpdateProgress(gomock.Any(), "job-4", gomock.Cond(func(u storage.JobUpdate) bool {
			return u.Status != nil && *u.Status == storage.JobRunning
		})).Return(nil),
		m.jobs.EXPECT().UpdateProgress(gomock.Any(), "job-4", gomock.Cond(func(u storage.JobUpdate) bool {
			return u.Status != nil && *u.Status == storage.JobFailed
		})).Return(errors.New("database is locked")),
	)

	path := writeTemp(t, "a.json", `{"conversations": [{"id": "1", "mapping": {}}]}`)
	m.files.EXPECT().Record(gomock.Any(), gomock.Any()).Return(false, sqlite3.Error{Code: sqlite3.ErrNotADB})

	store, err := contentstore.New(t.TempDir())
	require.NoError(t, err)
	imp := NewImporter(m.tx, m.jobs, store)

	res, err := imp.Ingest(context.Background(), []string{path}, Options{})
	require.Error(t, err)
	assert.True(t, storage.IsFatal(err))
	assert.ErrorContains(t, err, "failed to finish job")
	assert.Equal(t, storage.JobFailed, res.Status)
	assert.False(t, imp.Busy())
}

func TestRun_ErrorsAppendedImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMockStores(ctrl)
	m.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&storage.Job{ID: "job-3"}, nil)

	path := writeTemp(t, "broken.json", `not json`)
	msg := path + ": "

	gomock.InOrder(
		m.jobs.EXPECT().UpdateProgress(gomock.Any(), "job-3", gomock.Cond(func(u storage.JobUpdate) bool {
			return u.Status != nil && *u.Status == storage.JobRunning
		})).Return(nil),
		m.jobs.EXPECT().UpdateProgress(gomock.Any(), "job-3", gomock.Cond(func(u storage.JobUpdate) bool {
			return len(u.AppendErrors) == 1 && len(u.AppendErrors[0]) > len(msg) && u.AppendErrors[0][:len(msg)] == msg
		})).Return(nil),
		m.jobs.EXPECT().UpdateProgress(gomock.Any(), "job-3", gomock.Cond(func(u storage.JobUpdate) bool {
			return u.Status != nil && *u.Status == storage.JobFailed
		})).Return(nil),
	)

	store, err := contentstore.New(t.TempDir())
	require.NoError(t, err)
	imp := NewImporter(m.tx, m.jobs, store)

	res, err := imp.Ingest(context.Background(), []string{path}, Options{})
	require.NoError(t, err)
	assert.Equal(t, storage.JobFailed, res.Status)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ErrDecode.Error())
}
