package storage

import (
	"context"
	"testing"
)

func TestImportedFileRepo_Record(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	job, err := NewJobRepo(db).Create(ctx, JobSpec{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	repo := NewImportedFileRepo(db)

	file := ImportedFile{ContentHash: "abc", JobID: job.ID, SourcePath: "a.json", DetectedFormat: "chatgpt"}

	exists, err := repo.Exists(ctx, "abc")
	if err != nil || exists {
		t.Fatalf("Exists() = %v, %v before record", exists, err)
	}

	accepted, err := repo.Record(ctx, file)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !accepted {
		t.Error("first Record() not accepted")
	}

	file.SourcePath = "copy-of-a.json"
	accepted, err = repo.Record(ctx, file)
	if err != nil {
		t.Fatalf("second Record() error = %v", err)
	}
	if accepted {
		t.Error("second Record() with same hash accepted")
	}

	exists, err = repo.Exists(ctx, "abc")
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v after record", exists, err)
	}
}
