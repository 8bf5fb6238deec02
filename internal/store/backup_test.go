package store

import (
	"testing"
	"time"

	"github.com/rlowe/countback/internal/database"
	"github.com/rlowe/countback/internal/model"
)

func setupBackupStore(t *testing.T) *BackupStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBackupStore(db)
}

func TestBackupLifecycle(t *testing.T) {
	s := setupBackupStore(t)

	b, err := s.Create("countback-2026-03-10.json.enc", "snapshots/countback-2026-03-10.json.enc")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want pending", b.Status)
	}

	if err := s.UpdateStatus(b.ID, model.BackupStatusUploading, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := s.UpdateCompleted(b.ID, 1234); err != nil {
		t.Fatalf("update completed: %v", err)
	}

	got, err := s.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.SizeBytes != 1234 {
		t.Errorf("size = %d, want 1234", got.SizeBytes)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
}

func TestBackupGetMissing(t *testing.T) {
	s := setupBackupStore(t)

	got, err := s.GetByID(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestBackupFailureRecordsError(t *testing.T) {
	s := setupBackupStore(t)
	b, _ := s.Create("f.json.enc", "snapshots/f.json.enc")

	if err := s.UpdateStatus(b.ID, model.BackupStatusFailed, "connection reset"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := s.GetByID(b.ID)
	if got.Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage != "connection reset" {
		t.Errorf("error = %q, want the recorded message", got.ErrorMessage)
	}
}

func TestBackupListNewestFirst(t *testing.T) {
	s := setupBackupStore(t)
	s.Create("a.json.enc", "snapshots/a.json.enc")
	s.Create("b.json.enc", "snapshots/b.json.enc")

	backups, err := s.List(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("count = %d, want 2", len(backups))
	}
}

func TestDeleteOlderThan(t *testing.T) {
	s := setupBackupStore(t)
	b, _ := s.Create("old.json.enc", "snapshots/old.json.enc")
	s.UpdateCompleted(b.ID, 10)

	keys, err := s.DeleteOlderThan(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 1 || keys[0] != "snapshots/old.json.enc" {
		t.Errorf("keys = %v, want the pruned s3 key", keys)
	}

	backups, _ := s.List(10)
	if len(backups) != 0 {
		t.Errorf("count after prune = %d, want 0", len(backups))
	}
}

func TestLatestCompleted(t *testing.T) {
	s := setupBackupStore(t)
	if got, err := s.LatestCompleted(); err != nil || got != nil {
		t.Fatalf("latest on empty = %+v, %v; want nil, nil", got, err)
	}

	a, _ := s.Create("a.json.enc", "snapshots/a.json.enc")
	s.UpdateCompleted(a.ID, 10)
	s.Create("b.json.enc", "snapshots/b.json.enc") // still pending

	got, err := s.LatestCompleted()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Errorf("latest = %+v, want the completed one", got)
	}
}
