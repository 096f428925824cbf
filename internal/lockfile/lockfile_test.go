package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "runner.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Held(path) {
		t.Error("marker should exist after acquire")
	}

	// Повторный захват — немедленный отказ, без ожидания.
	if _, err := Acquire(path); !errors.Is(err, ErrLockBusy) {
		t.Errorf("expected ErrLockBusy, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if Held(path) {
		t.Error("marker should be gone after release")
	}

	// Release идемпотентен.
	if err := lock.Release(); err != nil {
		t.Errorf("double release should be nil, got %v", err)
	}

	// После освобождения блокировка снова доступна.
	lock2, err := Acquire(path)
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	lock2.Release()
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lock.Release()

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.PID != os.Getpid() {
		t.Errorf("expected pid %d, got %d", os.Getpid(), info.PID)
	}
	if info.AcquiredAt.IsZero() {
		t.Error("acquired_at should be set")
	}
}

func TestInspect_Missing(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "missing.lock"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestForceClear_Fresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lock.Release()

	// Свежий маркер не очищается.
	if err := ForceClear(path, time.Hour); !errors.Is(err, ErrNotStale) {
		t.Errorf("expected ErrNotStale, got %v", err)
	}
	if !Held(path) {
		t.Error("fresh marker should survive ForceClear")
	}
}

func TestForceClear_Stale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lock.Release()

	// Маркер старше нулевого порога считается устаревшим.
	if err := ForceClear(path, 0); err != nil {
		t.Fatalf("force clear failed: %v", err)
	}
	if Held(path) {
		t.Error("stale marker should be removed")
	}
}

func TestForceClear_Missing(t *testing.T) {
	if err := ForceClear(filepath.Join(t.TempDir(), "none.lock"), time.Hour); err != nil {
		t.Errorf("missing marker should be nil, got %v", err)
	}
}
