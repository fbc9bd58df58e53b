package lockfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lockPath := filepath.Join(dir, LockFileName)
	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("expected lock file to exist: %v", err)
	}
	if !strings.HasPrefix(string(data), "pid=") {
		t.Errorf("expected pid information in lock file, got %q", data)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("unexpected error releasing lock: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("expected lock file removed after release, got %v", err)
	}
}

func TestAcquireLockConflict(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lock.Release()

	_, err = AcquireLock(dir)
	if err == nil {
		t.Fatal("expected error acquiring an already-held lock")
	}
	lockErr, ok := err.(*LockError)
	if !ok {
		t.Fatalf("expected *LockError, got %T", err)
	}
	if !strings.Contains(lockErr.Error(), "already running") {
		t.Errorf("unexpected error message: %q", lockErr.Error())
	}
	if !strings.Contains(lockErr.ExistingInfo, "running") {
		t.Errorf("expected existing process info, got %q", lockErr.ExistingInfo)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second release must be a no-op, got %v", err)
	}
}

func TestExtractPIDFromLockInfo(t *testing.T) {
	if pid := extractPIDFromLockInfo("pid=12345\n"); pid != 12345 {
		t.Errorf("expected 12345, got %d", pid)
	}
	if pid := extractPIDFromLockInfo("garbage"); pid != 0 {
		t.Errorf("expected 0 for missing pid, got %d", pid)
	}
}
