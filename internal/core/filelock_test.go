package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireInstanceLock_SecondAcquireFails(t *testing.T) {
	dir := t.TempDir()

	unlock, err := AcquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer func() { _ = unlock() }()

	if _, err := AcquireInstanceLock(dir); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second acquire error = %v, want ErrAlreadyRunning", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
}

func TestAcquireInstanceLock_ReacquireAfterUnlock(t *testing.T) {
	dir := t.TempDir()

	unlock, err := AcquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	unlock, err = AcquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("reacquire after unlock: %v", err)
	}
	_ = unlock()
}

func TestAcquireInstanceLock_CreatesBaseDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet")

	unlock, err := AcquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = unlock() }()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("base directory not created: %v", err)
	}
}
