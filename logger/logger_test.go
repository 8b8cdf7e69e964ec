package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRotateLatestLog(t *testing.T) {
	now := time.Date(2025, time.March, 4, 13, 5, 9, 0, time.UTC)

	t.Run("nothing to rotate", func(t *testing.T) {
		dir := t.TempDir()
		got, err := rotateLatestLog(dir, "app", now)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != "" {
			t.Errorf("Expected no rotation, got %s", got)
		}
	})

	t.Run("renames latest with timestamp", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "app_latest.log"), []byte("old"), 0644); err != nil {
			t.Fatalf("Failed to write log: %v", err)
		}

		got, err := rotateLatestLog(dir, "app", now)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := filepath.Join(dir, "app_03_04_2025_1305_09.log")
		if got != want {
			t.Errorf("rotateLatestLog() = %s, want %s", got, want)
		}
		if fileExists(filepath.Join(dir, "app_latest.log")) {
			t.Error("Latest log should have been moved")
		}
	})

	t.Run("adds counter on collision", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"app_latest.log", "app_03_04_2025_1305_09.log", "app_03_04_2025_1305_09_(1).log"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
				t.Fatalf("Failed to write %s: %v", name, err)
			}
		}

		got, err := rotateLatestLog(dir, "app", now)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := filepath.Join(dir, "app_03_04_2025_1305_09_(2).log")
		if got != want {
			t.Errorf("rotateLatestLog() = %s, want %s", got, want)
		}
	})
}

func TestInitLoggerWritesLatestFile(t *testing.T) {
	dir := t.TempDir()
	if err := InitLogger(Options{Dir: dir, Prefix: "test"}); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	defer func() { Sync() }()

	Log.Info("hello")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, "test_latest.log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected log file to contain output")
	}
}

func TestInitLoggerDisabledFile(t *testing.T) {
	dir := t.TempDir()
	if err := InitLogger(Options{Dir: dir, DisableFile: true}); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	Log.Info("nowhere")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no log files, found %d", len(entries))
	}
}
