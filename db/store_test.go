package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	return NewStore(conn)
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()

	game, created, err := store.Register(dir, "Test Game")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !created {
		t.Fatal("Expected a new record")
	}

	game.UE4SSVersion = "v3.0.1"
	game.LastInstalledVersion = "UE4SS_v3.0.1.zip"
	game.InstalledFiles = []string{"dwmapi.dll", "ue4ss/UE4SS.dll"}
	game.SetDeveloperVersion(true)
	if err := store.SaveRecord(game); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	loaded, err := store.LoadRecord(dir)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if diff := cmp.Diff(game.InstalledFiles, loaded.InstalledFiles); diff != "" {
		t.Errorf("InstalledFiles mismatch (-want +got):\n%s", diff)
	}
	if loaded.UE4SSVersion != "v3.0.1" || !loaded.UsingDeveloperVersion {
		t.Errorf("Fields not persisted: %+v", loaded)
	}

	again, created, err := store.Register(dir, "Other Title")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if created || again.ID != game.ID {
		t.Error("Registering a tracked directory should return the existing record")
	}
}

func TestStoreClearsManifest(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	game, _, err := store.Register(dir, "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	game.InstalledFiles = []string{"a.dll"}
	if err := store.SaveRecord(game); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	game.ResetInstall()
	if err := store.SaveRecord(game); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	loaded, err := store.LoadRecord(dir)
	if err != nil {
		t.Fatalf("LoadRecord failed: %v", err)
	}
	if loaded.IsInstalled() {
		t.Errorf("Expected empty manifest, got %v", loaded.InstalledFiles)
	}
}

func TestStoreInstallDirIsImmutable(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	game, _, err := store.Register(dir, "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	game.InstallDir = filepath.Join(dir, "elsewhere")
	if err := store.SaveRecord(game); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}
	if _, err := store.LoadRecord(dir); err != nil {
		t.Errorf("Record should still be keyed by the original directory: %v", err)
	}
}

func TestStoreLoadUnknown(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadRecord(t.TempDir())
	if !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}

func TestStoreForget(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	if _, _, err := store.Register(dir, ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := store.Forget(dir); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if _, err := store.LoadRecord(dir); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Expected record to be gone, got %v", err)
	}
	if _, _, err := store.Register(dir, ""); err != nil {
		t.Errorf("Re-registering a forgotten directory failed: %v", err)
	}
}

func TestStoreRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, op := range []string{"install", "uninstall", "reinstall"} {
		run := &InstallRun{
			RunID:      op,
			InstallDir: dir,
			Operation:  op,
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
		}
		if err := store.RecordRun(run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := store.Runs(dir, 2)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	var got []string
	for _, r := range runs {
		got = append(got, r.Operation)
	}
	if diff := cmp.Diff([]string{"reinstall", "uninstall"}, got); diff != "" {
		t.Errorf("Runs order mismatch (-want +got):\n%s", diff)
	}
}

func TestGameVersionFlagsAreExclusive(t *testing.T) {
	g := &Game{}
	g.SetPortableVersion(true)
	g.SetDeveloperVersion(true)
	if g.UsingPortableVersion {
		t.Error("Enabling developer should disable portable")
	}

	g.SetPortableVersion(true)
	if g.UsingDeveloperVersion {
		t.Error("Enabling portable should disable developer")
	}

	g.SetPortableVersion(false)
	if g.UsingDeveloperVersion || g.UsingPortableVersion {
		t.Error("Disabling portable should not enable developer")
	}
}
