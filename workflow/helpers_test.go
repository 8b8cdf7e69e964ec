package workflow

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"ue4ss-installer/archive"
	"ue4ss-installer/db"
	"ue4ss-installer/ue4ss"
)

// memStore is an in-memory RecordStore and RunRecorder.
type memStore struct {
	mu    sync.Mutex
	saved map[string]db.Game
	saves int
	runs  []db.InstallRun
}

func newMemStore() *memStore {
	return &memStore{saved: map[string]db.Game{}}
}

func (m *memStore) LoadRecord(installDir string) (*db.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.saved[installDir]
	if !ok {
		return nil, db.ErrGameNotFound
	}
	g.InstalledFiles = append([]string{}, g.InstalledFiles...)
	return &g, nil
}

func (m *memStore) SaveRecord(g *db.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	cp.InstalledFiles = append([]string{}, g.InstalledFiles...)
	m.saved[g.InstallDir] = cp
	m.saves++
	return nil
}

func (m *memStore) RecordRun(run *db.InstallRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

type recordingNotifier struct {
	successes []Notification
	failures  []Notification
}

func (r *recordingNotifier) NotifySuccess(n Notification) { r.successes = append(r.successes, n) }
func (r *recordingNotifier) NotifyFailure(n Notification) { r.failures = append(r.failures, n) }

type fakeIndex struct {
	urls map[string]string // tag/file -> url
}

func (f *fakeIndex) ReleaseTags(ctx context.Context, includePre bool) ([]string, error) {
	return nil, nil
}

func (f *fakeIndex) AssetsForTag(ctx context.Context, tag string) ([]ue4ss.Asset, error) {
	return nil, nil
}

func (f *fakeIndex) ResolveDownloadURL(ctx context.Context, tag, fileName string) (string, error) {
	url, ok := f.urls[tag+"/"+fileName]
	if !ok {
		return "", ue4ss.ErrAssetNotFound
	}
	return url, nil
}

// fakeFetcher serves local files by URL.
type fakeFetcher struct {
	files map[string]string // url -> local source path
	calls []string
	err   error
}

func (f *fakeFetcher) DownloadFile(ctx context.Context, url, dest string) error {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return f.err
	}
	src, ok := f.files[url]
	if !ok {
		return fmt.Errorf("404 for %s", url)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// lazyExtractor lists every entry but only extracts the ones not in skip.
type lazyExtractor struct {
	real *archive.Extractor
	skip string
}

func (l lazyExtractor) ListEntries(path string) ([]string, error) {
	return l.real.ListEntries(path)
}

func (l lazyExtractor) Extract(path, dest string) error {
	if err := l.real.Extract(path, dest); err != nil {
		return err
	}
	return os.Remove(filepath.Join(dest, filepath.FromSlash(l.skip)))
}

type failingExtractor struct{}

func (failingExtractor) ListEntries(path string) ([]string, error) {
	return []string{"dwmapi.dll"}, nil
}

func (failingExtractor) Extract(path, dest string) error {
	return errors.New("corrupt archive")
}

var ue4ssFiles = []string{
	"dwmapi.dll",
	"ue4ss/UE4SS.dll",
	"ue4ss/UE4SS-settings.ini",
	"ue4ss/Mods/mods.txt",
}

func writeZip(t *testing.T, path string, names ...string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		fmt.Fprintf(fw, "content of %s", name)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fixture is a fake game installation plus an Installer wired to fakes.
type fixture struct {
	root     string
	exeDir   string
	tempDir  string
	store    *memStore
	notifier *recordingNotifier
	fetcher  *fakeFetcher
	in       *Installer
	game     *db.Game
}

const (
	testTag   = "v3.0.1"
	testAsset = "UE4SS_v3.0.1.zip"
	testURL   = "https://example.test/UE4SS_v3.0.1.zip"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "MyGame")
	exeDir := filepath.Join(root, "MyGame", "Binaries", "Win64")
	writeFile(t, filepath.Join(exeDir, "MyGame-Win64-Shipping.exe"))
	writeFile(t, filepath.Join(root, "Engine", "Binaries", "Win64", "CrashReportClient.exe"))

	src := filepath.Join(base, "release.zip")
	writeZip(t, src, ue4ssFiles...)

	store := newMemStore()
	notifier := &recordingNotifier{}
	fetcher := &fakeFetcher{files: map[string]string{testURL: src}}
	engine := NewEngine(store, notifier, zap.NewNop().Sugar())

	f := &fixture{
		root:     root,
		exeDir:   exeDir,
		tempDir:  filepath.Join(base, "temp"),
		store:    store,
		notifier: notifier,
		fetcher:  fetcher,
		game:     &db.Game{InstallDir: root, UE4SSVersion: testTag, LastInstalledVersion: testAsset, InstalledFiles: []string{}},
	}
	f.in = &Installer{
		Engine:   engine,
		Index:    &fakeIndex{urls: map[string]string{testTag + "/" + testAsset: testURL}},
		Fetcher:  fetcher,
		Archives: archive.New(),
		TempDir:  f.tempDir,
	}
	return f
}

func (f *fixture) exe(rel string) string {
	return filepath.Join(f.exeDir, filepath.FromSlash(rel))
}
