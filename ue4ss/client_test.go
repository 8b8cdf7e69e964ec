package ue4ss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"ue4ss-installer/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Config{
		ReleasesRepo:       "owner/repo",
		UserAgent:          "test-agent",
		HTTPTimeoutSeconds: 5,
	}
	c, err := NewClient(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if err := c.SetBaseURL(server.URL); err != nil {
		t.Fatalf("SetBaseURL failed: %v", err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(config.Config{ReleasesRepo: "bad", UserAgent: "x"}, nil); err == nil {
		t.Error("Expected error for malformed repo")
	}
	if _, err := NewClient(config.Config{ReleasesRepo: "a/b"}, nil); err == nil {
		t.Error("Expected error for missing user agent")
	}
	c, err := NewClient(config.Config{ReleasesRepo: "a/b", UserAgent: "x", GitHubToken: "secret", HTTPTimeoutSeconds: 3}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Owner != "a" || c.Repo != "b" {
		t.Errorf("Owner/Repo = %s/%s", c.Owner, c.Repo)
	}
	if c.HTTPClient.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", c.HTTPClient.Timeout)
	}
}

func TestFetchReleasesPaginates(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/releases", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"tag_name":"v2.5.2","prerelease":false,"assets":[]}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/releases?page=2>; rel="next"`, serverURL))
		fmt.Fprint(w, `[
			{"tag_name":"experimental-latest","prerelease":true,"assets":[
				{"name":"UE4SS_v3.0.1-2.zip","created_at":"2024-05-01T10:00:00Z","browser_download_url":"https://example.test/a.zip","size":2048}
			]},
			{"tag_name":"v9.9.9","draft":true,"assets":[]},
			{"tag_name":"v3.0.1","prerelease":false,"assets":[
				{"name":"UE4SS_v3.0.1.zip","created_at":"2024-03-01T10:00:00Z","browser_download_url":"https://example.test/b.zip","size":1024}
			]}
		]`)
	})
	c := newTestClient(t, mux)
	serverURL = c.GitHub.BaseURL.String()
	serverURL = serverURL[:len(serverURL)-1]

	releases, err := c.FetchReleases(context.Background())
	if err != nil {
		t.Fatalf("FetchReleases failed: %v", err)
	}

	var tags []string
	for _, r := range releases {
		tags = append(tags, r.Tag)
	}
	if diff := cmp.Diff([]string{"experimental-latest", "v3.0.1", "v2.5.2"}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	want := Asset{
		FileName:    "UE4SS_v3.0.1-2.zip",
		CreatedAt:   time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC),
		DownloadURL: "https://example.test/a.zip",
		Size:        2048,
	}
	if diff := cmp.Diff(want, releases[0].Assets[0]); diff != "" {
		t.Errorf("asset mismatch (-want +got):\n%s", diff)
	}
	if !releases[0].Prerelease {
		t.Error("Expected first release to be a pre-release")
	}
}

func TestFetchReleasesError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))
	if _, err := c.FetchReleases(context.Background()); err == nil {
		t.Error("Expected error from failing API")
	}
}

func TestCheckOnline(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate_limit" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"resources":{"core":{"limit":60,"remaining":59,"reset":0}}}`)
	}))
	if err := c.CheckOnline(context.Background()); err != nil {
		t.Errorf("CheckOnline failed: %v", err)
	}
}

func TestDownloadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.zip":
			fmt.Fprint(w, "archive-bytes")
		default:
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	defer server.Close()

	c, err := NewClient(config.Config{ReleasesRepo: "a/b", UserAgent: "x", HTTPTimeoutSeconds: 5}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "temp")

	t.Run("success", func(t *testing.T) {
		dest := filepath.Join(dir, "ue4ss.zip")
		if err := c.DownloadFile(context.Background(), server.URL+"/ok.zip", dest); err != nil {
			t.Fatalf("DownloadFile failed: %v", err)
		}
		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("Failed to read download: %v", err)
		}
		if string(data) != "archive-bytes" {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("http error leaves no file", func(t *testing.T) {
		dest := filepath.Join(dir, "missing.zip")
		if err := c.DownloadFile(context.Background(), server.URL+"/missing.zip", dest); err == nil {
			t.Fatal("Expected error for 404")
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("Destination should not exist after failed download")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := c.DownloadFile(ctx, server.URL+"/ok.zip", filepath.Join(dir, "c.zip")); err == nil {
			t.Error("Expected error for cancelled context")
		}
	})
}
