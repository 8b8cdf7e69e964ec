// Package ue4ss talks to the GitHub repository UE4SS is released from and
// decides which tags and assets a game is offered.
package ue4ss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	ghApi "github.com/google/go-github/v32/github"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"ue4ss-installer/config"
)

// Asset is one downloadable file attached to a release.
type Asset struct {
	FileName    string
	CreatedAt   time.Time
	DownloadURL string
	Size        int64
}

// Release is a published tag and its assets.
type Release struct {
	Tag         string
	Prerelease  bool
	PublishedAt time.Time
	Assets      []Asset
}

// Client handles communication with the GitHub releases API and asset downloads.
type Client struct {
	Owner      string
	Repo       string
	UserAgent  string
	GitHub     *ghApi.Client
	HTTPClient *http.Client

	log *zap.SugaredLogger
}

// NewClient creates a release client using the provided configuration. When
// GITHUB_TOKEN is set, API calls are authenticated for the higher rate limit.
func NewClient(cfg config.Config, log *zap.SugaredLogger) (*Client, error) {
	owner, repo, err := cfg.RepoOwnerName()
	if err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("USERAGENT is not configured")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	apiClient := &http.Client{Timeout: timeout}
	if cfg.GitHubToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
		apiClient = oauth2.NewClient(context.Background(), ts)
		apiClient.Timeout = timeout
	}
	gh := ghApi.NewClient(apiClient)
	gh.UserAgent = cfg.UserAgent

	return &Client{
		Owner:      owner,
		Repo:       repo,
		UserAgent:  cfg.UserAgent,
		GitHub:     gh,
		HTTPClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// SetBaseURL points the API client at another GitHub compatible endpoint.
func (c *Client) SetBaseURL(rawURL string) error {
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrapf(err, "invalid base url %q", rawURL)
	}
	c.GitHub.BaseURL = u
	return nil
}

// FetchReleases lists every published release, newest first as GitHub
// returns them. Drafts are skipped.
func (c *Client) FetchReleases(ctx context.Context) ([]Release, error) {
	var releases []Release
	opt := &ghApi.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.GitHub.Repositories.ListReleases(ctx, c.Owner, c.Repo, opt)
		if err != nil {
			return nil, errors.Wrapf(err, "could not list releases of %s/%s", c.Owner, c.Repo)
		}
		for _, r := range page {
			if r.GetDraft() {
				continue
			}
			releases = append(releases, convertRelease(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	c.log.Infow("Fetched releases", zap.String("repo", c.Owner+"/"+c.Repo), zap.Int("count", len(releases)))
	return releases, nil
}

func convertRelease(r *ghApi.RepositoryRelease) Release {
	release := Release{
		Tag:         r.GetTagName(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: r.GetPublishedAt().Time,
	}
	for _, a := range r.Assets {
		release.Assets = append(release.Assets, Asset{
			FileName:    a.GetName(),
			CreatedAt:   a.GetCreatedAt().Time,
			DownloadURL: a.GetBrowserDownloadURL(),
			Size:        int64(a.GetSize()),
		})
	}
	return release
}

// CheckOnline makes a cheap authenticated-or-not call to see whether the API
// is reachable.
func (c *Client) CheckOnline(ctx context.Context) error {
	_, _, err := c.GitHub.RateLimits(ctx)
	if err != nil {
		return errors.Wrap(err, "github is not reachable")
	}
	return nil
}

// DownloadFile fetches downloadURL into destinationPath. A partially written
// file is removed on failure.
func (c *Client) DownloadFile(ctx context.Context, downloadURL, destinationPath string) error {
	dir := filepath.Dir(destinationPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create target directory '%s'", dir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to start download of %s", downloadURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("download failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	outFile, err := os.Create(destinationPath)
	if err != nil {
		return errors.Wrapf(err, "failed to create file '%s'", destinationPath)
	}
	written, err := io.Copy(outFile, resp.Body)
	if closeErr := outFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destinationPath)
		return errors.Wrapf(err, "failed to write downloaded content to '%s'", destinationPath)
	}

	c.log.Infow("Downloaded file",
		zap.String("file", filepath.Base(destinationPath)),
		zap.String("size", humanize.Bytes(uint64(written))),
	)
	return nil
}
