package ue4ss

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrTagNotFound   = errors.New("release tag not found")
	ErrAssetNotFound = errors.New("release asset not found")
)

// ReleaseSource is where a Session gets its data from. *Client implements it.
type ReleaseSource interface {
	FetchReleases(ctx context.Context) ([]Release, error)
	CheckOnline(ctx context.Context) error
}

// Session caches the release list and the online state for the lifetime of
// the process. It is safe for concurrent use.
type Session struct {
	src ReleaseSource

	mu       sync.Mutex
	releases []Release
	fetched  bool
	online   bool
}

func NewSession(src ReleaseSource) *Session {
	return &Session{src: src}
}

// CheckOnline probes the release source and remembers the result.
func (s *Session) CheckOnline(ctx context.Context) bool {
	err := s.src.CheckOnline(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = err == nil
	return s.online
}

// Online returns the result of the last CheckOnline.
func (s *Session) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Releases returns the cached release list, fetching it on first use.
func (s *Session) Releases(ctx context.Context) ([]Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetched {
		return s.releases, nil
	}
	releases, err := s.src.FetchReleases(ctx)
	if err != nil {
		return nil, err
	}
	s.releases = releases
	s.fetched = true
	s.online = true
	return releases, nil
}

// Invalidate drops the cached release list.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases = nil
	s.fetched = false
}

// ReleaseTags lists the tags that have at least one asset, ordered by
// SortTags. Pre-releases are included only when includePre is set.
func (s *Session) ReleaseTags(ctx context.Context, includePre bool) ([]string, error) {
	releases, err := s.Releases(ctx)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, r := range releases {
		if len(r.Assets) == 0 || (r.Prerelease && !includePre) {
			continue
		}
		tags = append(tags, r.Tag)
	}
	return SortTags(tags), nil
}

// AssetsForTag returns the assets of one release.
func (s *Session) AssetsForTag(ctx context.Context, tag string) ([]Asset, error) {
	releases, err := s.Releases(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		if r.Tag == tag {
			return r.Assets, nil
		}
	}
	return nil, errors.Wrapf(ErrTagNotFound, "tag %q", tag)
}

// ResolveDownloadURL finds the download URL of fileName within tag.
func (s *Session) ResolveDownloadURL(ctx context.Context, tag, fileName string) (string, error) {
	assets, err := s.AssetsForTag(ctx, tag)
	if err != nil {
		return "", err
	}
	for _, a := range assets {
		if a.FileName == fileName {
			return a.DownloadURL, nil
		}
	}
	return "", errors.Wrapf(ErrAssetNotFound, "%q in tag %q", fileName, tag)
}
