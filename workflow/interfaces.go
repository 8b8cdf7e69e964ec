package workflow

import (
	"context"

	"ue4ss-installer/archive"
	"ue4ss-installer/db"
	"ue4ss-installer/ue4ss"
)

// ReleaseIndex answers which tags and assets exist and where to fetch them.
// *ue4ss.Session implements it.
type ReleaseIndex interface {
	ReleaseTags(ctx context.Context, includePre bool) ([]string, error)
	AssetsForTag(ctx context.Context, tag string) ([]ue4ss.Asset, error)
	ResolveDownloadURL(ctx context.Context, tag, fileName string) (string, error)
}

// Downloader fetches a URL to a local file.
type Downloader interface {
	DownloadFile(ctx context.Context, url, dest string) error
}

// Extractor lists and unpacks archives.
type Extractor interface {
	ListEntries(archivePath string) ([]string, error)
	Extract(archivePath, dest string) error
}

// RecordStore loads and saves game records.
type RecordStore interface {
	LoadRecord(installDir string) (*db.Game, error)
	SaveRecord(g *db.Game) error
}

// RunRecorder is implemented by stores that keep install history.
type RunRecorder interface {
	RecordRun(run *db.InstallRun) error
}

var (
	_ RecordStore  = (*db.Store)(nil)
	_ RunRecorder  = (*db.Store)(nil)
	_ ReleaseIndex = (*ue4ss.Session)(nil)
	_ Downloader   = (*ue4ss.Client)(nil)
	_ Extractor    = (*archive.Extractor)(nil)
)
