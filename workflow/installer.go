package workflow

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ue4ss-installer/db"
	"ue4ss-installer/game"
)

// Step labels shown to the user.
const (
	LabelLocate    = "Locating executable directory"
	LabelUninstall = "Uninstalling old UE4SS files"
	LabelDownload  = "Downloading UE4SS"
	LabelInstall   = "Installing UE4SS"
	LabelCleanup   = "Cleaning up temporary files"
)

var (
	ErrNoAssetSelected = errors.New("no UE4SS version or file selected")
	ErrArchiveMissing  = errors.New("archive does not exist")
)

// Installer builds and runs the four workflows on top of an Engine.
type Installer struct {
	Engine   *Engine
	Index    ReleaseIndex
	Fetcher  Downloader
	Archives Extractor
	TempDir  string // Scratch directory for downloads, removed by cleanup
}

// run holds the state steps of one workflow share.
type run struct {
	in          *Installer
	log         *zap.SugaredLogger
	exeDir      string
	archivePath string
}

func (in *Installer) newRun() *run {
	log := in.Engine.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &run{in: in, log: log}
}

// Install uninstalls whatever the manifest lists, downloads the selected
// asset of the selected tag and unpacks it into the exe dir.
func (in *Installer) Install(ctx context.Context, g *db.Game) Outcome {
	return in.Engine.Run(ctx, in.InstallWorkflow(OpInstall), g)
}

// Reinstall runs the same steps as Install.
func (in *Installer) Reinstall(ctx context.Context, g *db.Game) Outcome {
	return in.Engine.Run(ctx, in.InstallWorkflow(OpReinstall), g)
}

// InstallFromArchive installs a user supplied archive. The record's tag and
// asset are cleared first since they no longer describe what is installed.
func (in *Installer) InstallFromArchive(ctx context.Context, g *db.Game, archivePath string) Outcome {
	g.UE4SSVersion = ""
	g.LastInstalledVersion = ""
	return in.Engine.Run(ctx, in.ArchiveWorkflow(archivePath), g)
}

// Uninstall removes the files the manifest lists.
func (in *Installer) Uninstall(ctx context.Context, g *db.Game) Outcome {
	return in.Engine.Run(ctx, in.UninstallWorkflow(), g)
}

// InstallWorkflow returns the download based workflow reported as op.
func (in *Installer) InstallWorkflow(op Operation) Workflow {
	r := in.newRun()
	return Workflow{
		Op: op,
		Steps: []Step{
			{Label: LabelLocate, Run: r.locateForDownload},
			{Label: LabelUninstall, Run: r.uninstallOld},
			{Label: LabelDownload, Run: r.download},
			{Label: LabelInstall, Run: r.install},
			{Label: LabelCleanup, Run: r.cleanup, Always: true},
		},
		Verify: r.verifyInstall,
	}
}

// ArchiveWorkflow returns the workflow installing from archivePath.
func (in *Installer) ArchiveWorkflow(archivePath string) Workflow {
	r := in.newRun()
	r.archivePath = archivePath
	return Workflow{
		Op: OpInstallArchive,
		Steps: []Step{
			{Label: LabelLocate, Run: r.locateForArchive},
			{Label: LabelUninstall, Run: r.uninstallOld},
			{Label: LabelInstall, Run: r.install},
			{Label: LabelCleanup, Run: r.cleanup, Always: true},
		},
		Verify: r.verifyInstall,
	}
}

// UninstallWorkflow returns the workflow that only uninstalls.
func (in *Installer) UninstallWorkflow() Workflow {
	r := in.newRun()
	return Workflow{
		Op:     OpUninstall,
		Steps:  []Step{{Label: LabelUninstall, Run: r.uninstall}},
		Verify: r.verifyUninstall,
	}
}

func (r *run) locate(g *db.Game) error {
	r.exeDir = game.ResolveExeDir(g.InstallDir)
	if r.exeDir == "" {
		return newError(MissingTarget, "locate", g.InstallDir, game.ErrNoExeDir)
	}
	r.log.Infow("Found executable directory", zap.String("dir", r.exeDir))
	return nil
}

func (r *run) locateForDownload(ctx context.Context, g *db.Game) error {
	if g.UE4SSVersion == "" || g.LastInstalledVersion == "" {
		return newError(DownloadFailure, "locate", "", ErrNoAssetSelected)
	}
	return r.locate(g)
}

func (r *run) locateForArchive(ctx context.Context, g *db.Game) error {
	if !isFile(r.archivePath) {
		return newError(MissingTarget, "locate", r.archivePath, ErrArchiveMissing)
	}
	return r.locate(g)
}

// removeInstalled deletes the manifest files, the auxiliary files and,
// unless mods and settings are kept, the ue4ss and Mods directories. Empty
// directories left behind are pruned. Deletions that are refused are
// collected and returned as a PermissionDenied error.
func (r *run) removeInstalled(g *db.Game) error {
	var denied []string
	remove := func(rel string, fn func(string) error) {
		full, ok := manifestPath(r.exeDir, rel)
		if !ok {
			r.log.Warnw("Skipping path outside the executable directory", zap.String("path", rel))
			return
		}
		if err := fn(full); err != nil {
			if errors.Is(err, fs.ErrPermission) {
				denied = append(denied, rel)
			}
			r.log.Warnw("Failed to delete", zap.String("path", full), zap.Error(err))
		}
	}

	for _, rel := range g.InstalledFiles {
		remove(rel, removeFile)
	}
	for _, rel := range auxiliaryFiles {
		remove(rel, removeFile)
	}
	if !g.UsingKeepModsAndSettings {
		for _, dir := range ue4ssDirs {
			remove(dir, removeDirTree)
		}
	}
	if err := pruneEmptyDirs(g.InstallDir); err != nil {
		r.log.Warnw("Failed to prune empty directories", zap.String("dir", g.InstallDir), zap.Error(err))
	}

	if len(denied) > 0 {
		return errorf(PermissionDenied, "uninstall", denied[0], "%d path(s) could not be deleted", len(denied))
	}
	return nil
}

func removeDirTree(path string) error {
	if !isDir(path) {
		return nil
	}
	return os.RemoveAll(path)
}

// checkUninstalled clears the manifest when nothing it lists, and none of
// the auxiliary files, is left on disk.
func (r *run) checkUninstalled(g *db.Game) error {
	left := leftoverFiles(r.exeDir, g.InstalledFiles)
	if len(left) > 0 {
		return errorf(IncompleteUninstall, "uninstall", r.exeDir, "%d file(s) still present, first %s", len(left), left[0])
	}
	g.ResetInstall()
	return nil
}

// uninstallOld is the uninstall step of the install workflows. It checks its
// own result since the workflow post-check looks at the new install.
func (r *run) uninstallOld(ctx context.Context, g *db.Game) error {
	if err := r.removeInstalled(g); err != nil {
		r.log.Warnw("Old files could not all be removed", zap.Error(err))
	}
	return r.checkUninstalled(g)
}

func (r *run) uninstall(ctx context.Context, g *db.Game) error {
	r.exeDir = game.ResolveExeDir(g.InstallDir)
	if r.exeDir == "" {
		if len(g.InstalledFiles) == 0 {
			r.log.Infow("Nothing to uninstall", zap.String("game", g.InstallDir))
			return nil
		}
		return newError(MissingTarget, "uninstall", g.InstallDir, game.ErrNoExeDir)
	}
	return r.removeInstalled(g)
}

func (r *run) verifyUninstall(ctx context.Context, g *db.Game) error {
	if r.exeDir == "" {
		return nil
	}
	return r.checkUninstalled(g)
}

func (r *run) download(ctx context.Context, g *db.Game) error {
	url, err := r.in.Index.ResolveDownloadURL(ctx, g.UE4SSVersion, g.LastInstalledVersion)
	if err != nil {
		return newError(DownloadFailure, "download", g.LastInstalledVersion, err)
	}
	if err := os.MkdirAll(r.in.TempDir, 0755); err != nil {
		return newError(DownloadFailure, "download", r.in.TempDir, err)
	}

	dest := filepath.Join(r.in.TempDir, "ue4ss"+strings.ToLower(filepath.Ext(g.LastInstalledVersion)))
	if err := r.in.Fetcher.DownloadFile(ctx, url, dest); err != nil {
		return newError(DownloadFailure, "download", url, err)
	}
	r.archivePath = dest
	return nil
}

// install unpacks the archive and records its file list as the manifest.
// The manifest is saved before anything is checked so a partial install can
// still be uninstalled.
func (r *run) install(ctx context.Context, g *db.Game) error {
	entries, err := r.in.Archives.ListEntries(r.archivePath)
	if err != nil {
		return newError(KindUnknown, "install", r.archivePath, err)
	}
	extractErr := r.in.Archives.Extract(r.archivePath, r.exeDir)

	g.InstalledFiles = entries
	if store := r.in.Engine.Store; store != nil {
		if err := store.SaveRecord(g); err != nil {
			r.log.Errorw("Failed to save manifest", zap.String("game", g.InstallDir), zap.Error(err))
		}
	}
	if extractErr != nil {
		return newError(KindUnknown, "install", r.archivePath, extractErr)
	}
	r.log.Infow("Installed files", zap.Int("count", len(entries)), zap.String("dir", r.exeDir))
	return nil
}

func (r *run) verifyInstall(ctx context.Context, g *db.Game) error {
	if r.exeDir == "" {
		return nil
	}
	missing := missingFiles(r.exeDir, g.InstalledFiles)
	if len(missing) > 0 {
		return errorf(IncompleteInstall, "install", r.exeDir, "%d file(s) missing, first %s", len(missing), missing[0])
	}
	return nil
}

func (r *run) cleanup(ctx context.Context, g *db.Game) error {
	if r.in.TempDir == "" || !isDir(r.in.TempDir) {
		return nil
	}
	if err := os.RemoveAll(r.in.TempDir); err != nil {
		// Leftover downloads never affect the install itself.
		r.log.Warnw("Failed to remove temporary files", zap.String("dir", r.in.TempDir), zap.Error(err))
	}
	return nil
}
