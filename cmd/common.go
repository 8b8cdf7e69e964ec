package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ue4ss-installer/archive"
	"ue4ss-installer/config"
	"ue4ss-installer/db"
	"ue4ss-installer/logger"
	"ue4ss-installer/ue4ss"
	"ue4ss-installer/workflow"
)

// onlineCheckTimeout bounds the reachability probe made on startup.
const onlineCheckTimeout = 5 * time.Second

// app bundles the collaborators every command works with.
type app struct {
	cfg       config.Config
	database  *gorm.DB
	store     *db.Store
	client    *ue4ss.Client
	session   *ue4ss.Session
	installer *workflow.Installer
	log       *zap.SugaredLogger
}

// bootstrap handles shared initialization logic for commands.
func bootstrap(cfg config.Config, notifier workflow.Notifier) (*app, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	logger.Log.Infow("Database initialized", zap.String("path", cfg.DatabasePath))

	client, err := ue4ss.NewClient(cfg, logger.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create release client: %w", err)
	}

	store := db.NewStore(database)
	session := ue4ss.NewSession(client)
	engine := workflow.NewEngine(store, notifier, logger.Log)

	return &app{
		cfg:      cfg,
		database: database,
		store:    store,
		client:   client,
		session:  session,
		installer: &workflow.Installer{
			Engine:   engine,
			Index:    session,
			Fetcher:  client,
			Archives: archive.New(),
			TempDir:  cfg.TempDir,
		},
		log: logger.Log,
	}, nil
}

// Close releases the database handle.
func (a *app) Close() {
	if sqlDB, err := a.database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// checkOnline probes GitHub once and logs the result.
func (a *app) checkOnline(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, onlineCheckTimeout)
	defer cancel()
	online := a.session.CheckOnline(ctx)
	if !online {
		a.log.Warnw("GitHub is not reachable, only uninstall and archive installs are available")
	}
	return online
}

// loadGame returns the tracked record for dir with a hint when it is unknown.
func (a *app) loadGame(dir string) (*db.Game, error) {
	g, err := a.store.LoadRecord(dir)
	if errors.Is(err, db.ErrGameNotFound) {
		return nil, fmt.Errorf("%w (add it with 'games add %s')", err, dir)
	}
	return g, err
}

// selectDefaults fills in the tag and asset a game would be offered when the
// user has not picked them yet.
func (a *app) selectDefaults(ctx context.Context, g *db.Game) error {
	tags, err := a.session.ReleaseTags(ctx, g.ShowPreReleases)
	if err != nil {
		return err
	}
	_, tag := ue4ss.FilterTags(tags, "", g.UE4SSVersion)
	if tag == "" {
		return fmt.Errorf("no releases with downloadable files found in %s", a.cfg.ReleasesRepo)
	}
	if tag != g.UE4SSVersion {
		if g.UE4SSVersion != "" {
			a.log.Warnw("Selected release is not available, using the newest one",
				zap.String("requested", g.UE4SSVersion),
				zap.String("using", tag),
			)
		}
		g.UE4SSVersion = tag
	}

	assets, err := a.session.AssetsForTag(ctx, tag)
	if err != nil {
		return err
	}
	selection := ue4ss.FilterAssets(assets, assetFilterFor(g, ""))
	if selection.Default == "" {
		return fmt.Errorf("no suitable file found in release %s", tag)
	}
	g.LastInstalledVersion = selection.Default
	return nil
}

// errTagUnavailable means a requested tag is not among the offered releases.
var errTagUnavailable = errors.New("release tag not available")

// checkTag fails when g's tag is not offered with its pre-release setting.
func (a *app) checkTag(ctx context.Context, g *db.Game) error {
	tags, err := a.session.ReleaseTags(ctx, g.ShowPreReleases)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if tag == g.UE4SSVersion {
			return nil
		}
	}
	hint := "releases"
	if !g.ShowPreReleases {
		hint = "releases --pre"
	}
	return fmt.Errorf("%w: %s (see '%s')", errTagUnavailable, g.UE4SSVersion, hint)
}

func assetFilterFor(g *db.Game, filter string) ue4ss.AssetFilter {
	return ue4ss.AssetFilter{
		Developer:     g.UsingDeveloperVersion,
		Portable:      g.UsingPortableVersion,
		Filter:        filter,
		LastInstalled: g.LastInstalledVersion,
	}
}

// requireAllowed refuses operations the game is not offered in its state.
func requireAllowed(op workflow.Operation, online bool, g *db.Game) error {
	if workflow.Allowed(op, online, g.IsInstalled()) {
		return nil
	}
	switch {
	case !online && (op == workflow.OpInstall || op == workflow.OpReinstall):
		return fmt.Errorf("%s needs GitHub, which is not reachable; use install-archive instead", op)
	case g.IsInstalled():
		return fmt.Errorf("UE4SS is already installed in %s; use reinstall or uninstall", g.InstallDir)
	default:
		return fmt.Errorf("UE4SS is not installed in %s", g.InstallDir)
	}
}

// outcomeError turns a failed outcome into the command's error.
func outcomeError(out workflow.Outcome) error {
	if out.Succeeded {
		return nil
	}
	return fmt.Errorf("%s failed: %w", out.Op, out.Err)
}
