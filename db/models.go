package db

import (
	"time"

	"gorm.io/gorm"
)

// Game is the tracked state of one game installation.
type Game struct {
	gorm.Model
	InstallDir               string   `gorm:"uniqueIndex;not null"` // Game root folder, never changes once created
	GameTitle                string   // Fallback display name
	UE4SSVersion             string   // Selected release tag
	LastInstalledVersion     string   // Asset file name last chosen for install
	UsingDeveloperVersion    bool     // Mutually exclusive with UsingPortableVersion
	UsingPortableVersion     bool     // Mutually exclusive with UsingDeveloperVersion
	UsingKeepModsAndSettings bool     // Keep ue4ss/ and Mods/ on uninstall
	ShowPreReleases          bool     // Offer pre-release tags
	InstalledFiles           []string `gorm:"serializer:json"` // Paths relative to the exe dir written by the last install
}

// IsInstalled reports whether the last install left a manifest behind.
func (g *Game) IsInstalled() bool {
	return len(g.InstalledFiles) > 0
}

// SetDeveloperVersion toggles the developer build. Turning it on turns the
// portable build off.
func (g *Game) SetDeveloperVersion(on bool) {
	g.UsingDeveloperVersion = on
	if on {
		g.UsingPortableVersion = false
	}
}

// SetPortableVersion toggles the portable build. Turning it on turns the
// developer build off.
func (g *Game) SetPortableVersion(on bool) {
	g.UsingPortableVersion = on
	if on {
		g.UsingDeveloperVersion = false
	}
}

// ResetInstall marks the game as not installed.
func (g *Game) ResetInstall() {
	g.InstalledFiles = []string{}
}

// InstallRun records the outcome of one install/uninstall workflow
type InstallRun struct {
	gorm.Model
	RunID        string `gorm:"uniqueIndex"`
	InstallDir   string `gorm:"index"` // References Game.InstallDir
	Operation    string // install, reinstall, install-archive, uninstall
	UE4SSVersion string
	AssetName    string
	Succeeded    bool
	FailedStep   string
	Error        string
	FileCount    int // Manifest size after the run
	StartedAt    time.Time
	FinishedAt   time.Time
}
