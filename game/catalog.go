package game

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed known_games.yaml
var knownGamesYAML []byte

// KnownGame maps a fragment of an install path to a display name.
type KnownGame struct {
	Match string `yaml:"match"`
	Name  string `yaml:"name"`
}

var (
	catalogOnce sync.Once
	catalog     []KnownGame
	catalogErr  error
)

// ParseCatalog decodes a known-games list.
func ParseCatalog(data []byte) ([]KnownGame, error) {
	var games []KnownGame
	if err := yaml.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("parse known games: %w", err)
	}
	for i, g := range games {
		if g.Match == "" || g.Name == "" {
			return nil, fmt.Errorf("known game %d needs both match and name", i)
		}
	}
	return games, nil
}

// Catalog returns the embedded known-games list.
func Catalog() ([]KnownGame, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = ParseCatalog(knownGamesYAML)
	})
	return catalog, catalogErr
}

// DisplayName picks the catalog name whose fragment appears in installDir,
// then title, then the directory's base name.
func DisplayName(installDir, title string) string {
	games, _ := Catalog()
	return displayNameFrom(games, installDir, title)
}

func displayNameFrom(games []KnownGame, installDir, title string) string {
	for _, g := range games {
		if strings.Contains(installDir, g.Match) {
			return g.Name
		}
	}
	if title != "" {
		return title
	}
	return filepath.Base(installDir)
}
