// Package game locates the directories inside an Unreal Engine game
// installation that UE4SS cares about.
package game

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ExeDirNames are the platform binary folders UE4SS is installed next to.
var ExeDirNames = []string{"Win64", "WinGDK"}

var (
	ErrNoExeDir     = errors.New("no Win64 or WinGDK directory found")
	ErrNoContentDir = errors.New("no Content directory found")
)

// ResolveExeDir returns the first Win64 or WinGDK directory under installRoot,
// ignoring everything below installRoot/Engine. It returns "" when there is
// none.
//
// Directories are visited in lexical order, so with several candidates the
// result is stable for a given tree but depends on naming, not on which
// binary the game actually launches.
func ResolveExeDir(installRoot string) string {
	if installRoot == "" {
		return ""
	}
	root := filepath.Clean(installRoot)
	walkRoot := root
	// WalkDir does not descend into a root that is itself a symlink.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		walkRoot = resolved
	}
	engineDir := filepath.Join(walkRoot, "Engine")

	var found string
	_ = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil || path == walkRoot {
				return err
			}
			// Unreadable subtrees cannot hold the target.
			return nil
		}
		if !d.IsDir() || path == walkRoot {
			return nil
		}
		if path == engineDir {
			return filepath.SkipDir
		}
		if isExeDirName(d.Name()) {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if found != "" && walkRoot != root {
		// Report the match under the path the caller knows the game by.
		if rel, err := filepath.Rel(walkRoot, found); err == nil {
			found = filepath.Join(root, rel)
		}
	}
	return found
}

func isExeDirName(name string) bool {
	for _, candidate := range ExeDirNames {
		if name == candidate {
			return true
		}
	}
	return false
}

// PaksDir returns <game>/Content/Paks for the game owning the exe dir, or
// <game>/Content when there is no Paks folder yet.
func PaksDir(installRoot string) (string, error) {
	exeDir := ResolveExeDir(installRoot)
	if exeDir == "" {
		return "", ErrNoExeDir
	}
	// <game>/Binaries/Win64 -> <game>
	gameDir := filepath.Dir(filepath.Dir(exeDir))
	contentDir := filepath.Join(gameDir, "Content")
	paksDir := filepath.Join(contentDir, "Paks")

	if isDir(paksDir) {
		return paksDir, nil
	}
	if isDir(contentDir) {
		return contentDir, nil
	}
	return "", ErrNoContentDir
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
