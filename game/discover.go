package game

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

// DetectedGame is an installed game whose exe dir could be resolved.
type DetectedGame struct {
	Name        string
	InstallPath string
	ExeDir      string
}

var vdfPathPattern = regexp.MustCompile(`"path"\s+"((?:[^"\\]|\\.)*)"`)

// FindSteamRoots returns existing Steam installation roots in search order.
// override, when set, is searched first.
func FindSteamRoots(override string) []string {
	var candidates []string
	if override != "" {
		candidates = append(candidates, override)
	}
	if runtime.GOOS == "windows" {
		for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
			if base := os.Getenv(env); base != "" {
				candidates = append(candidates, filepath.Join(base, "Steam"))
			}
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", "data", "Steam"),
		)
	}

	var out []string
	seen := map[string]bool{}
	for _, p := range candidates {
		resolved, err := filepath.EvalSymlinks(p)
		if err != nil || !isDir(resolved) || seen[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, p)
	}
	return out
}

// LibraryPaths lists the Steam library folders declared in
// steamapps/libraryfolders.vdf, falling back to the root itself.
func LibraryPaths(steamRoot string) []string {
	data, err := os.ReadFile(filepath.Join(steamRoot, "steamapps", "libraryfolders.vdf"))
	if err != nil {
		return []string{steamRoot}
	}
	paths := parseLibraryFolders(string(data))
	if len(paths) == 0 {
		return []string{steamRoot}
	}
	return paths
}

func parseLibraryFolders(vdf string) []string {
	var paths []string
	seen := map[string]bool{}
	for _, m := range vdfPathPattern.FindAllStringSubmatch(vdf, -1) {
		p := strings.ReplaceAll(m[1], `\\`, `\`)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// Discover scans steamapps/common of every library for Unreal games with a
// resolvable exe dir.
func Discover(steamRoots []string) []DetectedGame {
	var found []DetectedGame
	seen := map[string]bool{}

	for _, root := range steamRoots {
		for _, lib := range LibraryPaths(root) {
			common := filepath.Join(lib, "steamapps", "common")
			entries, err := os.ReadDir(common)
			if err != nil {
				continue
			}
			for _, e := range entries {
				installPath := filepath.Join(common, e.Name())
				if !e.IsDir() && !(e.Type()&fs.ModeSymlink != 0 && isDir(installPath)) {
					continue
				}
				if seen[installPath] {
					continue
				}
				exeDir := ResolveExeDir(installPath)
				if exeDir == "" {
					continue
				}
				seen[installPath] = true
				found = append(found, DetectedGame{
					Name:        DisplayName(installPath, e.Name()),
					InstallPath: installPath,
					ExeDir:      exeDir,
				})
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return strings.ToLower(found[i].Name) < strings.ToLower(found[j].Name)
	})
	return found
}
