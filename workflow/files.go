package workflow

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Files UE4SS writes at runtime, relative to the exe dir. They are never in
// the manifest but are removed on every uninstall.
var auxiliaryFiles = []string{
	"UE4SS.log",
	"ue4ss/UE4SS.log",
	"ue4ss/imgui.ini",
	"imgui.ini",
}

// Directories removed on uninstall unless mods and settings are kept.
var ue4ssDirs = []string{"ue4ss", "Mods"}

// manifestPath joins a manifest entry onto exeDir. It refuses entries that
// would resolve outside exeDir.
func manifestPath(exeDir, rel string) (string, bool) {
	rel = strings.ReplaceAll(rel, `\`, "/")
	if rel == "" || filepath.IsAbs(filepath.FromSlash(rel)) {
		return "", false
	}
	full := filepath.Join(exeDir, filepath.FromSlash(rel))
	inside, err := filepath.Rel(exeDir, full)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// removePath is os.Remove, replaceable in tests.
var removePath = os.Remove

// removeFile deletes path if it is a file. A missing file is not an error.
func removeFile(path string) error {
	if !isFile(path) {
		return nil
	}
	err := removePath(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// pruneEmptyDirs removes every empty directory below root, deepest first,
// so a directory emptied by removing its children is removed as well. root
// itself is kept.
func pruneEmptyDirs(root string) error {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		return depth(dirs[i]) > depth(dirs[j])
	})
	var errs []error
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(filepath.Clean(path)), "/")
}

// missingFiles returns the manifest entries that are not files under exeDir.
func missingFiles(exeDir string, manifest []string) []string {
	var missing []string
	for _, rel := range manifest {
		full, ok := manifestPath(exeDir, rel)
		if !ok || !isFile(full) {
			missing = append(missing, rel)
		}
	}
	return missing
}

// leftoverFiles returns the manifest and auxiliary files still present under
// exeDir.
func leftoverFiles(exeDir string, manifest []string) []string {
	var left []string
	for _, rel := range auxiliaryFiles {
		if full, _ := manifestPath(exeDir, rel); isFile(full) {
			left = append(left, rel)
		}
	}
	for _, rel := range manifest {
		full, ok := manifestPath(exeDir, rel)
		if ok && isFile(full) {
			left = append(left, rel)
		}
	}
	return left
}
