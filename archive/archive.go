// Package archive lists and unpacks the zip, 7z and rar payloads UE4SS is
// distributed in.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrUnsafePath        = errors.New("archive entry escapes the destination")
)

// Extractor handles archives by file extension.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supported reports whether archivePath has an extension Extractor reads.
func Supported(archivePath string) bool {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip", ".7z", ".rar":
		return true
	}
	return false
}

type entry struct {
	name  string
	isDir bool
	mode  fs.FileMode
	open  func() (io.ReadCloser, error)
}

// walk calls fn for every entry in order. Names are cleaned, slash separated
// and checked against path traversal before fn sees them.
func walk(archivePath string, fn func(entry) error) error {
	var err error
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		err = walkZip(archivePath, fn)
	case ".7z":
		err = walkSevenZip(archivePath, fn)
	case ".rar":
		err = walkRar(archivePath, fn)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(archivePath))
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(archivePath), err)
	}
	return nil
}

func walkZip(archivePath string, fn func(entry) error) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name, err := cleanEntryName(f.Name)
		if err != nil {
			return err
		}
		if name == "" {
			continue
		}
		if err := fn(entry{name: name, isDir: f.FileInfo().IsDir(), mode: f.Mode(), open: f.Open}); err != nil {
			return err
		}
	}
	return nil
}

func walkSevenZip(archivePath string, fn func(entry) error) error {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name, err := cleanEntryName(f.Name)
		if err != nil {
			return err
		}
		if name == "" {
			continue
		}
		info := f.FileInfo()
		if err := fn(entry{name: name, isDir: info.IsDir(), mode: info.Mode(), open: f.Open}); err != nil {
			return err
		}
	}
	return nil
}

func walkRar(archivePath string, fn func(entry) error) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	r, err := rardecode.NewReader(file)
	if err != nil {
		return err
	}
	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		name, err := cleanEntryName(hdr.Name)
		if err != nil {
			return err
		}
		if name == "" {
			continue
		}
		// The rar stream is sequential, so the entry body is only readable
		// until the next call to Next.
		open := func() (io.ReadCloser, error) { return io.NopCloser(r), nil }
		if err := fn(entry{name: name, isDir: hdr.IsDir, mode: hdr.Mode(), open: open}); err != nil {
			return err
		}
	}
}

// cleanEntryName normalises an archive entry name to a relative slash path.
// It returns "" for entries that name the archive root.
func cleanEntryName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if path.IsAbs(name) || filepath.VolumeName(name) != "" || strings.Contains(name, ":") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	clean := path.Clean(name)
	if clean == "." {
		return "", nil
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return clean, nil
}

// ListEntries returns the relative paths of every file in the archive, in
// archive order. Directory entries are left out.
func (x *Extractor) ListEntries(archivePath string) ([]string, error) {
	files := []string{}
	err := walk(archivePath, func(e entry) error {
		if !e.isDir {
			files = append(files, e.name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Extract unpacks the archive into dest, overwriting existing files.
func (x *Extractor) Extract(archivePath, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	return walk(archivePath, func(e entry) error {
		target := filepath.Join(dest, filepath.FromSlash(e.name))
		if e.isDir {
			return os.MkdirAll(target, 0755)
		}
		return writeEntry(target, e)
	})
}

func writeEntry(target string, e entry) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	src, err := e.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", e.name, err)
	}
	defer src.Close()

	perm := e.mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", e.name, err)
	}
	return out.Close()
}
