// Package storage keeps the canonical PNG of every accepted upload on disk.
//
// Files are named <stem>_<unix ms>.png after the client's filename and are
// never overwritten: a name that already exists gets a random suffix. A
// Retention job can sweep old files on a cron schedule.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Saved describes a persisted image.
type Saved struct {
	// Filename is the generated file name, e.g. "scan_1717171717171.png".
	Filename string

	// Path is the full path on disk.
	Path string

	// RelPath is the download directory name joined with Filename, using
	// forward slashes ("downloads/scan_1717171717171.png").
	RelPath string

	// Size is the number of bytes written.
	Size int
}

// Store writes images into one directory.
type Store struct {
	dir string
	now func() time.Time
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Save writes png under a name derived from originalName.
func (s *Store) Save(originalName string, png []byte) (*Saved, error) {
	base := fmt.Sprintf("%s_%d", SafeStem(originalName), s.now().UnixMilli())

	name := base + ".png"
	f, err := s.create(name)
	if errors.Is(err, fs.ErrExist) {
		name = fmt.Sprintf("%s_%s.png", base, uuid.NewString()[:8])
		f, err = s.create(name)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	path := f.Name()
	n, err := f.Write(png)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	return &Saved{
		Filename: name,
		Path:     path,
		RelPath:  filepath.ToSlash(filepath.Join(filepath.Base(s.dir), name)),
		Size:     n,
	}, nil
}

func (s *Store) create(name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}

// Sweep removes saved PNGs last modified more than maxAge ago and returns how
// many were removed. Other files are left alone.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read download dir: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeStem reduces a client-supplied filename to a stem safe for the local
// filesystem: directory parts and the last extension are dropped, runs of
// other characters become "_". An empty name becomes "upload".
func SafeStem(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if ext := filepath.Ext(name); len(ext) > 1 && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if stem := unsafeChars.ReplaceAllString(name, "_"); stem != "" {
		return stem
	}
	return "upload"
}
