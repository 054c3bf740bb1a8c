// Package repo implements the persistence layer for submissions and their
// attachments, backed by plain directories on the local filesystem.
//
// Every file is written through a staging handle: bytes go to a hidden
// staging directory inside the area, are fsynced, and are then published
// under their final name with a no-clobber hard link. A reader listing or
// opening the area therefore never observes a partially written file, and two
// writers can never overwrite each other.
//
// Error semantics:
//   - Missing files and names that are not plain basenames yield ErrNotFound.
//   - ENOSPC/EDQUOT from the filesystem become *domain.InsufficientStorageError.
//   - Anything else is wrapped with the area label and propagated.
package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/sysutil"
)

const (
	stagingDir = ".staging"
	// maxPublishAttempts bounds name regeneration after collisions.
	maxPublishAttempts = 8
)

// ErrNotFound is returned when a requested file does not exist in an area.
var ErrNotFound = errors.New("not found")

// errNameTaken signals that the final name already exists; callers retry
// with a fresh name.
var errNameTaken = errors.New("name already taken")

// Area is one storage directory (upload area or submission area).
type Area struct {
	// Name labels the area in logs and errors ("uploads", "submissions").
	Name string
	// Dir is the absolute directory path.
	Dir string
}

// OpenArea creates (if needed) the directory and its staging subdirectory
// and returns a handle.
func OpenArea(name, dir string) (*Area, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%s: empty directory", name)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve %q: %w", name, dir, err)
	}
	if err := os.MkdirAll(filepath.Join(abs, stagingDir), 0o750); err != nil {
		return nil, fmt.Errorf("%s: create area: %w", name, err)
	}
	return &Area{Name: name, Dir: abs}, nil
}

// SweepStaging removes staging leftovers older than maxAge (for example from
// a crash between write and publish) and returns how many were removed.
func (a *Area) SweepStaging(maxAge time.Duration) (int, error) {
	dir := filepath.Join(a.Dir, stagingDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("%s: read staging: %w", a.Name, err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Resolve maps a basename to its absolute path inside the area. Names with
// directory components, hidden names, and missing files yield ErrNotFound.
func (a *Area) Resolve(name string) (string, error) {
	if !validName(name) {
		return "", ErrNotFound
	}
	p := filepath.Join(a.Dir, name)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%s: stat %q: %w", a.Name, name, err)
	}
	if !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return p, nil
}

// List returns the published file names in lexical order.
func (a *Area) List() ([]string, error) {
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		return nil, fmt.Errorf("%s: list: %w", a.Name, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !validName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Remove deletes a published file. Missing files are not an error.
func (a *Area) Remove(name string) error {
	if !validName(name) {
		return ErrNotFound
	}
	if err := os.Remove(filepath.Join(a.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: remove %q: %w", a.Name, name, err)
	}
	return nil
}

// Stage acquires a staging handle. The caller must defer Discard.
func (a *Area) Stage() (*Staging, error) {
	f, err := os.CreateTemp(filepath.Join(a.Dir, stagingDir), "stage-*")
	if err != nil {
		return nil, a.classify("create staging file", err)
	}
	return &Staging{area: a, f: f, path: f.Name()}, nil
}

// classify turns filesystem errors into domain errors where one applies.
func (a *Area) classify(op string, err error) error {
	if sysutil.IsNoSpace(err) {
		return &domain.InsufficientStorageError{Area: a.Name, Err: err}
	}
	return fmt.Errorf("%s: %s: %w", a.Name, op, err)
}

// Staging is a file being written that is not yet visible in its area.
type Staging struct {
	area      *Area
	f         *os.File
	path      string
	published bool
}

// Write implements io.Writer.
func (s *Staging) Write(p []byte) (int, error) {
	if s.f == nil {
		return 0, fmt.Errorf("%s: write after close", s.area.Name)
	}
	n, err := s.f.Write(p)
	if err != nil {
		return n, s.area.classify("write staging file", err)
	}
	return n, nil
}

// Publish flushes the staged bytes to stable storage and makes them visible
// under name. It returns errNameTaken if name already exists, in which case
// Publish may be called again with another name.
func (s *Staging) Publish(name string) error {
	if s.published {
		return fmt.Errorf("%s: staging already published", s.area.Name)
	}
	if !validName(name) {
		return fmt.Errorf("%s: invalid name %q", s.area.Name, name)
	}
	if s.f != nil {
		if err := s.f.Sync(); err != nil {
			return s.area.classify("sync staging file", err)
		}
		err := s.f.Close()
		s.f = nil
		if err != nil {
			return s.area.classify("close staging file", err)
		}
	}
	if err := os.Link(s.path, filepath.Join(s.area.Dir, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errNameTaken
		}
		return s.area.classify("publish", err)
	}
	s.published = true
	_ = os.Remove(s.path)
	syncDir(s.area.Dir)
	return nil
}

// Discard closes and removes the staging file. It is safe to call after a
// successful Publish and more than once.
func (s *Staging) Discard() {
	if s == nil {
		return
	}
	if s.f != nil {
		_ = s.f.Close()
		s.f = nil
	}
	_ = os.Remove(s.path)
}

// syncDir makes a new directory entry durable. Platforms that cannot fsync a
// directory are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func validName(name string) bool {
	return name != "" &&
		name == filepath.Base(name) &&
		!strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, "/\\\x00")
}
