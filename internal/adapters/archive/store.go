// Package archive implements ports.ArchiveStore on the local filesystem.
// One zip per (product, run name) at <root>/<product>/<run>.zip. Writes go
// to a temp file in the same directory and are renamed into place, so a
// reader never sees a partial archive and a failed write leaves the target
// untouched. The root and product directories are created lazily on first
// Put; their absence is meaningful (no run of that product ever failed).
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZiperRom1/codechecker/internal/ports"
)

// Store implements ports.ArchiveStore.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per (product, run) write lock
}

// NewStore returns a store rooted at dir. The directory is not created
// until the first archive is written.
func NewStore(dir string) *Store {
	return &Store{root: dir, locks: make(map[string]*sync.Mutex)}
}

// Root returns the statistics root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) keyLock(productID, runName string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := productID + "\x00" + runName
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Store) archivePath(productID, runName string) string {
	return filepath.Join(s.root, productID, runName+".zip")
}

func validKey(productID, runName string) error {
	for _, part := range []string{productID, runName} {
		if part == "" || strings.ContainsRune(part, os.PathSeparator) {
			return fmt.Errorf("%w: invalid key %q/%q", ports.ErrArchiveWrite, productID, runName)
		}
	}
	return nil
}

// Put writes the archive for (productID, runName), overwriting any previous
// archive for that key. Concurrent puts to the same key serialize; puts to
// different keys proceed independently.
func (s *Store) Put(productID, runName string, entries []ports.ArchiveEntry) error {
	if err := validKey(productID, runName); err != nil {
		return err
	}

	lock := s.keyLock(productID, runName)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Join(s.root, productID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ports.ErrArchiveWrite, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+runName+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ports.ErrArchiveWrite, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	zw := zip.NewWriter(tmp)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			cleanup()
			return fmt.Errorf("%w: entry %s: %v", ports.ErrArchiveWrite, e.Name, err)
		}
		if _, err := w.Write(e.Body); err != nil {
			cleanup()
			return fmt.Errorf("%w: entry %s: %v", ports.ErrArchiveWrite, e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: finalize: %v", ports.ErrArchiveWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp: %v", ports.ErrArchiveWrite, err)
	}

	target := s.archivePath(productID, runName)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename to %s: %v", ports.ErrArchiveWrite, target, err)
	}
	return nil
}

// Exists reports whether an archive is stored for (productID, runName).
func (s *Store) Exists(productID, runName string) bool {
	fi, err := os.Stat(s.archivePath(productID, runName))
	return err == nil && fi.Mode().IsRegular()
}

// Get reads back a stored archive's entries.
func (s *Store) Get(productID, runName string) ([]ports.ArchiveEntry, error) {
	zr, err := zip.OpenReader(s.archivePath(productID, runName))
	if err != nil {
		return nil, fmt.Errorf("open archive %s/%s: %w", productID, runName, err)
	}
	defer zr.Close()

	entries := make([]ports.ArchiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		entries = append(entries, ports.ArchiveEntry{Name: f.Name, Body: body})
	}
	return entries, nil
}

// Remove deletes the archive for (productID, runName). Idempotent. The
// product directory is pruned once its last archive goes away.
func (s *Store) Remove(productID, runName string) error {
	lock := s.keyLock(productID, runName)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(s.archivePath(productID, runName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove archive %s/%s: %w", productID, runName, err)
	}
	// Prune the product directory if this was its last archive. Failure
	// here (non-empty dir) is expected and ignored.
	os.Remove(filepath.Join(s.root, productID))
	return nil
}

// Runs lists run names with a stored archive for the product, sorted.
func (s *Store) Runs(productID string) ([]string, error) {
	dir := filepath.Join(s.root, productID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list archives %s: %w", productID, err)
	}

	var runs []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasSuffix(name, ".zip") {
			runs = append(runs, strings.TrimSuffix(name, ".zip"))
		}
	}
	sort.Strings(runs)
	return runs, nil
}
