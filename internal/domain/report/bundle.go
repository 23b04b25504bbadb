// Package report describes analyzer report directories for statistics
// capture. A report directory is the output of one analyzer invocation
// batch: a compilation database, compiler metadata, run metadata, and a
// failed/ subdirectory holding one zip per source file whose analysis
// crashed or could not complete.
package report

import (
	"archive/zip"
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZiperRom1/codechecker/internal/ports"
)

// Conventional member files of a report directory. Each is independently
// optional; an empty directory is a valid (empty) bundle.
const (
	CompileCommandsFile = "compile_cmd.json"
	CompilerInfoFile    = "compiler_info.json"
	MetadataFile        = "metadata.json"
	FailedDirName       = "failed"
)

// failedFilesMember is the member inside each failure zip listing the
// absolute source paths that failed, one per line.
const failedFilesMember = "failed_files"

// Bundle is one report directory's worth of artifacts for a single store
// operation. All paths are absolute. Optional fields are empty when the
// artifact is absent. The source tree is never mutated.
type Bundle struct {
	Path string

	CompileCommandsPath string
	CompilerInfoPath    string
	MetadataPath        string

	// FailedDir is the failed/ subdirectory, empty if absent.
	FailedDir string
	// FailedArchives are the files directly under FailedDir, sorted.
	FailedArchives []string
}

// Describe inspects a report directory and returns its bundle description.
// Missing artifacts are tolerated; a nonexistent or unreadable directory
// returns an error wrapping ports.ErrInvalidBundle.
func Describe(dir string) (*Bundle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrInvalidBundle, dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrInvalidBundle, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: not a directory", ports.ErrInvalidBundle, dir)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrInvalidBundle, dir, err)
	}

	b := &Bundle{Path: abs}
	for _, name := range []string{CompileCommandsFile, CompilerInfoFile, MetadataFile} {
		p := filepath.Join(abs, name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			switch name {
			case CompileCommandsFile:
				b.CompileCommandsPath = p
			case CompilerInfoFile:
				b.CompilerInfoPath = p
			case MetadataFile:
				b.MetadataPath = p
			}
		}
	}

	failedDir := filepath.Join(abs, FailedDirName)
	if fi, err := os.Stat(failedDir); err == nil && fi.IsDir() {
		b.FailedDir = failedDir
		entries, err := os.ReadDir(failedDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrInvalidBundle, failedDir, err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				b.FailedArchives = append(b.FailedArchives, filepath.Join(failedDir, e.Name()))
			}
		}
		sort.Strings(b.FailedArchives)
	}

	return b, nil
}

// HasFailures reports whether the bundle's failed/ subdirectory holds at
// least one failure archive. This is the capture precondition: without
// failures, no statistics are stored for the bundle.
func (b *Bundle) HasFailures() bool {
	return len(b.FailedArchives) > 0
}

// ArtifactPaths returns the present top-level artifacts, in stable order.
func (b *Bundle) ArtifactPaths() []string {
	var paths []string
	for _, p := range []string{b.CompileCommandsPath, b.CompilerInfoPath, b.MetadataPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// FailedSources extracts the absolute source paths recorded in the bundle's
// failure archives. Each archive carries a failed_files member listing one
// path per line; archives without that member contribute no paths (they are
// still packaged verbatim). Duplicates across archives are collapsed.
func (b *Bundle) FailedSources() ([]string, error) {
	seen := make(map[string]struct{})
	for _, arc := range b.FailedArchives {
		paths, err := readFailedFilesMember(arc)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			seen[p] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// readFailedFilesMember opens one failure zip and reads its failed_files
// member. A zip without the member yields no paths; a corrupt zip is an
// invalid-bundle error.
func readFailedFilesMember(archivePath string) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ports.ErrInvalidBundle, archivePath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != failedFilesMember {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrInvalidBundle, archivePath, err)
		}
		defer rc.Close()

		var paths []string
		sc := bufio.NewScanner(rc)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" {
				paths = append(paths, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ports.ErrInvalidBundle, archivePath, err)
		}
		return paths, nil
	}
	return nil, nil
}
