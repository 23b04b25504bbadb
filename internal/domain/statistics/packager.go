// Package statistics decides whether an analysis run warrants statistics
// capture and assembles the per-run archive when it does.
//
// Entry names inside the archive are the original absolute artifact paths,
// leading separator included. This is a fixed compatibility contract:
// downstream tooling extracts the archive under some root and expects to
// find every artifact at its original path relative to that root.
package statistics

import (
	"fmt"
	"os"

	"github.com/ZiperRom1/codechecker/internal/domain/report"
	"github.com/ZiperRom1/codechecker/internal/ports"
)

// Build applies the capture decision to one store operation's bundles and,
// when capture happens, assembles the archive entries for the run.
//
// Capture happens iff captureEnabled is true AND at least one bundle holds a
// failure archive. Otherwise Build performs no I/O and returns produced ==
// false, indistinguishable from disabled capture.
//
// All bundles of a qualifying operation contribute to the single resulting
// archive: present top-level artifacts plus every failure archive, verbatim.
func Build(bundles []*report.Bundle, captureEnabled bool) (entries []ports.ArchiveEntry, produced bool, err error) {
	if !captureEnabled {
		return nil, false, nil
	}

	anyFailed := false
	for _, b := range bundles {
		if b.HasFailures() {
			anyFailed = true
			break
		}
	}
	if !anyFailed {
		return nil, false, nil
	}

	seen := make(map[string]struct{})
	add := func(path string) error {
		if _, dup := seen[path]; dup {
			return nil
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read artifact %s: %w", path, err)
		}
		seen[path] = struct{}{}
		entries = append(entries, ports.ArchiveEntry{Name: path, Body: body})
		return nil
	}

	for _, b := range bundles {
		for _, p := range b.ArtifactPaths() {
			if err := add(p); err != nil {
				return nil, false, err
			}
		}
		for _, p := range b.FailedArchives {
			if err := add(p); err != nil {
				return nil, false, err
			}
		}
	}

	return entries, true, nil
}
