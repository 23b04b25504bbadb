// Package app wires the adapters and domain logic together and provides
// lifecycle management for the statistics server: create, start, stop.
//
// It also owns the two orchestrations the adapters cannot: the store
// operation (bundle description, capture decision, archive write, failure
// recording) and the run lifecycle bridge (cascading removal of a run's
// failure records and archive).
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ZiperRom1/codechecker/internal/adapters/archive"
	"github.com/ZiperRom1/codechecker/internal/adapters/bbolt"
	"github.com/ZiperRom1/codechecker/internal/adapters/fswatch"
	"github.com/ZiperRom1/codechecker/internal/adapters/web"
	"github.com/ZiperRom1/codechecker/internal/domain/report"
	"github.com/ZiperRom1/codechecker/internal/domain/statistics"
	"github.com/ZiperRom1/codechecker/internal/ports"
	"golang.org/x/sync/errgroup"
)

// App is the top-level container wiring all components together.
type App struct {
	cfg Config
	log *slog.Logger

	index     ports.FailureIndex
	archives  ports.ArchiveStore
	inventory *fswatch.Inventory
	server    *web.Server

	mu       sync.Mutex
	runLocks map[string]*sync.Mutex // serializes capture vs removal per (product, run)
}

// New creates a fully wired app from the configuration.
func New(cfg Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	index, err := bbolt.NewIndex(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("init failure index: %w", err)
	}

	inventory, err := fswatch.NewInventory(cfg.StatsRoot)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("init archive inventory: %w", err)
	}

	a := &App{
		cfg:       cfg,
		log:       log,
		index:     index,
		archives:  archive.NewStore(cfg.StatsRoot),
		inventory: inventory,
		runLocks:  make(map[string]*sync.Mutex),
	}
	a.server = web.NewServer(a, cfg.ListenAddr, log)
	return a, nil
}

// Start launches the archive inventory watcher and the HTTP API.
func (a *App) Start() error {
	if err := a.inventory.Start(); err != nil {
		return fmt.Errorf("start inventory: %w", err)
	}
	if err := a.server.Start(); err != nil {
		a.inventory.Stop()
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Stop shuts everything down in reverse start order.
func (a *App) Stop() error {
	a.server.Stop()
	a.inventory.Stop()
	return a.index.Close()
}

// ServerURL returns the base URL of the running HTTP API.
func (a *App) ServerURL() string {
	return a.server.URL()
}

// CaptureEnabled reports whether statistics capture is active for this
// server instance.
func (a *App) CaptureEnabled() bool {
	return a.cfg.CaptureEnabled
}

// Store is the primary store operation. Every report directory is
// described first; an unreadable directory fails the call. Statistics
// capture then runs best-effort under the configured timeout: its failure
// is logged and never propagated. The returned flag reports whether an
// archive was persisted for the run.
func (a *App) Store(ctx context.Context, product, runName string, reportDirs []string) (bool, error) {
	product = a.productOrDefault(product)

	bundles := make([]*report.Bundle, len(reportDirs))
	g, _ := errgroup.WithContext(ctx)
	for i, dir := range reportDirs {
		g.Go(func() error {
			b, err := report.Describe(dir)
			if err != nil {
				return err
			}
			bundles[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, fmt.Errorf("store %s: %w", runName, err)
	}

	captureCtx, cancel := context.WithTimeout(ctx, a.cfg.CaptureTimeout)
	defer cancel()

	captured, err := a.captureStatistics(captureCtx, product, runName, bundles)
	if err != nil {
		// Best-effort: whatever was durably committed before the failure
		// stays; the primary store still succeeds.
		a.log.Warn("statistics capture failed",
			"product", product, "run", runName, "err", err)
	}
	return captured, nil
}

// captureStatistics packages and persists the run's statistics and records
// its failed files. Holds the per-run lock so removal of the same run
// cannot interleave and resurrect records.
func (a *App) captureStatistics(ctx context.Context, product, runName string, bundles []*report.Bundle) (bool, error) {
	entries, produced, err := statistics.Build(bundles, a.cfg.CaptureEnabled)
	if err != nil {
		return false, err
	}
	if !produced {
		return false, nil
	}

	lock := a.runLock(product, runName)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := a.archives.Put(product, runName, entries); err != nil {
		return false, err
	}
	a.inventory.Refresh()

	// One record per (file, run), no matter how many report directories
	// saw the failure.
	recorded := make(map[string]struct{})
	for _, b := range bundles {
		sources, err := b.FailedSources()
		if err != nil {
			return true, err
		}
		for _, src := range sources {
			if _, done := recorded[src]; done {
				continue
			}
			if err := ctx.Err(); err != nil {
				return true, err
			}
			if err := a.index.RecordFailure(product, runName, src); err != nil {
				return true, err
			}
			recorded[src] = struct{}{}
		}
	}
	return true, nil
}

// FailedFilesCount returns the number of distinct failed file paths,
// optionally restricted to the given runs. nil means all runs.
func (a *App) FailedFilesCount(product string, runNames []string) (int, error) {
	return a.index.CountFailedFiles(a.productOrDefault(product), runNames)
}

// FailedFiles returns per-file failure occurrences, one per run. nil
// runNames means all runs. Unknown runs yield empty results, not errors.
func (a *App) FailedFiles(product string, runNames []string) (map[string][]ports.FailureRecord, error) {
	return a.index.FailedFiles(a.productOrDefault(product), runNames)
}

// RemoveRuns is the run lifecycle bridge: for every matched run it removes
// the failure records and, if present, the statistics archive. Unknown run
// names are successful no-ops.
func (a *App) RemoveRuns(product string, filter ports.RunFilter) (bool, error) {
	product = a.productOrDefault(product)

	seen := make(map[string]struct{}, len(filter.Names))
	for _, runName := range filter.Names {
		if _, dup := seen[runName]; dup || runName == "" {
			continue
		}
		seen[runName] = struct{}{}

		lock := a.runLock(product, runName)
		lock.Lock()
		// Index records go first: a crash in between leaves only a stale
		// archive, never an orphaned failure record feeding wrong counts.
		err := a.index.RemoveRun(product, runName)
		if err == nil {
			err = a.archives.Remove(product, runName)
		}
		lock.Unlock()
		if err != nil {
			return false, fmt.Errorf("remove run %s: %w", runName, err)
		}
		a.log.Info("run removed", "product", product, "run", runName)
	}

	a.inventory.Refresh()
	return true, nil
}

// Archives returns the tracked product -> run names inventory.
func (a *App) Archives() map[string][]string {
	return a.inventory.Snapshot()
}

func (a *App) productOrDefault(product string) string {
	if product == "" {
		return a.cfg.Product
	}
	return product
}

func (a *App) runLock(product, runName string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := product + "\x00" + runName
	l, ok := a.runLocks[key]
	if !ok {
		l = &sync.Mutex{}
		a.runLocks[key] = l
	}
	return l
}
