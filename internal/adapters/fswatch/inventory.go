// Package fswatch keeps an in-memory inventory of stored statistics
// archives using github.com/fsnotify/fsnotify. Archives can disappear out
// of band (operator cleanup, retention scripts); watching the stats root
// keeps the health/listing surface honest without rescanning on every
// request. Events are debounced: archive writes land via rename, but
// bulk deletions can storm.
package fswatch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 100 * time.Millisecond

// Inventory tracks which (product, run) archives exist under the stats
// root. The root may not exist yet when tracking starts; the parent
// directory is watched so lazy creation is picked up.
type Inventory struct {
	root string

	fw      *fsnotify.Watcher
	done    chan struct{}
	stopped bool
	mu      sync.Mutex

	stateMu  sync.RWMutex
	products map[string]map[string]bool // product -> run name set
}

// NewInventory creates an inventory for the given stats root.
func NewInventory(root string) (*Inventory, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		fw.Close()
		return nil, err
	}
	return &Inventory{
		root:     abs,
		fw:       fw,
		done:     make(chan struct{}),
		products: make(map[string]map[string]bool),
	}, nil
}

// Start performs the initial scan and begins watching for changes.
func (inv *Inventory) Start() error {
	// The root is created lazily by the archive store; watch the parent so
	// its appearance is observed.
	if err := inv.fw.Add(filepath.Dir(inv.root)); err != nil {
		return err
	}
	inv.rescan()

	go inv.loop()
	return nil
}

// Stop ends watching and releases all resources. Safe to call twice.
func (inv *Inventory) Stop() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.stopped {
		return nil
	}
	inv.stopped = true
	close(inv.done)
	return inv.fw.Close()
}

// Snapshot returns the current product -> run names view.
func (inv *Inventory) Snapshot() map[string][]string {
	inv.stateMu.RLock()
	defer inv.stateMu.RUnlock()

	out := make(map[string][]string, len(inv.products))
	for product, runs := range inv.products {
		names := make([]string, 0, len(runs))
		for run := range runs {
			names = append(names, run)
		}
		out[product] = names
	}
	return out
}

// ArchiveCount returns the total number of tracked archives.
func (inv *Inventory) ArchiveCount() int {
	inv.stateMu.RLock()
	defer inv.stateMu.RUnlock()

	n := 0
	for _, runs := range inv.products {
		n += len(runs)
	}
	return n
}

// Refresh forces a rescan. The store operation calls this after a put so
// the inventory reflects the new archive without waiting for the event.
func (inv *Inventory) Refresh() {
	inv.rescan()
}

func (inv *Inventory) loop() {
	var pending bool
	timer := time.NewTimer(debounceInterval)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case event, ok := <-inv.fw.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(event.Name, inv.root) && event.Name != inv.root {
				continue
			}
			if !pending {
				pending = true
				timer.Reset(debounceInterval)
			}

		case <-timer.C:
			pending = false
			inv.rescan()

		case _, ok := <-inv.fw.Errors:
			if !ok {
				return
			}
			// fsnotify recovers on its own; the next rescan catches up

		case <-inv.done:
			return
		}
	}
}

// rescan rebuilds the product/run map from disk and refreshes directory
// watches for product directories that appeared since the last scan.
func (inv *Inventory) rescan() {
	fresh := make(map[string]map[string]bool)

	if dirs, err := os.ReadDir(inv.root); err == nil {
		inv.fw.Add(inv.root)
		for _, d := range dirs {
			if !d.IsDir() {
				continue
			}
			product := d.Name()
			productDir := filepath.Join(inv.root, product)
			inv.fw.Add(productDir)

			files, err := os.ReadDir(productDir)
			if err != nil {
				continue
			}
			runs := make(map[string]bool)
			for _, f := range files {
				name := f.Name()
				if f.Type().IsRegular() && strings.HasSuffix(name, ".zip") {
					runs[strings.TrimSuffix(name, ".zip")] = true
				}
			}
			if len(runs) > 0 {
				fresh[product] = runs
			}
		}
	}

	inv.stateMu.Lock()
	inv.products = fresh
	inv.stateMu.Unlock()
}
