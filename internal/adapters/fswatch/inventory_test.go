package fswatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, root, product, run string) {
	t.Helper()
	dir := filepath.Join(root, product)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, run+".zip"), []byte("PK"), 0644))
}

func newTestInventory(t *testing.T) (*Inventory, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "analysis_statistics")
	inv, err := NewInventory(root)
	require.NoError(t, err)
	require.NoError(t, inv.Start())
	t.Cleanup(func() { inv.Stop() })
	return inv, root
}

func TestInventory_EmptyWhenRootAbsent(t *testing.T) {
	inv, _ := newTestInventory(t)
	assert.Empty(t, inv.Snapshot())
	assert.Equal(t, 0, inv.ArchiveCount())
}

func TestInventory_RefreshPicksUpArchives(t *testing.T) {
	inv, root := newTestInventory(t)

	writeArchive(t, root, "p1", "s1")
	writeArchive(t, root, "p1", "s2")
	writeArchive(t, root, "p2", "s1")
	inv.Refresh()

	snap := inv.Snapshot()
	require.Len(t, snap, 2)
	assert.ElementsMatch(t, []string{"s1", "s2"}, snap["p1"])
	assert.Equal(t, []string{"s1"}, snap["p2"])
	assert.Equal(t, 3, inv.ArchiveCount())
}

func TestInventory_RefreshDropsRemoved(t *testing.T) {
	inv, root := newTestInventory(t)

	writeArchive(t, root, "p1", "s1")
	inv.Refresh()
	require.Equal(t, 1, inv.ArchiveCount())

	require.NoError(t, os.RemoveAll(filepath.Join(root, "p1")))
	inv.Refresh()
	assert.Empty(t, inv.Snapshot())
}

func TestInventory_IgnoresNonArchives(t *testing.T) {
	inv, root := newTestInventory(t)

	dir := filepath.Join(root, "p1")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".s1.12345.tmp"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	inv.Refresh()

	assert.Empty(t, inv.Snapshot())
}

func TestInventory_WatcherObservesLazyRootCreation(t *testing.T) {
	// The root does not exist at start; an archive appearing later must be
	// picked up by the watcher without an explicit Refresh.
	inv, root := newTestInventory(t)

	writeArchive(t, root, "p1", "s1")

	deadline := time.After(3 * time.Second)
	for inv.ArchiveCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("watcher never observed the new archive")
		case <-time.After(20 * time.Millisecond):
		}
	}
	assert.Equal(t, map[string][]string{"p1": {"s1"}}, inv.Snapshot())
}

func TestInventory_StopTwice(t *testing.T) {
	inv, _ := newTestInventory(t)
	require.NoError(t, inv.Stop())
	require.NoError(t, inv.Stop())
}
