// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// FailureIndex is the queryable index of analysis failures, keyed by the
// absolute source path the analyzer saw. The index is scoped by product:
// every operation names the product whose runs it touches.
//
// RecordFailure is idempotent per (filePath, runName) pair: a store
// operation may discover the same failing file through more than one report
// directory within one run, and must still yield a single record.
type FailureIndex interface {
	// RecordFailure registers that analysis of filePath failed during run.
	// Calling it twice for the same (filePath, runName) is a no-op.
	RecordFailure(productID, runName, filePath string) error

	// CountFailedFiles returns the number of distinct file paths with at
	// least one failure record. A nil runNames filter means all runs.
	CountFailedFiles(productID string, runNames []string) (int, error)

	// FailedFiles returns, for each failed file path, the list of failure
	// occurrences (one per run), ordered by run name. A nil runNames filter
	// means all runs.
	FailedFiles(productID string, runNames []string) (map[string][]FailureRecord, error)

	// RemoveRun deletes every failure record owned by the run. Removing a
	// run with no records succeeds as a no-op.
	RemoveRun(productID, runName string) error

	// Runs lists the run names currently holding failure records for the
	// product, sorted.
	Runs(productID string) ([]string, error)

	// Close releases the underlying storage.
	Close() error
}

// FailureRecord is one (file, run) association: the file's analysis failed
// during that run.
type FailureRecord struct {
	RunName    string `json:"run_name"`
	DetectedAt int64  `json:"detected_at"` // unix seconds, time of store
}

// ArchiveStore persists one statistics archive per (product, run name).
// Writes are atomic: a reader never observes a partially written archive.
// Storing the same key again replaces the previous archive entirely.
type ArchiveStore interface {
	// Put writes the archive for (productID, runName), creating the product
	// directory on first use and overwriting any existing archive.
	Put(productID, runName string, entries []ArchiveEntry) error

	// Exists reports whether an archive is present for (productID, runName).
	Exists(productID, runName string) bool

	// Get returns the entries of a stored archive.
	Get(productID, runName string) ([]ArchiveEntry, error)

	// Remove deletes the archive for (productID, runName). Removing a
	// missing archive succeeds as a no-op.
	Remove(productID, runName string) error

	// Runs lists run names with a stored archive for the product, sorted.
	Runs(productID string) ([]string, error)
}

// ArchiveEntry is one member of a statistics archive. Name is the original
// absolute artifact path, leading separator included. This is a fixed external
// contract: extraction under any root reproduces the original layout
// relative to that root.
type ArchiveEntry struct {
	Name string
	Body []byte
}

// RunFilter selects runs by exact name for removal.
type RunFilter struct {
	Names []string `json:"names"`
}
