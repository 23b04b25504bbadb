// Package bbolt implements ports.FailureIndex using bbolt (embedded B+ tree).
// Layout: one top-level bucket per product, a "runs" sub-bucket inside it,
// and one bucket per run name holding file-path keys. The value is the
// big-endian unix timestamp of the store that recorded the failure.
//
// Upserts are keyed by (filePath, runName), so concurrent or repeated
// RecordFailure calls for the same pair collapse into one record. Deleting
// a run drops its bucket in a single transaction; the cascading delete is
// a first-class operation, not a database constraint.
package bbolt

import (
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/ZiperRom1/codechecker/internal/ports"
	bolt "go.etcd.io/bbolt"
)

var bucketRuns = []byte("runs")

// Index implements ports.FailureIndex backed by bbolt.
type Index struct {
	db  *bolt.DB
	now func() time.Time
}

// NewIndex opens (or creates) a bbolt database at the given path.
func NewIndex(path string) (*Index, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: bbolt open: %v", ports.ErrIndex, err)
	}
	return &Index{db: db, now: time.Now}, nil
}

// Close closes the underlying bbolt database.
func (i *Index) Close() error {
	return i.db.Close()
}

// RecordFailure registers that analysis of filePath failed during run.
// Idempotent per (filePath, runName): a second record for the pair is a
// no-op and keeps the original timestamp.
func (i *Index) RecordFailure(productID, runName, filePath string) error {
	if productID == "" || runName == "" || filePath == "" {
		return fmt.Errorf("%w: empty product, run or path", ports.ErrIndex)
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(i.now().Unix()))

	err := i.db.Update(func(tx *bolt.Tx) error {
		prod, err := tx.CreateBucketIfNotExists([]byte(productID))
		if err != nil {
			return err
		}
		runs, err := prod.CreateBucketIfNotExists(bucketRuns)
		if err != nil {
			return err
		}
		run, err := runs.CreateBucketIfNotExists([]byte(runName))
		if err != nil {
			return err
		}
		if run.Get([]byte(filePath)) != nil {
			return nil // already recorded for this run
		}
		return run.Put([]byte(filePath), ts)
	})
	if err != nil {
		return fmt.Errorf("%w: record %s@%s: %v", ports.ErrIndex, filePath, runName, err)
	}
	return nil
}

// CountFailedFiles returns the number of distinct failed file paths,
// optionally restricted to the given run names. nil means all runs.
func (i *Index) CountFailedFiles(productID string, runNames []string) (int, error) {
	files, err := i.FailedFiles(productID, runNames)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// FailedFiles returns the failure occurrences per file path, one entry per
// run, ordered by run name. nil runNames means all runs. A product or run
// with no data yields empty results, not an error.
func (i *Index) FailedFiles(productID string, runNames []string) (map[string][]ports.FailureRecord, error) {
	var filter map[string]bool
	if runNames != nil {
		filter = make(map[string]bool, len(runNames))
		for _, name := range runNames {
			filter[name] = true
		}
	}

	out := make(map[string][]ports.FailureRecord)
	err := i.db.View(func(tx *bolt.Tx) error {
		runs := runsBucket(tx, productID)
		if runs == nil {
			return nil
		}
		return runs.ForEachBucket(func(name []byte) error {
			runName := string(name)
			if filter != nil && !filter[runName] {
				return nil
			}
			run := runs.Bucket(name)
			return run.ForEach(func(k, v []byte) error {
				rec := ports.FailureRecord{RunName: runName}
				if len(v) == 8 {
					rec.DetectedAt = int64(binary.BigEndian.Uint64(v))
				}
				out[string(k)] = append(out[string(k)], rec)
				return nil
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed files for %s: %v", ports.ErrIndex, productID, err)
	}

	for _, recs := range out {
		sort.Slice(recs, func(a, b int) bool { return recs[a].RunName < recs[b].RunName })
	}
	return out, nil
}

// RemoveRun deletes every failure record owned by the run. Removing a run
// with no records is a no-op.
func (i *Index) RemoveRun(productID, runName string) error {
	err := i.db.Update(func(tx *bolt.Tx) error {
		runs := runsBucket(tx, productID)
		if runs == nil {
			return nil
		}
		err := runs.DeleteBucket([]byte(runName))
		if err == bolt.ErrBucketNotFound {
			return nil // idempotent
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: remove run %s: %v", ports.ErrIndex, runName, err)
	}
	return nil
}

// Runs lists run names holding failure records for the product, sorted.
func (i *Index) Runs(productID string) ([]string, error) {
	var names []string
	err := i.db.View(func(tx *bolt.Tx) error {
		runs := runsBucket(tx, productID)
		if runs == nil {
			return nil
		}
		return runs.ForEachBucket(func(name []byte) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list runs for %s: %v", ports.ErrIndex, productID, err)
	}
	sort.Strings(names)
	return names, nil
}

// runsBucket resolves the "runs" bucket of a product, nil if absent.
func runsBucket(tx *bolt.Tx, productID string) *bolt.Bucket {
	prod := tx.Bucket([]byte(productID))
	if prod == nil {
		return nil
	}
	return prod.Bucket(bucketRuns)
}
