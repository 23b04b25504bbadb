package ports

import "errors"

// Error taxonomy for the statistics-capture path. Capture is best-effort:
// the store operation logs these and still succeeds for the primary report
// storage. Only an invalid report directory fails the store call itself.
var (
	// ErrInvalidBundle marks a report directory that does not exist or
	// cannot be read. Aborts that directory's contribution.
	ErrInvalidBundle = errors.New("invalid report directory")

	// ErrArchiveWrite marks an I/O failure persisting a statistics archive.
	// The target path is left untouched; capture for the run is abandoned.
	ErrArchiveWrite = errors.New("archive write failed")

	// ErrIndex marks unavailable failure-index storage.
	ErrIndex = errors.New("failure index unavailable")
)
