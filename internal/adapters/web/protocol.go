// Package web exposes the statistics service as a JSON-over-HTTP API and
// provides the client the CLI subcommands use. Each request/response body
// is one JSON object.
package web

import "github.com/ZiperRom1/codechecker/internal/ports"

// API routes.
const (
	RouteStore            = "/api/v1/store"
	RouteFailedFiles      = "/api/v1/failed_files"
	RouteFailedFilesCount = "/api/v1/failed_files/count"
	RouteRemoveRuns       = "/api/v1/runs/remove"
	RouteArchives         = "/api/v1/archives"
	RouteHealth           = "/api/v1/health"
)

// StoreRequest asks the server to store analyzer results for a run. The
// report directories must be readable by the server process.
type StoreRequest struct {
	Product    string   `json:"product"`
	RunName    string   `json:"run_name"`
	ReportDirs []string `json:"report_dirs"`
}

// StoreResult reports the outcome of a store request. Captured is true only
// when a statistics archive was persisted for the run; capture failure does
// not fail the store.
type StoreResult struct {
	RunName  string `json:"run_name"`
	Captured bool   `json:"captured"`
}

// FailedFilesCountResult carries the distinct failed-file count.
type FailedFilesCountResult struct {
	Count int `json:"count"`
}

// FailedFilesResult maps each failed file path to its failure occurrences,
// one per run.
type FailedFilesResult struct {
	Files map[string][]ports.FailureRecord `json:"files"`
}

// RemoveRunsRequest removes the runs matched by the filter, cascading to
// failure records and the statistics archive.
type RemoveRunsRequest struct {
	Product string          `json:"product"`
	Filter  ports.RunFilter `json:"filter"`
}

// RemoveRunsResult reports removal success.
type RemoveRunsResult struct {
	Removed bool `json:"removed"`
}

// ArchivesResult lists stored archives per product.
type ArchivesResult struct {
	Archives map[string][]string `json:"archives"`
}

// HealthResult is the server health snapshot.
type HealthResult struct {
	Status         string `json:"status"`
	CaptureEnabled bool   `json:"capture_enabled"`
	Products       int    `json:"products"`
	Archives       int    `json:"archives"`
	Uptime         string `json:"uptime"`
}

// errorResponse is the body of any non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}
