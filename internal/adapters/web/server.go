package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ZiperRom1/codechecker/internal/ports"
)

// Service provides the operations the API exposes. Implemented by the app;
// declared here so the adapter does not depend on the app package.
type Service interface {
	// Store runs the primary store operation. The returned captured flag
	// reports whether a statistics archive was persisted.
	Store(ctx context.Context, product, runName string, reportDirs []string) (captured bool, err error)

	// FailedFilesCount counts distinct failed file paths. nil runNames
	// means all runs.
	FailedFilesCount(product string, runNames []string) (int, error)

	// FailedFiles returns per-file failure occurrences. nil runNames means
	// all runs.
	FailedFiles(product string, runNames []string) (map[string][]ports.FailureRecord, error)

	// RemoveRuns removes every run matched by the filter.
	RemoveRuns(product string, filter ports.RunFilter) (bool, error)

	// Archives lists stored archives per product.
	Archives() map[string][]string

	// CaptureEnabled reports whether statistics capture is active.
	CaptureEnabled() bool
}

// Server serves the statistics API over HTTP.
type Server struct {
	svc      Service
	log      *slog.Logger
	listener net.Listener
	httpSrv  *http.Server
	addr     string
	started  time.Time
	stopOnce sync.Once
}

// NewServer creates an HTTP server for the given service.
func NewServer(svc Service, addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, addr: addr, log: log}
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.started = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+RouteStore, s.handleStore)
	mux.HandleFunc("GET "+RouteFailedFilesCount, s.handleFailedFilesCount)
	mux.HandleFunc("GET "+RouteFailedFiles, s.handleFailedFiles)
	mux.HandleFunc("POST "+RouteRemoveRuns, s.handleRemoveRuns)
	mux.HandleFunc("GET "+RouteArchives, s.handleArchives)
	mux.HandleFunc("GET "+RouteHealth, s.handleHealth)

	s.httpSrv = &http.Server{Handler: mux}

	go s.httpSrv.Serve(ln)
	s.log.Info("statistics API listening", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
	})
}

// Addr returns the bound address, usable after Start (supports ":0").
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req StoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.RunName == "" || len(req.ReportDirs) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("run_name and report_dirs are required"))
		return
	}

	captured, err := s.svc.Store(r.Context(), req.Product, req.RunName, req.ReportDirs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ports.ErrInvalidBundle) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, StoreResult{RunName: req.RunName, Captured: captured})
}

func (s *Server) handleFailedFilesCount(w http.ResponseWriter, r *http.Request) {
	product, runs := queryScope(r)
	count, err := s.svc.FailedFilesCount(product, runs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, FailedFilesCountResult{Count: count})
}

func (s *Server) handleFailedFiles(w http.ResponseWriter, r *http.Request) {
	product, runs := queryScope(r)
	files, err := s.svc.FailedFiles(product, runs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, FailedFilesResult{Files: files})
}

func (s *Server) handleRemoveRuns(w http.ResponseWriter, r *http.Request) {
	var req RemoveRunsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	ok, err := s.svc.RemoveRuns(req.Product, req.Filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, RemoveRunsResult{Removed: ok})
}

func (s *Server) handleArchives(w http.ResponseWriter, r *http.Request) {
	archives := s.svc.Archives()
	if product := r.URL.Query().Get("product"); product != "" {
		filtered := make(map[string][]string)
		if runs, ok := archives[product]; ok {
			filtered[product] = runs
		}
		archives = filtered
	}
	writeJSON(w, ArchivesResult{Archives: archives})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	archives := s.svc.Archives()
	total := 0
	for _, runs := range archives {
		total += len(runs)
	}
	writeJSON(w, HealthResult{
		Status:         "ok",
		CaptureEnabled: s.svc.CaptureEnabled(),
		Products:       len(archives),
		Archives:       total,
		Uptime:         time.Since(s.started).Round(time.Second).String(),
	})
}

// queryScope reads the product and run filter from query parameters.
// Absent run parameters mean "all runs" (nil), not an empty filter.
func queryScope(r *http.Request) (product string, runs []string) {
	q := r.URL.Query()
	product = q.Get("product")
	if vals, ok := q["run"]; ok {
		runs = vals
	}
	return product, runs
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
