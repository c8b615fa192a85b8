package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bronson/diskinfo"
	"bronson/housekeeper"
	"bronson/logger"
	"bronson/version"

	"github.com/dustin/go-humanize"
)

// ScanOptions, CleanupOptions, CompareOptions, and MoveOptions are the
// per-operation request options, parsed and defaulted once at the boundary.
type ScanOptions struct {
	Patterns []string
}

type CleanupOptions struct {
	Patterns []string
	DryRun   bool
}

type CompareOptions struct {
	Verbose bool
}

type MoveOptions struct {
	DryRun    bool
	BatchSize int
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to Bronson",
		"version": version.Version,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("The current version of Bronson is %s", version.Version),
		"version": version.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "bronson",
		"version":   version.Version,
		"timestamp": float64(time.Now().UnixNano()) / 1e9,
		"disks":     diskinfo.Collect(s.cfg.CleanupDirectory, s.cfg.TargetDirectory),
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	opts := ScanOptions{Patterns: r.URL.Query()["pattern"]}
	if len(opts.Patterns) == 0 {
		opts.Patterns = s.cfg.UnwantedPatterns
	}

	result, err := s.scanner.ScanDirectory(r.Context(), s.cfg.CleanupDirectory, opts.Patterns)
	if err != nil {
		s.failOp(w, "scan", s.cfg.CleanupDirectory, "", err, http.StatusBadRequest)
		return
	}

	elapsed := time.Since(start)
	s.recorder.RecordScan(result, elapsed)
	s.exporter.EmitOperation("scan", result.Directory, result.FilesFound, 0, elapsed)
	writeJSON(w, http.StatusOK, map[string]any{
		"directory":        result.Directory,
		"patterns_used":    result.Patterns,
		"files_found":      result.FilesFound,
		"found_files":      result.Files,
		"pattern_matches":  result.PatternMatches,
		"total_size_bytes": result.TotalSize,
		"total_size_human": humanize.IBytes(uint64(result.TotalSize)),
	})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	opts, err := s.parseCleanupOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.cleaner.CleanupDirectory(r.Context(), s.cfg.CleanupDirectory, opts)
	if err != nil {
		s.failOp(w, "cleanup", s.cfg.CleanupDirectory, "", err, http.StatusBadRequest)
		return
	}

	elapsed := time.Since(start)
	s.recorder.RecordCleanup(result, elapsed)
	s.exporter.EmitOperation("cleanup", result.Directory, result.FilesFound, result.FilesRemoved, elapsed)
	errorDetails := result.Errors
	if errorDetails == nil {
		errorDetails = []housekeeper.RemovalError{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"directory":        result.Directory,
		"dry_run":          result.DryRun,
		"patterns_used":    result.Patterns,
		"files_found":      result.FilesFound,
		"files_removed":    result.FilesRemoved,
		"pattern_matches":  result.PatternMatches,
		"removed_files":    result.RemovedFiles,
		"error_details":    errorDetails,
		"total_size_bytes": result.TotalSize,
		"total_size_human": humanize.IBytes(uint64(result.TotalSize)),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	opts, err := parseCompareOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := housekeeper.CompareDirectories(s.cfg.CleanupDirectory, s.cfg.TargetDirectory)
	if err != nil {
		s.failOp(w, "comparison", s.cfg.CleanupDirectory, s.cfg.TargetDirectory, err, http.StatusNotFound)
		return
	}

	elapsed := time.Since(start)
	s.recorder.RecordComparison(result, elapsed)
	s.exporter.EmitOperation("comparison", result.CleanupDirectory, result.DuplicateCount, result.NonDuplicateCount, elapsed)
	payload := map[string]any{
		"cleanup_directory":            result.CleanupDirectory,
		"target_directory":             result.TargetDirectory,
		"duplicates":                   result.Duplicates,
		"duplicate_count":              result.DuplicateCount,
		"non_duplicate_count":          result.NonDuplicateCount,
		"total_cleanup_subdirectories": result.TotalCleanupSubdirs,
		"total_target_subdirectories":  result.TotalTargetSubdirs,
	}
	if opts.Verbose {
		payload["cleanup_subdirectories"] = result.CleanupSubdirs
		payload["target_subdirectories"] = result.TargetSubdirs
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	opts, err := s.parseMoveOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := housekeeper.MoveNonDuplicates(s.cfg.CleanupDirectory, s.cfg.TargetDirectory,
		housekeeper.MoveOptions{DryRun: opts.DryRun, BatchSize: opts.BatchSize})
	if err != nil {
		s.failOp(w, "move", s.cfg.CleanupDirectory, s.cfg.TargetDirectory, err, http.StatusNotFound)
		return
	}

	elapsed := time.Since(start)
	s.recorder.RecordMove(result, elapsed)
	s.exporter.EmitOperation("move", result.CleanupDirectory, result.NonDuplicatesFound, result.DirectoriesMoved, elapsed)
	errorDetails := result.Errors
	if errorDetails == nil {
		errorDetails = []housekeeper.MoveError{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cleanup_directory":            result.CleanupDirectory,
		"target_directory":             result.TargetDirectory,
		"dry_run":                      result.DryRun,
		"batch_size":                   result.BatchSize,
		"duplicates_found":             result.DuplicatesFound,
		"non_duplicates_found":         result.NonDuplicatesFound,
		"non_duplicate_subdirectories": result.NonDuplicates,
		"directories_moved":            result.DirectoriesMoved,
		"moved":                        result.Moved,
		"remaining_files":              result.Remaining,
		"error_details":                errorDetails,
	})
}

// parseCleanupOptions reads dry_run from the query (default true) and an
// optional JSON body holding a bare array of override pattern strings.
func (s *Server) parseCleanupOptions(r *http.Request) (housekeeper.CleanupOptions, error) {
	opts := housekeeper.CleanupOptions{DryRun: true, Patterns: s.cfg.UnwantedPatterns}

	dryRun, err := parseBoolParam(r, "dry_run", true)
	if err != nil {
		return opts, err
	}
	opts.DryRun = dryRun

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return opts, fmt.Errorf("could not read request body: %v", err)
	}
	if len(bytes.TrimSpace(body)) > 0 {
		var patterns []string
		if err := json.Unmarshal(body, &patterns); err != nil {
			return opts, fmt.Errorf("request body must be a JSON array of pattern strings: %v", err)
		}
		opts.Patterns = patterns
	}
	return opts, nil
}

func parseCompareOptions(r *http.Request) (CompareOptions, error) {
	verbose, err := parseBoolParam(r, "verbose", false)
	if err != nil {
		return CompareOptions{}, err
	}
	return CompareOptions{Verbose: verbose}, nil
}

func (s *Server) parseMoveOptions(r *http.Request) (MoveOptions, error) {
	opts := MoveOptions{DryRun: true, BatchSize: s.cfg.MoveBatchSize}

	dryRun, err := parseBoolParam(r, "dry_run", true)
	if err != nil {
		return opts, err
	}
	opts.DryRun = dryRun

	if raw := r.URL.Query().Get("batch_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return opts, fmt.Errorf("batch_size must be a positive integer")
		}
		opts.BatchSize = size
	}
	return opts, nil
}

func parseBoolParam(r *http.Request, name string, fallback bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a boolean", name)
	}
	return value, nil
}

// failOp classifies a failed operation, records the error metric, and writes
// the response. notFoundStatus lets scan/cleanup keep their historical 400
// while compare/move use 404.
func (s *Server) failOp(w http.ResponseWriter, operation, directory, target string, err error, notFoundStatus int) {
	status := http.StatusInternalServerError
	errorType := "operation_error"
	switch {
	case errors.Is(err, housekeeper.ErrDirectoryNotFound):
		status = notFoundStatus
		errorType = "directory_not_found"
	case errors.Is(err, housekeeper.ErrProtectedPath):
		status = http.StatusBadRequest
		if notFoundStatus == http.StatusNotFound {
			status = http.StatusForbidden
		}
		errorType = "protected_path"
	case errors.Is(err, housekeeper.ErrInvalidPattern):
		status = http.StatusBadRequest
		errorType = "invalid_pattern"
	}
	if status == http.StatusInternalServerError {
		logger.Errorf("%s operation failed: %v", operation, err)
	}
	s.recorder.RecordError(operation, directory, target, errorType)
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
