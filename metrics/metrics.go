package metrics

import (
	"net/http"
	"strconv"
	"time"

	"bronson/housekeeper"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns every Prometheus series the service emits. It is a consumer
// of core results: the transport feeds it, the core never sees it. A nil
// Recorder is a valid no-op so metrics can be disabled wholesale.
type Recorder struct {
	scanFilesFound   *prometheus.CounterVec
	scanCurrentFiles *prometheus.GaugeVec
	scanDuration     *prometheus.HistogramVec
	scanDirSize      *prometheus.GaugeVec
	scanErrors       *prometheus.CounterVec

	cleanupFilesFound   *prometheus.CounterVec
	cleanupFilesRemoved *prometheus.CounterVec
	cleanupCurrentFiles *prometheus.GaugeVec
	cleanupDuration     *prometheus.HistogramVec
	cleanupDirSize      *prometheus.GaugeVec
	cleanupErrors       *prometheus.CounterVec

	comparisonDuplicates    *prometheus.GaugeVec
	comparisonNonDuplicates *prometheus.GaugeVec
	comparisonDuration      *prometheus.HistogramVec
	comparisonErrors        *prometheus.CounterVec

	moveDuplicatesFound  *prometheus.GaugeVec
	moveDirectoriesMoved *prometheus.GaugeVec
	moveBatchOperations  *prometheus.CounterVec
	moveDuration         *prometheus.HistogramVec
	moveErrors           *prometheus.CounterVec

	httpInFlight     prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpRequestSize  *prometheus.SummaryVec
	httpResponseSize *prometheus.SummaryVec
}

var durationBuckets = []float64{0.1, 0.5, 1.0, 2.0, 5.0}

// NewRecorder registers all collectors with reg and returns the Recorder.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		scanFilesFound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_scan_files_found_total",
			Help: "Unwanted files found by scan operations.",
		}, []string{"directory", "pattern"}),
		scanCurrentFiles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_scan_current_files",
			Help: "Unwanted files present at the last scan.",
		}, []string{"directory", "pattern"}),
		scanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bronson_scan_operation_duration_seconds",
			Help:    "Scan operation duration.",
			Buckets: durationBuckets,
		}, []string{"directory"}),
		scanDirSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_scan_directory_size_bytes",
			Help: "Total size of unwanted files found by the last scan.",
		}, []string{"directory"}),
		scanErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_scan_errors_total",
			Help: "Scan operations that failed, by error type.",
		}, []string{"directory", "error_type"}),

		cleanupFilesFound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_cleanup_files_found_total",
			Help: "Unwanted files found by cleanup operations.",
		}, []string{"directory", "pattern", "dry_run"}),
		cleanupFilesRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_cleanup_files_removed_total",
			Help: "Files removed by cleanup operations.",
		}, []string{"directory", "pattern", "dry_run"}),
		cleanupCurrentFiles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_cleanup_current_files",
			Help: "Unwanted files remaining after the last cleanup.",
		}, []string{"directory", "pattern", "dry_run"}),
		cleanupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bronson_cleanup_operation_duration_seconds",
			Help:    "Cleanup operation duration.",
			Buckets: durationBuckets,
		}, []string{"directory"}),
		cleanupDirSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_cleanup_directory_size_bytes",
			Help: "Total size of unwanted files found by the last cleanup.",
		}, []string{"directory"}),
		cleanupErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_cleanup_errors_total",
			Help: "Cleanup operations that failed, by error type.",
		}, []string{"directory", "error_type"}),

		comparisonDuplicates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_comparison_duplicates_found_total",
			Help: "Overlapping subdirectory names found by the last comparison.",
		}, []string{"cleanup_directory", "target_directory"}),
		comparisonNonDuplicates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_comparison_non_duplicates_found_total",
			Help: "Cleanup-only subdirectory names found by the last comparison.",
		}, []string{"cleanup_directory", "target_directory"}),
		comparisonDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bronson_comparison_operation_duration_seconds",
			Help:    "Comparison operation duration.",
			Buckets: durationBuckets,
		}, []string{"cleanup_directory", "target_directory"}),
		comparisonErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_comparison_errors_total",
			Help: "Comparison operations that failed, by error type.",
		}, []string{"cleanup_directory", "target_directory", "error_type"}),

		moveDuplicatesFound: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_move_duplicates_found",
			Help: "Duplicate subdirectories seen by the last move operation.",
		}, []string{"cleanup_directory", "target_directory", "dry_run"}),
		moveDirectoriesMoved: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bronson_move_directories_moved",
			Help: "Directories moved (or planned, for dry runs) by the last move operation.",
		}, []string{"cleanup_directory", "target_directory", "dry_run"}),
		moveBatchOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_move_batch_operations_total",
			Help: "Move batches executed.",
		}, []string{"cleanup_directory", "target_directory", "batch_size", "dry_run"}),
		moveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bronson_move_operation_duration_seconds",
			Help:    "Move operation duration.",
			Buckets: durationBuckets,
		}, []string{"cleanup_directory", "target_directory"}),
		moveErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bronson_move_errors_total",
			Help: "Move operations that failed, by error type.",
		}, []string{"cleanup_directory", "target_directory", "error_type"}),

		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inprogress",
			Help: "HTTP requests currently being served.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"code", "method"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: durationBuckets,
		}, []string{"code", "method"}),
		httpRequestSize: factory.NewSummaryVec(prometheus.SummaryOpts{
			Name: "http_request_size_bytes",
			Help: "HTTP request sizes.",
		}, []string{"code", "method"}),
		httpResponseSize: factory.NewSummaryVec(prometheus.SummaryOpts{
			Name: "http_response_size_bytes",
			Help: "HTTP response sizes.",
		}, []string{"code", "method"}),
	}
}

// InstrumentHandler wraps next with in-flight, count, duration, and size
// instrumentation.
func (r *Recorder) InstrumentHandler(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return promhttp.InstrumentHandlerInFlight(r.httpInFlight,
		promhttp.InstrumentHandlerDuration(r.httpDuration,
			promhttp.InstrumentHandlerCounter(r.httpRequests,
				promhttp.InstrumentHandlerRequestSize(r.httpRequestSize,
					promhttp.InstrumentHandlerResponseSize(r.httpResponseSize, next)))))
}

// RecordScan records one successful scan. Every pattern in the active set
// gets a series, zero-valued when it matched nothing, so dashboards can see
// patterns going quiet.
func (r *Recorder) RecordScan(result *housekeeper.ScanResult, duration time.Duration) {
	if r == nil {
		return
	}
	for _, pattern := range result.Patterns {
		n := float64(result.PatternMatches[pattern])
		r.scanFilesFound.WithLabelValues(result.Directory, pattern).Add(n)
		r.scanCurrentFiles.WithLabelValues(result.Directory, pattern).Set(n)
	}
	r.scanDirSize.WithLabelValues(result.Directory).Set(float64(result.TotalSize))
	r.scanDuration.WithLabelValues(result.Directory).Observe(duration.Seconds())
}

// RecordCleanup records one successful cleanup. Found counts reflect the
// scan regardless of removal outcomes; removed counts come from the
// removed-file list; the current-files gauge holds what is left behind.
func (r *Recorder) RecordCleanup(result *housekeeper.CleanupResult, duration time.Duration) {
	if r == nil {
		return
	}
	dryRun := strconv.FormatBool(result.DryRun)
	removed := countByPattern(result.RemovedFiles)
	for _, pattern := range result.Patterns {
		f := float64(result.PatternMatches[pattern])
		rm := float64(removed[pattern])
		r.cleanupFilesFound.WithLabelValues(result.Directory, pattern, dryRun).Add(f)
		r.cleanupFilesRemoved.WithLabelValues(result.Directory, pattern, dryRun).Add(rm)
		remaining := f
		if !result.DryRun {
			remaining = f - rm
		}
		r.cleanupCurrentFiles.WithLabelValues(result.Directory, pattern, dryRun).Set(remaining)
	}
	r.cleanupDirSize.WithLabelValues(result.Directory).Set(float64(result.TotalSize))
	r.cleanupDuration.WithLabelValues(result.Directory).Observe(duration.Seconds())
}

// RecordComparison records one successful comparison. Gauges are set, not
// added, so an empty result zeroes them out.
func (r *Recorder) RecordComparison(result *housekeeper.ComparisonResult, duration time.Duration) {
	if r == nil {
		return
	}
	r.comparisonDuplicates.WithLabelValues(result.CleanupDirectory, result.TargetDirectory).
		Set(float64(result.DuplicateCount))
	r.comparisonNonDuplicates.WithLabelValues(result.CleanupDirectory, result.TargetDirectory).
		Set(float64(result.NonDuplicateCount))
	r.comparisonDuration.WithLabelValues(result.CleanupDirectory, result.TargetDirectory).
		Observe(duration.Seconds())
}

// RecordMove records one successful move batch.
func (r *Recorder) RecordMove(result *housekeeper.MoveResult, duration time.Duration) {
	if r == nil {
		return
	}
	dryRun := strconv.FormatBool(result.DryRun)
	r.moveDuplicatesFound.WithLabelValues(result.CleanupDirectory, result.TargetDirectory, dryRun).
		Set(float64(result.DuplicatesFound))
	r.moveDirectoriesMoved.WithLabelValues(result.CleanupDirectory, result.TargetDirectory, dryRun).
		Set(float64(result.DirectoriesMoved))
	r.moveBatchOperations.WithLabelValues(result.CleanupDirectory, result.TargetDirectory,
		strconv.Itoa(result.BatchSize), dryRun).Inc()
	r.moveDuration.WithLabelValues(result.CleanupDirectory, result.TargetDirectory).
		Observe(duration.Seconds())
}

// RecordError records a failed operation by error classification.
func (r *Recorder) RecordError(operation, directory, target, errorType string) {
	if r == nil {
		return
	}
	switch operation {
	case "scan":
		r.scanErrors.WithLabelValues(directory, errorType).Inc()
	case "cleanup":
		r.cleanupErrors.WithLabelValues(directory, errorType).Inc()
	case "comparison":
		r.comparisonErrors.WithLabelValues(directory, target, errorType).Inc()
	case "move":
		r.moveErrors.WithLabelValues(directory, target, errorType).Inc()
	}
}

func countByPattern(files []housekeeper.MatchedFile) map[string]int {
	counts := make(map[string]int, len(files))
	for _, f := range files {
		counts[f.Pattern]++
	}
	return counts
}
