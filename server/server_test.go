package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"bronson/config"
	"bronson/logger"
	"bronson/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	logger.Init("error")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.CleanupDirectory = t.TempDir()
	cfg.TargetDirectory = t.TempDir()
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	srv := httptest.NewServer(New(cfg, metrics.NewRecorder(registry), registry, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, registry
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return decodeResponse(t, resp, wantStatus)
}

func postJSON(t *testing.T, url, body string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return decodeResponse(t, resp, wantStatus)
}

func decodeResponse(t *testing.T, resp *http.Response, wantStatus int) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, resp.StatusCode, data)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("invalid JSON response %q: %v", data, err)
	}
	return payload
}

func seedFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRootAndVersionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	root := getJSON(t, srv.URL+"/", http.StatusOK)
	if root["message"] != "Welcome to Bronson" {
		t.Fatalf("unexpected root message: %v", root["message"])
	}
	ver := getJSON(t, srv.URL+"/version", http.StatusOK)
	if ver["version"] == "" || ver["version"] != root["version"] {
		t.Fatalf("version mismatch: %v vs %v", ver["version"], root["version"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	payload := getJSON(t, srv.URL+"/health", http.StatusOK)
	if payload["status"] != "healthy" || payload["service"] != "bronson" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
	if ts, ok := payload["timestamp"].(float64); !ok || ts <= 0 {
		t.Fatalf("expected positive timestamp, got %v", payload["timestamp"])
	}
}

func TestScanEndpoint(t *testing.T) {
	cfg := testConfig(t)
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "www.YTS.MX.jpg"))
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "sub", "Thumbs.db"))
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "keep.txt"))
	srv, _ := newTestServer(t, cfg)

	payload := getJSON(t, srv.URL+"/api/v1/cleanup/scan", http.StatusOK)
	if payload["files_found"].(float64) != 2 {
		t.Fatalf("expected 2 files found, got %v", payload["files_found"])
	}
	if payload["total_size_bytes"].(float64) != 2 {
		t.Fatalf("expected total size 2, got %v", payload["total_size_bytes"])
	}
	if payload["total_size_human"] == "" {
		t.Fatal("expected a humanized size")
	}

	// Disk untouched: scans never delete.
	if _, err := os.Stat(filepath.Join(cfg.CleanupDirectory, "www.YTS.MX.jpg")); err != nil {
		t.Fatalf("scan removed a file: %v", err)
	}
}

func TestScanEndpointExplicitPatterns(t *testing.T) {
	cfg := testConfig(t)
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "a.tmp"))
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "www.YTS.MX.jpg"))
	srv, _ := newTestServer(t, cfg)

	payload := getJSON(t, srv.URL+`/api/v1/cleanup/scan?pattern=%5C.tmp%24`, http.StatusOK)
	if payload["files_found"].(float64) != 1 {
		t.Fatalf("expected only the .tmp match, got %v", payload["files_found"])
	}
}

func TestScanEndpointErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.CleanupDirectory = "/nonexistent/cleanup"
	srv, _ := newTestServer(t, cfg)

	payload := getJSON(t, srv.URL+"/api/v1/cleanup/scan", http.StatusBadRequest)
	if !strings.Contains(payload["detail"].(string), "not found") {
		t.Fatalf("unexpected detail: %v", payload["detail"])
	}

	cfg2 := testConfig(t)
	srv2, _ := newTestServer(t, cfg2)
	payload = getJSON(t, srv2.URL+"/api/v1/cleanup/scan?pattern=%5Bunclosed", http.StatusBadRequest)
	if !strings.Contains(payload["detail"].(string), "pattern") {
		t.Fatalf("unexpected detail: %v", payload["detail"])
	}
}

func TestScanEndpointProtectedDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path layout")
	}
	cfg := testConfig(t)
	cfg.CleanupDirectory = "/etc"
	srv, _ := newTestServer(t, cfg)

	payload := getJSON(t, srv.URL+"/api/v1/cleanup/scan", http.StatusBadRequest)
	if !strings.Contains(payload["detail"].(string), "protected system location") {
		t.Fatalf("unexpected detail: %v", payload["detail"])
	}
}

func TestCleanupEndpointDefaultsToDryRun(t *testing.T) {
	cfg := testConfig(t)
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "a.tmp"))
	srv, _ := newTestServer(t, cfg)

	payload := postJSON(t, srv.URL+"/api/v1/cleanup/files", "", http.StatusOK)
	if payload["dry_run"] != true {
		t.Fatalf("expected dry_run default true, got %v", payload["dry_run"])
	}
	if payload["files_found"].(float64) != 1 || payload["files_removed"].(float64) != 0 {
		t.Fatalf("unexpected counts: %v", payload)
	}
	if _, err := os.Stat(filepath.Join(cfg.CleanupDirectory, "a.tmp")); err != nil {
		t.Fatalf("dry run removed a file: %v", err)
	}
}

func TestCleanupEndpointRemoves(t *testing.T) {
	cfg := testConfig(t)
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "a.tmp"))
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "keep.txt"))
	srv, _ := newTestServer(t, cfg)

	payload := postJSON(t, srv.URL+"/api/v1/cleanup/files?dry_run=false", "", http.StatusOK)
	if payload["files_removed"].(float64) != 1 {
		t.Fatalf("expected 1 removal, got %v", payload)
	}
	if details, ok := payload["error_details"].([]any); !ok || len(details) != 0 {
		t.Fatalf("expected empty error_details array, got %v", payload["error_details"])
	}
	if _, err := os.Stat(filepath.Join(cfg.CleanupDirectory, "a.tmp")); !os.IsNotExist(err) {
		t.Fatal("a.tmp should be gone")
	}
	if _, err := os.Stat(filepath.Join(cfg.CleanupDirectory, "keep.txt")); err != nil {
		t.Fatalf("keep.txt should survive: %v", err)
	}
}

func TestCleanupEndpointBodyPatterns(t *testing.T) {
	cfg := testConfig(t)
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "a.tmp"))
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "notes.txt"))
	srv, _ := newTestServer(t, cfg)

	payload := postJSON(t, srv.URL+"/api/v1/cleanup/files?dry_run=false", `["notes\\.txt$"]`, http.StatusOK)
	if payload["files_removed"].(float64) != 1 {
		t.Fatalf("expected 1 removal, got %v", payload)
	}
	if _, err := os.Stat(filepath.Join(cfg.CleanupDirectory, "a.tmp")); err != nil {
		t.Fatal("a.tmp should survive a custom-pattern cleanup")
	}
	if _, err := os.Stat(filepath.Join(cfg.CleanupDirectory, "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("notes.txt should be gone")
	}
}

func TestCleanupEndpointBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	payload := postJSON(t, srv.URL+"/api/v1/cleanup/files", `{"not": "an array"}`, http.StatusBadRequest)
	if payload["detail"] == "" {
		t.Fatalf("expected a detail message, got %v", payload)
	}
	postJSON(t, srv.URL+"/api/v1/cleanup/files?dry_run=maybe", "", http.StatusBadRequest)
}

func TestCompareEndpoint(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"movieA", "movieB"} {
		if err := os.Mkdir(filepath.Join(cfg.CleanupDirectory, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for _, name := range []string{"movieB", "movieC"} {
		if err := os.Mkdir(filepath.Join(cfg.TargetDirectory, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	srv, _ := newTestServer(t, cfg)

	payload := getJSON(t, srv.URL+"/api/v1/compare/directories", http.StatusOK)
	if payload["duplicate_count"].(float64) != 1 || payload["non_duplicate_count"].(float64) != 1 {
		t.Fatalf("unexpected counts: %v", payload)
	}
	dups := payload["duplicates"].([]any)
	if len(dups) != 1 || dups[0] != "movieB" {
		t.Fatalf("expected duplicates [movieB], got %v", dups)
	}
	if _, present := payload["cleanup_subdirectories"]; present {
		t.Fatal("listings should require verbose=true")
	}

	verbose := getJSON(t, srv.URL+"/api/v1/compare/directories?verbose=true", http.StatusOK)
	if _, present := verbose["cleanup_subdirectories"]; !present {
		t.Fatal("verbose=true should include cleanup_subdirectories")
	}
	if _, present := verbose["target_subdirectories"]; !present {
		t.Fatal("verbose=true should include target_subdirectories")
	}
}

func TestCompareEndpointNotFound(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetDirectory = "/nonexistent/target"
	srv, _ := newTestServer(t, cfg)

	payload := getJSON(t, srv.URL+"/api/v1/compare/directories", http.StatusNotFound)
	if !strings.Contains(payload["detail"].(string), "not found") {
		t.Fatalf("unexpected detail: %v", payload["detail"])
	}
}

func TestCompareEndpointProtected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path layout")
	}
	cfg := testConfig(t)
	cfg.TargetDirectory = "/etc"
	srv, _ := newTestServer(t, cfg)

	payload := getJSON(t, srv.URL+"/api/v1/compare/directories", http.StatusForbidden)
	if !strings.Contains(payload["detail"].(string), "protected system location") {
		t.Fatalf("unexpected detail: %v", payload["detail"])
	}
}

func TestMoveEndpointDryRunDefault(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Mkdir(filepath.Join(cfg.CleanupDirectory, "only_here"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	srv, _ := newTestServer(t, cfg)

	payload := postJSON(t, srv.URL+"/api/v1/move/non-duplicates", "", http.StatusOK)
	if payload["dry_run"] != true || payload["directories_moved"].(float64) != 1 {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, err := os.Stat(filepath.Join(cfg.CleanupDirectory, "only_here")); err != nil {
		t.Fatalf("dry run moved a directory: %v", err)
	}
}

func TestMoveEndpointExecutes(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"alpha", "beta"} {
		if err := os.Mkdir(filepath.Join(cfg.CleanupDirectory, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	srv, _ := newTestServer(t, cfg)

	payload := postJSON(t, srv.URL+"/api/v1/move/non-duplicates?dry_run=false&batch_size=2", "", http.StatusOK)
	if payload["directories_moved"].(float64) != 2 || payload["remaining_files"].(float64) != 0 {
		t.Fatalf("unexpected payload: %v", payload)
	}
	for _, name := range []string{"alpha", "beta"} {
		if _, err := os.Stat(filepath.Join(cfg.TargetDirectory, name)); err != nil {
			t.Fatalf("%s missing from target: %v", name, err)
		}
	}
}

func TestMoveEndpointBadBatchSize(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	for _, raw := range []string{"0", "-1", "huge"} {
		payload := postJSON(t, srv.URL+"/api/v1/move/non-duplicates?batch_size="+raw, "", http.StatusBadRequest)
		if !strings.Contains(payload["detail"].(string), "batch_size") {
			t.Fatalf("unexpected detail for %q: %v", raw, payload["detail"])
		}
	}
}

func TestMoveEndpointNotFound(t *testing.T) {
	cfg := testConfig(t)
	cfg.CleanupDirectory = "/nonexistent/cleanup"
	srv, _ := newTestServer(t, cfg)
	getJSONStatus := postJSON(t, srv.URL+"/api/v1/move/non-duplicates", "", http.StatusNotFound)
	if !strings.Contains(getJSONStatus["detail"].(string), "not found") {
		t.Fatalf("unexpected detail: %v", getJSONStatus["detail"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	seedFile(t, filepath.Join(cfg.CleanupDirectory, "a.tmp"))
	srv, _ := newTestServer(t, cfg)

	getJSON(t, srv.URL+"/api/v1/cleanup/scan", http.StatusOK)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	exposition := string(body)
	for _, name := range []string{
		"bronson_scan_files_found_total",
		"bronson_scan_directory_size_bytes",
		"http_requests_total",
	} {
		if !strings.Contains(exposition, name) {
			t.Fatalf("expected %s in exposition", name)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	srv := httptest.NewServer(New(cfg, nil, nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 when metrics are disabled, got %d", resp.StatusCode)
	}

	// The API still works without a recorder.
	getJSON(t, srv.URL+"/health", http.StatusOK)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))
	resp, err := http.Post(srv.URL+"/api/v1/cleanup/scan", "application/json", nil)
	if err != nil {
		t.Fatalf("POST scan: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(t))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS headers on cross-origin request")
	}
}
