package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dscleaner/internal/config"
	"dscleaner/internal/shared/testutil"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	cfg.Report.Mode = "minimal"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	app, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

// client talks to a test server and keeps the session cookie between calls
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, app *Application) *client {
	t.Helper()
	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, body
}

func (c *client) get(path string) (*http.Response, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *client) postJSON(path string, payload interface{}) (int, map[string]interface{}) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, body)
	require.NoError(c.t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, raw := c.do(req)
	return resp.StatusCode, decode(c.t, raw)
}

func (c *client) upload(filename string, content []byte) (int, map[string]interface{}) {
	c.t.Helper()
	body, contentType := testutil.MultipartFile(c.t, filename, content)
	req, err := http.NewRequest(http.MethodPost, c.base+"/api/upload", body)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", contentType)
	resp, raw := c.do(req)
	return resp.StatusCode, decode(c.t, raw)
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has a data object: %v", body)
	return d
}

func TestNew_InvalidReportMode(t *testing.T) {
	cfg := testConfig()
	cfg.Report.Mode = "fancy"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_InvalidSweepSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Session.SweepSchedule = "whenever"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestCleaningWorkflow(t *testing.T) {
	app := newTestApp(t, testConfig())
	c := newClient(t, app)

	// nothing uploaded yet
	resp, raw := c.get("/api/summary")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode(t, raw)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No dataset loaded!", body["message"])
	assert.Equal(t, "NO_DATASET_LOADED", body["error_code"])
	assert.NotEmpty(t, body["trace_id"])

	status, body := c.upload("sample.csv", testutil.CSVFixture(testutil.SampleRows))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Dataset uploaded successfully!", body["message"])
	d := data(t, body)
	assert.Equal(t, []interface{}{7.0, 4.0}, d["shape"])
	assert.Equal(t, 1.0, d["duplicate_count"])
	assert.Equal(t, 1.0, d["total_missing"])
	assert.Equal(t, true, d["show_missing_options"])
	assert.Equal(t, true, d["show_duplicate_options"])
	assert.Len(t, d["preview"], 5)

	status, body = c.postJSON("/api/handle_missing", map[string]string{"missing_method": "fill_median"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 0.0, data(t, body)["total_missing"])

	status, body = c.postJSON("/api/remove_duplicates", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []interface{}{6.0, 4.0}, data(t, body)["shape"])
	assert.Equal(t, 0.0, data(t, body)["duplicate_count"])

	status, body = c.postJSON("/api/detect_outliers", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Outliers detected successfully!", body["message"])
	assert.Equal(t, 1.0, data(t, body)["total_outliers"])
	assert.Equal(t, true, data(t, body)["show_outlier_summary"])

	status, body = c.postJSON("/api/remove_outliers", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []interface{}{5.0, 4.0}, data(t, body)["shape"])

	status, body = c.postJSON("/api/train_test_split", map[string]interface{}{
		"target_column": "label",
		"test_size":     0.2,
		"stratify":      "no",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Dataset split successfully!", body["message"])
	assert.Equal(t, []interface{}{4.0, 4.0}, data(t, body)["train_shape"])
	assert.Equal(t, []interface{}{1.0, 4.0}, data(t, body)["test_shape"])

	resp, raw = c.get("/api/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=cleaned_data.csv", resp.Header.Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "id,city,score,label", lines[0])
	assert.Len(t, lines, 6)

	resp, raw = c.get("/api/download/test")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=test_dataset.csv", resp.Header.Get("Content-Disposition"))
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 2)

	// legacy paths share the session
	resp, _ = c.get("/download/train")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = c.get("/profile_report")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(raw), "<html")

	resp, raw = c.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "dataset_operations_total")
	assert.Contains(t, string(raw), "http_requests_total")
	assert.Contains(t, string(raw), "dataset_active_sessions")
}

func TestSessionsAreIsolated(t *testing.T) {
	app := newTestApp(t, testConfig())
	alice := newClient(t, app)
	bob := newClient(t, app)

	status, body := alice.upload("sample.csv", testutil.CSVFixture(testutil.SampleRows))
	require.Equal(t, http.StatusOK, status, body)

	resp, _ := bob.get("/api/summary")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = alice.get("/api/summary")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, app.Sessions.Len())
}

func TestUploadErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxUploadBytes = 1024
	app := newTestApp(t, cfg)
	c := newClient(t, app)

	status, body := c.upload("notes.txt", []byte("a,b\n1,2\n"))
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
	assert.Equal(t, "Unsupported file format! Only CSV or Excel allowed.", body["message"])

	status, body = c.upload("big.csv", bytes.Repeat([]byte("1,2\n"), 1024))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", body["error_code"])
}

func TestUploadExcel(t *testing.T) {
	c := newClient(t, newTestApp(t, testConfig()))

	status, body := c.upload("sheet.xlsx", testutil.XLSXFixture(t, testutil.SampleRows))
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []interface{}{7.0, 4.0}, data(t, body)["shape"])
}

func TestOperationalRoutes(t *testing.T) {
	app := newTestApp(t, testConfig())
	c := newClient(t, app)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/", http.StatusOK, "text/html; charset=utf-8"},
		{"/api/health", http.StatusOK, "application/json"},
		{"/api/health/live", http.StatusOK, "application/json"},
		{"/api/health/ready", http.StatusOK, "application/json"},
		{"/api/version", http.StatusOK, "application/json"},
		{"/api/nope", http.StatusNotFound, "application/json"},
		{"/nope", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, _ := c.get(tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), tt.contentType),
				resp.Header.Get("Content-Type"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, testConfig())
	c := newClient(t, app)

	resp, raw := c.get("/api/upload")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decode(t, raw)["error_code"])
}

func TestRateLimitApplied(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)
	c := newClient(t, app)

	resp, _ := c.get("/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = c.get("/api/health")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	app := newTestApp(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health/live"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
