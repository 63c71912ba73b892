package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/probelabs/wpscope/internal/config"
	"github.com/probelabs/wpscope/internal/fetch"
	"github.com/probelabs/wpscope/internal/wp"
)

// fakeAnalyzer returns a canned result or error and records the request.
type fakeAnalyzer struct {
	result *wp.AnalysisResult
	err    error
	got    wp.AnalysisRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req wp.AnalysisRequest) (*wp.AnalysisResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &wp.AnalysisResult{
		URL:           req.URL,
		IsWordPress:   true,
		Plugins:       []wp.PluginInfo{},
		ScanTimestamp: time.Unix(1000, 0),
	}, nil
}

func testConfig() config.Config {
	return config.Config{
		Server:  config.ServerConfig{Port: 8080, RequestTimeout: 30},
		HTTP:    config.HTTPConfig{TimeoutSeconds: 5, MaxRetries: 1},
		Scanner: config.ScannerConfig{DeepScanConcurrency: 2},
	}
}

func serve(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var env envelope
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeAnalyzer{}, testConfig(), nil)
	rec, _ := serve(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, Version, body["version"])
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAnalyzePost_Success(t *testing.T) {
	t.Parallel()

	fa := &fakeAnalyzer{}
	s := NewServer(fa, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze",
		strings.NewReader(`{"url":"https://example.com","deep_scan":true}`))

	rec, env := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	require.NotNil(t, env.Data)
	require.True(t, env.Data.IsWordPress)
	require.Equal(t, "Site analysis completed successfully", env.Message)

	require.Equal(t, "https://example.com", fa.got.URL)
	require.True(t, fa.got.DeepScan)
}

func TestAnalyzePost_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeAnalyzer{}, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze",
		strings.NewReader(`{not json`))

	rec, env := serve(t, s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
	require.NotEmpty(t, env.Error)
}

func TestAnalyzePost_InvalidURL(t *testing.T) {
	t.Parallel()

	fa := &fakeAnalyzer{err: wp.ErrInvalidURL}
	s := NewServer(fa, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze",
		strings.NewReader(`{"url":""}`))

	rec, env := serve(t, s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
	require.Equal(t, "The provided URL is not valid", env.Message)
}

func TestAnalyzePost_UnreachableTarget(t *testing.T) {
	t.Parallel()

	fa := &fakeAnalyzer{err: errors.New("dial tcp: no such host")}
	s := NewServer(fa, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze",
		strings.NewReader(`{"url":"https://down.example.com"}`))

	// The API call succeeds; the envelope reports the analysis failure.
	rec, env := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, env.Success)
	require.Contains(t, env.Error, "Request error:")
	require.Equal(t, "Failed to connect to the site", env.Message)
}

func TestAnalyzePost_TargetErrorStatus(t *testing.T) {
	t.Parallel()

	fa := &fakeAnalyzer{err: &fetch.StatusError{URL: "https://example.com", StatusCode: 503}}
	s := NewServer(fa, testConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze",
		strings.NewReader(`{"url":"https://example.com"}`))

	rec, env := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, env.Success)
	require.Equal(t, "HTTP error occurred: 503", env.Error)
	require.Equal(t, "Failed to access the site", env.Message)
}

func TestAnalyzeGet_URLInPath(t *testing.T) {
	t.Parallel()

	fa := &fakeAnalyzer{}
	s := NewServer(fa, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/wordpress/analyze/https://example.com?deep_scan=true", nil)

	rec, env := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	require.Equal(t, "https://example.com", fa.got.URL)
	require.True(t, fa.got.DeepScan)
}

func TestAnalyzeGet_CollapsedScheme(t *testing.T) {
	t.Parallel()

	// Proxies and path normalizers collapse the double slash after the scheme.
	fa := &fakeAnalyzer{}
	s := NewServer(fa, testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/wordpress/analyze/https:/example.com", nil)

	rec, _ := serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://example.com", fa.got.URL)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "sekret"
	s := NewServer(&fakeAnalyzer{}, cfg, nil)

	body := func() *strings.Reader { return strings.NewReader(`{"url":"https://example.com"}`) }

	// No key.
	rec, env := serve(t, s, httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze", body()))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, env.Success)

	// Wrong key.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze", body())
	req.Header.Set("X-API-Key", "nope")
	rec, _ = serve(t, s, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Valid header key.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze", body())
	req.Header.Set("X-API-Key", "sekret")
	rec, _ = serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Valid query key.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/wordpress/analyze?api_key=sekret", body())
	rec, _ = serve(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Health stays open.
	rec, _ = serve(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeAnalyzer{}, testConfig(), nil)
	rec, _ := serve(t, s, httptest.NewRequest(http.MethodOptions, "/api/v1/wordpress/analyze", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDocsEndpoints(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeAnalyzer{}, testConfig(), nil)

	rec, _ := serve(t, s, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Contains(t, doc, "openapi")

	rec, _ = serve(t, s, httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "redoc")
}

func TestRestorePathURL(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"https://example.com", "https://example.com"},
		{"https:/example.com", "https://example.com"},
		{"http:/example.com/blog", "http://example.com/blog"},
		{"/https:/example.com", "https://example.com"},
		{"example.com", "example.com"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, restorePathURL(tc.in), "input %q", tc.in)
	}
}
