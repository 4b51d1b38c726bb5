package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/siteinsight/internal/simulate"
	"github.com/blackwell-systems/siteinsight/internal/tools"
)

func newTestServer() *Server {
	reg := tools.NewRegistry(simulate.NewStore(simulate.ModeStatic, 0), func() time.Time {
		return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	})
	return New(reg, nil, "test")
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestRoot(t *testing.T) {
	w, body := do(t, newTestServer(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Name, body["name"])
	assert.Equal(t, "test", body["version"])
	assert.Len(t, body["available_tools"], 5)
}

func TestTools(t *testing.T) {
	w, body := do(t, newTestServer(), http.MethodGet, "/tools", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, body, "get_top_pages")
	desc := body["get_top_pages"].(map[string]any)
	assert.Equal(t, "Get top performing pages by page views", desc["description"])
}

func TestCallTool_Traffic(t *testing.T) {
	w, body := do(t, newTestServer(), http.MethodPost, "/call_tool",
		`{"tool_name":"get_traffic_metrics","parameters":{"start_date":"2024-01-01","end_date":"2024-01-31"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1000.0, body["sessions"])
	dr := body["date_range"].(map[string]any)
	assert.Equal(t, "2024-01-01", dr["start_date"])
}

func TestCallTool_UnknownTool(t *testing.T) {
	w, body := do(t, newTestServer(), http.MethodPost, "/call_tool", `{"tool_name":"get_revenue"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Unknown tool: get_revenue", body["error"])
}

func TestCallTool_MissingName(t *testing.T) {
	w, _ := do(t, newTestServer(), http.MethodPost, "/call_tool", `{"parameters":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallTool_BadBody(t *testing.T) {
	w, _ := do(t, newTestServer(), http.MethodPost, "/call_tool", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallTool_InvalidParams(t *testing.T) {
	w, body := do(t, newTestServer(), http.MethodPost, "/call_tool",
		`{"tool_name":"get_traffic_metrics","parameters":{"start_date":"soon"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "Tool execution failed")
}

func TestNamedTool(t *testing.T) {
	s := newTestServer()

	w, body := do(t, s, http.MethodPost, "/tools/get_top_pages", `{"parameters":{"limit":3}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["top_pages"], 3)

	w, _ = do(t, s, http.MethodPost, "/tools/get_traffic_sources", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = do(t, s, http.MethodPost, "/tools/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Tool 'nope' not found", body["detail"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer()
	w, body := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])

	do(t, s, http.MethodPost, "/call_tool", `{"tool_name":"get_demographic_data"}`)

	w, _ = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	text := w.Body.String()
	assert.Contains(t, text, "siteinsight_http_requests_total")
	assert.Contains(t, text, `siteinsight_tool_calls_total{outcome="ok",tool="get_demographic_data"} 1`)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer().Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
