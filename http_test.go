package copymd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/copymd/internal/metrics"
)

func newAPI(t *testing.T, cfg ServerConfig) *httptest.Server {
	t.Helper()
	e := NewEngine(EngineConfig{Metrics: metrics.New(), Sanitize: true})
	srv := httptest.NewServer(NewServer(e, cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp, out
}

func TestAPI_Convert(t *testing.T) {
	srv := newAPI(t, ServerConfig{})
	body, err := json.Marshal(ConvertRequest{HTML: page, BaseURL: "https://example.com/blog/post", Selector: "#post"})
	require.NoError(t, err)

	resp, out := post(t, srv.URL+"/v1/convert", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	md, _ := out["markdown"].(string)
	assert.Contains(t, md, "[docs](https://example.com/docs)")
}

func TestAPI_ConvertErrors(t *testing.T) {
	srv := newAPI(t, ServerConfig{MaxBody: 256})
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"no source", `{}`, http.StatusBadRequest},
		{"no match", `{"html":"<p>x</p>","selector":"#nope"}`, http.StatusUnprocessableEntity},
		{"no browser", `{"url":"https://example.com","browser":true}`, http.StatusServiceUnavailable},
		{"too large", `{"html":"` + strings.Repeat("a", 1024) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := post(t, srv.URL+"/v1/convert", tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestAPI_Pages(t *testing.T) {
	srv := newAPI(t, ServerConfig{})

	resp, out := post(t, srv.URL+"/v1/pages", `{"url":"https://example.com","pick":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, out["error"], "no browser")

	resp, _ = post(t, srv.URL+"/v1/pages", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, srv.URL+"/v1/pages/pg_missing/copy", ``)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/pages/pg_missing", nil)
	require.NoError(t, err)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	dresp.Body.Close()
	assert.Equal(t, http.StatusNotFound, dresp.StatusCode)

	lresp, err := http.Get(srv.URL + "/v1/pages")
	require.NoError(t, err)
	defer lresp.Body.Close()
	var list []PageInfo
	require.NoError(t, json.NewDecoder(lresp.Body).Decode(&list))
	assert.Empty(t, list)
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	srv := newAPI(t, ServerConfig{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])

	post(t, srv.URL+"/v1/convert", `{"html":"<p>x</p>"}`)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	data, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `copymd_copies_total{outcome="ok",source="html"} 1`)
}
