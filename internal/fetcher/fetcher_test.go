package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var article = "<html><body><article><h1>Title</h1><p>" +
	strings.Repeat("Plenty of server rendered words here. ", 20) +
	"</p></article></body></html>"

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/doc", http.StatusMovedPermanently)
		case "/doc":
			assert.Contains(t, r.Header.Get("User-Agent"), "copymd")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(article))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New()
	res, err := f.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/doc", res.URL)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, article, string(res.HTML))
	assert.True(t, res.Sufficient)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestIsSufficient(t *testing.T) {
	assert.True(t, IsSufficient([]byte(article)))
	assert.False(t, IsSufficient([]byte("<p>short</p>")))

	shell := `<html><head><script>` + strings.Repeat("var x = 1;", 100) +
		`</script></head><body><div id="root"></div></body></html>`
	assert.False(t, IsSufficient([]byte(shell)))

	scripty := `<html><body><script>` + strings.Repeat("console.log('not text');", 200) + `</script><p>tiny</p></body></html>`
	assert.False(t, IsSufficient([]byte(scripty)))
}
