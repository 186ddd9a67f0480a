package proxy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSite(t *testing.T, rawURL string) *Site {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return NewSite(u, NewTransport(5*time.Second, nil), logging.Nop(), metrics.NewCollector())
}

func TestSiteRelaysPages(t *testing.T) {
	backend, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<h1>Пазар</h1>"))
	})
	site := newTestSite(t, backend.URL)

	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/market?page=2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>Пазар</h1>", rec.Body.String())
	assert.Equal(t, "/market?page=2", seen.uri)
}

func TestSiteNotFoundRendersErrorPage(t *testing.T) {
	backend, seen := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=600")
		w.Write([]byte("not here"))
	})
	site := newTestSite(t, backend.URL)

	rec := httptest.NewRecorder()
	site.NotFound().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users?x=1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/404", seen.uri)
	assert.Equal(t, "not here", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestSiteUnavailable(t *testing.T) {
	backend, _ := newBackend(t, nil)
	origin := backend.URL
	backend.Close()
	site := newTestSite(t, origin)

	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	site.NotFound().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
