package proxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(origins Origins) *mux.Router {
	r := mux.NewRouter()
	Register(r, origins, NewTransport(5*time.Second, nil), logging.Nop(), metrics.NewCollector())
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRelayCopiesBearerAndReserializesBody(t *testing.T) {
	backend, seen := newBackend(t, nil)
	router := newTestRouter(Origins{Public: backend.URL})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/42/suspend", strings.NewReader(`{ "reason" : "spam",  "days": 7 }`))
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := serve(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "/api/admin/users/42/suspend", seen.uri)
	assert.Equal(t, "Bearer abc.def.ghi", seen.header.Get("Authorization"))
	assert.Equal(t, "application/json", seen.header.Get("Content-Type"))
	assert.Equal(t, "application/json", seen.header.Get("Accept"))
	assert.Equal(t, `{"days":7,"reason":"spam"}`, seen.body)
}

func TestRelayStrictBodyRejectsInvalidJSON(t *testing.T) {
	backend, seen := newBackend(t, nil)
	router := newTestRouter(Origins{API: backend.URL})

	for _, body := range []string{`{oops`, `{"reason":"spam"} not json`, `{"days":7}}`} {
		rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/admin/users/42/suspend", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	rec := serve(router, httptest.NewRequest(http.MethodPatch, "/api/admin/users/42", strings.NewReader(``)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, seen.method)
}

func TestRelayLenientBodyFallsBackToEmptyObject(t *testing.T) {
	backend, seen := newBackend(t, nil)
	router := newTestRouter(Origins{Public: backend.URL})

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/admin/listings/7/reject", strings.NewReader(`not json`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", seen.body)

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/api/admin/listings/7/reject", strings.NewReader(`{"reason":"spam"} trailing`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", seen.body)

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/api/admin/listings/7/approve", strings.NewReader(`{"note":"ok"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"note":"ok"}`, seen.body)
	assert.Equal(t, "/api/admin/listings/7/approve", seen.uri)
}

func TestRelayFixedBodies(t *testing.T) {
	backend, seen := newBackend(t, nil)
	router := newTestRouter(Origins{Public: backend.URL})

	serve(router, httptest.NewRequest(http.MethodPost, "/api/admin/users/3/activate", strings.NewReader(`{"ignored":true}`)))
	assert.Equal(t, "{}", seen.body)

	serve(router, httptest.NewRequest(http.MethodPost, "/api/admin/users/3/verify", strings.NewReader(`{"ignored":true}`)))
	assert.Empty(t, seen.body)
	assert.Equal(t, http.MethodPost, seen.method)
}

func TestRelayEmptyBearer(t *testing.T) {
	backend, seen := newBackend(t, nil)
	router := newTestRouter(Origins{Public: backend.URL})

	serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	// the server side trims the trailing space of "Bearer "
	assert.Equal(t, "Bearer", strings.TrimSpace(seen.header.Get("Authorization")))
}

func TestRelayQueryHandling(t *testing.T) {
	backend, seen := newBackend(t, nil)
	router := newTestRouter(Origins{Public: backend.URL})

	serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/listings?status=pending&page=2", nil))
	assert.Equal(t, "/api/admin/listings?status=pending&page=2", seen.uri)

	serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/listings/flagged?page=2", nil))
	assert.Equal(t, "/api/admin/listings/flagged", seen.uri)
}

func TestRelayUpstreamResponses(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantBody string
	}{
		{"json error relayed", http.StatusForbidden, `{"message":"forbidden"}`, http.StatusForbidden, `{"message":"forbidden"}`},
		{"empty body", http.StatusNoContent, ``, http.StatusNoContent, ``},
		{"non-json body", http.StatusOK, `<html>`, http.StatusBadGateway, ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			router := newTestRouter(Origins{Public: backend.URL})

			rec := serve(router, httptest.NewRequest(http.MethodDelete, "/api/admin/users/5", nil))
			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantCode == http.StatusBadGateway {
				assert.Contains(t, rec.Body.String(), "non-JSON")
			}
		})
	}
}

func TestRelayWithoutOrigin(t *testing.T) {
	router := newTestRouter(Origins{Auth: "https://auth.example.bg"})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"API base URL is not configured"}`, rec.Body.String())
}

func TestRelayNetworkFailure(t *testing.T) {
	backend, _ := newBackend(t, nil)
	origin := backend.URL
	backend.Close()
	router := newTestRouter(Origins{Public: origin})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRegisterForwarders(t *testing.T) {
	backend, seen := newBackend(t, nil)
	router := newTestRouter(Origins{API: backend.URL})

	cases := []struct {
		method   string
		path     string
		wantCode int
		wantURI  string
	}{
		{http.MethodGet, "/api/apiaries", http.StatusOK, "/api/apiaries"},
		{http.MethodDelete, "/api/apiaries/3/hives/1", http.StatusOK, "/api/apiaries/3/hives/1"},
		{http.MethodPost, "/api/listings", http.StatusOK, "/api/listings"},
		{http.MethodDelete, "/api/listings", http.StatusMethodNotAllowed, ""},
		{http.MethodOptions, "/api/add-apiary", http.StatusOK, "/api/add-apiary"},
		{http.MethodGet, "/api/add-apiary", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/api/beekeepers", http.StatusOK, "/api/beekeepers"},
		{http.MethodPost, "/api/swarm-alerts", http.StatusOK, "/api/swarm-alerts"},
		{http.MethodGet, "/api/treatment-reports?year=2024", http.StatusOK, "/api/treatment-reports?year=2024"},
		{http.MethodHead, "/api/apiaries", http.StatusOK, "/api/apiaries"},
		{http.MethodHead, "/api/apiaries/1", http.StatusOK, "/api/apiaries/1"},
		{http.MethodHead, "/api/listings", http.StatusOK, "/api/listings"},
		{http.MethodHead, "/api/beekeepers", http.StatusOK, "/api/beekeepers"},
		{http.MethodHead, "/api/swarm-alerts", http.StatusOK, "/api/swarm-alerts"},
		{http.MethodHead, "/api/add-apiary", http.StatusMethodNotAllowed, ""},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			seen.uri = ""
			rec := serve(router, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantURI, seen.uri)
			if tc.wantURI != "" {
				assert.Equal(t, tc.method, seen.method)
			}
		})
	}
}

func TestRegisterAuthForwarderOrigins(t *testing.T) {
	router := newTestRouter(Origins{API: "https://api.example.bg"})

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "API base URL is not configured")

	backend, seen := newBackend(t, nil)
	router = newTestRouter(Origins{API: "https://api.example.bg", Public: backend.URL})
	rec = serve(router, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.bg"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/auth/login", seen.uri)
	assert.Equal(t, `{"email":"a@b.bg"}`, seen.body)
}
