package bearer

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"beegate/internal/auth"
	"beegate/internal/auth/token"
	"beegate/internal/contextutil"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func credential(payload string) string {
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func newAuthenticator() *Authenticator {
	return New(token.NewClaimsOnly(), logging.Nop(), metrics.NewCollector())
}

func TestCredentialCookieWins(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	r.Header.Set("Authorization", "Bearer from-header")

	raw, source := Credential(r)
	assert.Equal(t, "from-cookie", raw)
	assert.Equal(t, auth.SourceCookie, source)
}

func TestCredentialHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: ""})
	r.Header.Set("Authorization", "Bearer from-header")

	raw, source := Credential(r)
	assert.Equal(t, "from-header", raw)
	assert.Equal(t, auth.SourceHeader, source)

	r = httptest.NewRequest(http.MethodGet, "/admin", nil)
	raw, source = Credential(r)
	assert.Empty(t, raw)
	assert.Empty(t, source)
}

func TestMiddlewareStoresIdentity(t *testing.T) {
	a := newAuthenticator()

	var got *auth.Identity
	h := a.GetMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = contextutil.GetIdentity(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.Header.Set("Authorization", "Bearer "+credential(`{"id":"5","role":"admin"}`))
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, got)
	assert.Equal(t, "5", got.ID)
	assert.Equal(t, auth.SourceHeader, got.Source)
}

func TestMiddlewareContinuesAnonymously(t *testing.T) {
	a := newAuthenticator()

	called := false
	h := a.GetMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, contextutil.GetIdentity(r.Context()))
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
