package proxy

import (
	"net/http"

	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"

	"github.com/gorilla/mux"
)

// AuthMissingOriginMessage is the 500 message of the auth forwarder
const AuthMissingOriginMessage = "Auth API base URL is not configured"

var allMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// route binds a forwarder spec to its inbound methods
type route struct {
	spec    Spec
	methods []string
}

func forwarderRoutes(origins Origins) []route {
	return []route{
		{Spec{Name: "apiaries", ResourcePath: "/api/apiaries", Origin: origins.Default(), Trailing: true}, allMethods},
		{Spec{Name: "auth", ResourcePath: "/api/auth", Origin: origins.AuthService(), Trailing: true, MissingOriginMessage: AuthMissingOriginMessage}, allMethods},
		{Spec{Name: "listings", ResourcePath: "/api/listings", Origin: origins.Default()}, []string{http.MethodGet, http.MethodHead, http.MethodPost}},
		{Spec{Name: "add-apiary", ResourcePath: "/api/add-apiary", Origin: origins.Default()}, []string{http.MethodPost, http.MethodOptions}},
		{Spec{
			Name:                "beekeepers",
			ResourcePath:        "/api/beekeepers",
			Origin:              origins.Default(),
			DefaultCacheControl: "public, s-maxage=60, stale-while-revalidate=120",
		}, []string{http.MethodGet, http.MethodHead}},
		{Spec{Name: "swarm-alerts", ResourcePath: "/api/swarm-alerts", Origin: origins.PublicFirst()}, []string{http.MethodGet, http.MethodHead, http.MethodPost}},
		{Spec{Name: "treatment-reports", ResourcePath: "/api/treatment-reports", Origin: origins.PublicFirst()}, []string{http.MethodGet, http.MethodHead, http.MethodPost}},
	}
}

// AdminRelays lists the admin JSON relays; paths are identical inbound and upstream
var AdminRelays = []RelayRoute{
	{Name: "admin-users", Method: http.MethodGet, Path: "/api/admin/users", KeepQuery: true},
	{Name: "admin-user", Method: http.MethodGet, Path: "/api/admin/users/{id}"},
	{Name: "admin-user-update", Method: http.MethodPatch, Path: "/api/admin/users/{id}", Body: BodyStrict},
	{Name: "admin-user-delete", Method: http.MethodDelete, Path: "/api/admin/users/{id}"},
	{Name: "admin-user-suspend", Method: http.MethodPost, Path: "/api/admin/users/{id}/suspend", Body: BodyStrict},
	{Name: "admin-user-verify", Method: http.MethodPost, Path: "/api/admin/users/{id}/verify"},
	{Name: "admin-user-activate", Method: http.MethodPost, Path: "/api/admin/users/{id}/activate", Body: BodyEmptyObject},
	{Name: "admin-stats", Method: http.MethodGet, Path: "/api/admin/stats"},
	{Name: "admin-listings", Method: http.MethodGet, Path: "/api/admin/listings", KeepQuery: true},
	{Name: "admin-listings-pending", Method: http.MethodGet, Path: "/api/admin/listings/pending"},
	{Name: "admin-listings-flagged", Method: http.MethodGet, Path: "/api/admin/listings/flagged"},
	{Name: "admin-listing-approve", Method: http.MethodPost, Path: "/api/admin/listings/{id}/approve", Body: BodyLenient},
	{Name: "admin-listing-reject", Method: http.MethodPost, Path: "/api/admin/listings/{id}/reject", Body: BodyLenient},
}

// Register mounts every forwarder and admin relay on r
func Register(r *mux.Router, origins Origins, transport http.RoundTripper, logger *logging.Logger, metricsCollector *metrics.Collector) {
	logger = logger.WithModule("proxy")

	for _, rt := range forwarderRoutes(origins) {
		f := NewForwarder(rt.spec, transport, logger, metricsCollector)
		r.Path(rt.spec.ResourcePath).Methods(rt.methods...).Name(rt.spec.Name).Handler(f)
		if rt.spec.Trailing {
			r.Path(rt.spec.ResourcePath + "/{" + PathVar + ":.*}").Methods(rt.methods...).Name(rt.spec.Name + "-deep").Handler(f)
		}
		logger.Debug("Registered forwarder", "name", rt.spec.Name, "path", rt.spec.ResourcePath, "methods", rt.methods)
	}

	relayOrigin := origins.PublicFirst()
	for _, rt := range AdminRelays {
		r.Path(rt.Path).Methods(rt.Method).Name(rt.Name).Handler(NewRelay(rt, relayOrigin, transport, logger, metricsCollector))
	}
}
