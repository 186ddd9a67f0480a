package server

import (
	"net/http"

	"beegate/internal/contextutil"
	"beegate/internal/forecast"
	"beegate/internal/news"
	"beegate/internal/observability/logging"
	"beegate/internal/observability/metrics"
	"beegate/internal/proxy"

	"github.com/gorilla/mux"
)

// siteRoute labels requests answered by the page handler
const siteRoute = "site"

// Routes holds everything the router mounts
type Routes struct {
	Origins   proxy.Origins
	Transport http.RoundTripper
	News      *news.Handler
	Forecast  *forecast.Handler

	// Pages answers every path no route claims
	Pages http.Handler

	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// NewRouter builds the gateway router
func NewRouter(rt Routes) *mux.Router {
	r := mux.NewRouter()
	r.Use(routeLabel)

	r.Path("/healthz").Methods(http.MethodGet, http.MethodHead).Name("healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	if rt.News != nil {
		rt.News.Register(r)
	}
	if rt.Forecast != nil {
		rt.Forecast.Register(r)
	}
	proxy.Register(r, rt.Origins, rt.Transport, rt.Logger, rt.Metrics)

	pages := rt.Pages
	if pages == nil {
		pages = http.NotFoundHandler()
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		contextutil.SetRoute(req.Context(), siteRoute)
		pages.ServeHTTP(w, req)
	})

	return r
}

// routeLabel reports the matched route name to the observability middleware
func routeLabel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			contextutil.SetRoute(r.Context(), route.GetName())
		}
		next.ServeHTTP(w, r)
	})
}
