package forecast

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"beegate/internal/httputils"
	"beegate/internal/observability/logging"

	"github.com/gorilla/mux"
)

// Source names the upstream in responses
const Source = "open-meteo"

// Location is the default place used when the query names none
type Location struct {
	Lat    float64
	Lng    float64
	Region string
}

// Provider fetches conditions for a coordinate
type Provider interface {
	Conditions(ctx context.Context, lat, lng float64) (*Conditions, error)
}

// Response is the body of GET /api/forecast
type Response struct {
	Forecast Forecast `json:"forecast"`
	Source   string   `json:"source"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler serves /api/forecast
type Handler struct {
	provider Provider
	defaults Location
	logger   *logging.Logger
}

// NewHandler creates the forecast handler
func NewHandler(provider Provider, defaults Location, logger *logging.Logger) *Handler {
	return &Handler{provider: provider, defaults: defaults, logger: logger.WithModule("forecast")}
}

// Register mounts the forecast route on r
func (h *Handler) Register(r *mux.Router) {
	r.Path("/api/forecast").Methods(http.MethodGet).Name("forecast").Handler(h)
}

func coordinate(q url.Values, key string, fallback, limit float64) (float64, bool) {
	if !q.Has(key) {
		return fallback, true
	}
	v, err := strconv.ParseFloat(q.Get(key), 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) > limit {
		return 0, false
	}
	return v, true
}

// Location reads lat, lng and region from the query, defaulting each missing value
func (h *Handler) Location(q url.Values) (Location, bool) {
	lat, ok := coordinate(q, "lat", h.defaults.Lat, 90)
	if !ok {
		return Location{}, false
	}
	lng, ok := coordinate(q, "lng", h.defaults.Lng, 180)
	if !ok {
		return Location{}, false
	}
	region := h.defaults.Region
	if q.Has("region") {
		region = q.Get("region")
	}
	return Location{Lat: lat, Lng: lng, Region: region}, true
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContextOr(r.Context(), h.logger)

	loc, ok := h.Location(r.URL.Query())
	if !ok {
		httputils.WriteJSON(w, http.StatusBadRequest, errorBody{
			Error:   "Invalid coordinates",
			Message: "lat must be within ±90 and lng within ±180",
		})
		return
	}

	cond, err := h.provider.Conditions(r.Context(), loc.Lat, loc.Lng)
	if err != nil {
		logger.Error("Forecast fetch failed", "lat", loc.Lat, "lng", loc.Lng, logging.Err(err))
		httputils.WriteJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "Failed to fetch forecast data",
			Message: err.Error(),
		})
		return
	}

	httputils.WriteJSON(w, http.StatusOK, Response{Forecast: Derive(loc.Region, cond), Source: Source})
}
