package forecast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"beegate/internal/observability/logging"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestWindDescription(t *testing.T) {
	cases := []struct {
		speed, direction *float64
		want             string
	}{
		{nil, f(90), "няма информация"},
		{f(1.23), nil, "тих вятър (1.2 м/с)"},
		{f(3), f(0), "лек северен вятър (3.0 м/с)"},
		{f(7.5), f(90), "умерен източен вятър (7.5 м/с)"},
		{f(12), f(200), "силен южен вятър (12.0 м/с)"},
		{f(5), f(337.5), "лек северен вятър (5.0 м/с)"},
		{f(5), f(720 + 315), "лек северозападен вятър (5.0 м/с)"},
		{f(6), f(22.5), "умерен североизточен вятър (6.0 м/с)"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, WindDescription(tc.speed, tc.direction))
	}
}

func TestNectarLevel(t *testing.T) {
	assert.Equal(t, LevelMedium, NectarLevel(nil, f(50), f(20)))
	assert.Equal(t, LevelHigh, NectarLevel(f(5), nil, f(8.1)))
	assert.Equal(t, LevelHigh, NectarLevel(f(25), nil, nil))
	assert.Equal(t, LevelHigh, NectarLevel(f(20), f(40), f(8)))
	assert.Equal(t, LevelMedium, NectarLevel(f(25), f(90), nil))
	assert.Equal(t, LevelMedium, NectarLevel(f(34), nil, nil))
	assert.Equal(t, LevelLow, NectarLevel(f(35), nil, nil))
	assert.Equal(t, LevelLow, NectarLevel(f(10), f(60), f(0)))
}

func TestNotes(t *testing.T) {
	i := func(v int) *int { return &v }

	assert.Nil(t, Notes(nil))
	assert.Equal(t, "Температурите са подходящи за активна работа на пчелите.", *Notes(i(18)))
	assert.Equal(t, "Студено време – ограничете отварянето на кошерите.", *Notes(i(9)))
	assert.Equal(t, "Следете влагата и осигурете проветрение на кошерите.", *Notes(i(12)))
	assert.Equal(t, "Следете влагата и осигурете проветрение на кошерите.", *Notes(i(31)))
}

func TestDerive(t *testing.T) {
	var c Conditions
	c.Current.Temperature = f(22.5)
	c.Current.Humidity = f(55.4)
	c.Current.WindSpeed = f(4.26)
	c.Current.WindDirection = f(270)
	c.Daily.PrecipitationSum = []*float64{f(1.2), f(0)}

	got := Derive("Пловдив", &c)
	require.NotNil(t, got.TemperatureC)
	assert.Equal(t, 23, *got.TemperatureC)
	assert.Equal(t, 55, *got.Humidity)
	assert.Equal(t, "лек западен вятър (4.3 м/с)", got.Wind)
	assert.Equal(t, LevelHigh, got.NectarLevel)
	assert.Equal(t, "1.2 мм през следващите 24 часа", *got.NextRain)
	assert.Equal(t, "Пловдив", got.Region)

	empty := Derive("x", &Conditions{})
	assert.Nil(t, empty.TemperatureC)
	assert.Nil(t, empty.Humidity)
	assert.Nil(t, empty.NextRain)
	assert.Nil(t, empty.Notes)
	assert.Equal(t, LevelMedium, empty.NectarLevel)
}

func newOpenMeteo(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	seen := &url.Values{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.URL.Query()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func serveForecast(provider Provider, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	NewHandler(provider, Location{Lat: 42.6977, Lng: 23.3219, Region: "София и околностите"}, logging.Nop()).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerDefaults(t *testing.T) {
	srv, seen := newOpenMeteo(t, http.StatusOK, `{
		"current": {"temperature_2m": 8.4, "relative_humidity_2m": 71, "wind_speed_10m": 1.5},
		"daily": {"precipitation_sum": [null]}
	}`)

	rec := serveForecast(NewClient(srv.URL, nil), "/api/forecast")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "42.6977", seen.Get("latitude"))
	assert.Equal(t, "23.3219", seen.Get("longitude"))
	assert.Equal(t, "temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m", seen.Get("current"))
	assert.Equal(t, "precipitation_sum", seen.Get("daily"))
	assert.Equal(t, "auto", seen.Get("timezone"))

	assert.JSONEq(t, `{
		"forecast": {
			"region": "София и околностите",
			"temperatureC": 8,
			"wind": "тих вятър (1.5 м/с)",
			"humidity": 71,
			"nectarLevel": "нисък",
			"nextRain": null,
			"notes": "Студено време – ограничете отварянето на кошерите."
		},
		"source": "open-meteo"
	}`, rec.Body.String())
}

func TestHandlerQueryOverrides(t *testing.T) {
	srv, seen := newOpenMeteo(t, http.StatusOK, `{"current":{},"daily":{}}`)

	rec := serveForecast(NewClient(srv.URL, nil), "/api/forecast?lat=43.2&lng=27.9&region="+url.QueryEscape("Варна"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "43.2", seen.Get("latitude"))
	assert.Equal(t, "27.9", seen.Get("longitude"))
	assert.Contains(t, rec.Body.String(), `"region":"Варна"`)
	assert.Contains(t, rec.Body.String(), `"wind":"няма информация"`)
}

func TestHandlerInvalidCoordinates(t *testing.T) {
	for _, target := range []string{"/api/forecast?lat=abc", "/api/forecast?lng=200", "/api/forecast?lat=NaN"} {
		rec := serveForecast(NewClient("http://127.0.0.1:1", nil), target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlerUpstreamFailure(t *testing.T) {
	srv, _ := newOpenMeteo(t, http.StatusServiceUnavailable, `oops`)

	rec := serveForecast(NewClient(srv.URL, nil), "/api/forecast")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch forecast data","message":"Open-Meteo returned 503"}`, rec.Body.String())
}

type failingProvider struct{}

func (failingProvider) Conditions(context.Context, float64, float64) (*Conditions, error) {
	return nil, context.DeadlineExceeded
}

func TestHandlerProviderError(t *testing.T) {
	rec := serveForecast(failingProvider{}, "/api/forecast")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "context deadline exceeded")
}
