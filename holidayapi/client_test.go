package holidayapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/capacity-engine/holidayapi"
)

const frHolidays2026 = `[
	{"date":"2026-01-01","localName":"Jour de l'an","name":"New Year's Day","countryCode":"FR","global":true,"types":["Public"]},
	{"date":"2026-05-01","localName":"Fête du Travail","name":"Labour Day","countryCode":"FR","global":true,"types":["Public"]}
]`

func newAPIServer(t *testing.T) (*httptest.Server, *holidayapi.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/AvailableCountries":
			w.Write([]byte(`[{"countryCode":"FR","name":"France"},{"countryCode":"DE","name":"Germany"}]`))
		case "/PublicHolidays/2026/FR":
			w.Write([]byte(frHolidays2026))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, holidayapi.NewClient(nil, holidayapi.WithBaseURL(srv.URL))
}

func TestClient_AvailableCountries(t *testing.T) {
	_, client := newAPIServer(t)

	countries, err := client.AvailableCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "FR", countries[0].CountryCode)
	assert.Equal(t, "France", countries[0].Name)
}

func TestClient_PublicHolidays(t *testing.T) {
	_, client := newAPIServer(t)

	holidays, err := client.PublicHolidays(context.Background(), "FR", 2026)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "2026-01-01", holidays[0].Date)
	assert.Equal(t, "Jour de l'an", holidays[0].LocalName)
	assert.Equal(t, "New Year's Day", holidays[0].Name)
	assert.True(t, holidays[0].Global)
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	_, client := newAPIServer(t)

	_, err := client.PublicHolidays(context.Background(), "XX", 2026)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api error")
}

func TestClient_NetworkErrorIsError(t *testing.T) {
	srv, client := newAPIServer(t)
	srv.Close()

	_, err := client.AvailableCountries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
}
