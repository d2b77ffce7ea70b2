package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch(t *testing.T) {
	start := time.Date(1982, 12, 10, 0, 0, 0, 0, time.UTC)

	t.Run("success parses payload and sends window parameters", func(t *testing.T) {
		var gotQuery map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"start_date": r.URL.Query().Get("start_date"),
				"detailed":   r.URL.Query().Get("detailed"),
				"api_key":    r.URL.Query().Get("api_key"),
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"element_count": 1,
				"near_earth_objects": {
					"1982-12-10": [{
						"neo_reference_id": "2021AB1234",
						"name": "(2021 AB)",
						"nasa_jpl_url": "http://ssd.jpl.nasa.gov/sbdb.cgi?sstr=2021AB",
						"absolute_magnitude_h": 21.7,
						"is_potentially_hazardous_asteroid": true,
						"is_sentry_object": false,
						"estimated_diameter": {
							"miles": {"estimated_diameter_min": 0.01, "estimated_diameter_max": 0.02}
						},
						"close_approach_data": [{
							"epoch_date_close_approach": 408326400000,
							"relative_velocity": {"miles_per_hour": "32156.1234"},
							"miss_distance": {"miles": "1234567.89"},
							"orbiting_body": "Earth"
						}]
					}]
				}
			}`))
		}))
		defer srv.Close()

		c := NewClient("test-key", WithBaseURL(srv.URL))
		res, err := c.Fetch(context.Background(), start)
		require.NoError(t, err)

		assert.Equal(t, "1982-12-10", gotQuery["start_date"])
		assert.Equal(t, "false", gotQuery["detailed"])
		assert.Equal(t, "test-key", gotQuery["api_key"])

		assert.Equal(t, 1, res.ElementCount)
		require.Len(t, res.NearEarthObjects["1982-12-10"], 1)
		obj := res.NearEarthObjects["1982-12-10"][0]
		assert.Equal(t, "2021AB1234", obj.NeoReferenceID)
		assert.Equal(t, 0.01, obj.EstimatedDiameter.Miles.Min)
		assert.Equal(t, 0.02, obj.EstimatedDiameter.Miles.Max)
		require.Len(t, obj.CloseApproachData, 1)
		assert.Equal(t, "32156.1234", obj.CloseApproachData[0].RelativeVelocity.MilesPerHour)
	})

	t.Run("non-200 status is a FetchError carrying the URL", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := c.Fetch(context.Background(), start)
		require.Error(t, err)

		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
		assert.Contains(t, fe.URL, "start_date=1982-12-10")
	})

	t.Run("transport failure is a FetchError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		c := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := c.Fetch(context.Background(), start)

		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Error(t, fe.Err)
	})
}
