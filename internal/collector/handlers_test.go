package collector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlytics/neocollector/internal/feed"
	"github.com/orbitlytics/neocollector/internal/postgres"
)

func decodeBody(res *http.Response, v any) error {
	return json.NewDecoder(res.Body).Decode(v)
}

func newTestServer(c *Collector) *httptest.Server {
	r := chi.NewRouter()
	c.RegisterRoutes(r)
	return httptest.NewServer(r)
}

func postCollect(t *testing.T, srv *httptest.Server, endDate string) *http.Response {
	t.Helper()

	form := url.Values{"end_date": {endDate}}
	res, err := http.Post(srv.URL+"/collect",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	return res
}

func TestHandlers(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		c := newTestCollector(&fakeFeed{}, &fakeStore{}, &fakeLock{}, "1982-12-10")
		srv := newTestServer(c)
		defer srv.Close()

		res, err := http.Get(srv.URL + "/online")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
		var body statusResponse
		require.NoError(t, decodeBody(res, &body))
		assert.Equal(t, "Online", body.Status)
	})

	t.Run("status reports lock state", func(t *testing.T) {
		started := time.Date(2020, 3, 15, 10, 0, 0, 0, time.UTC)
		l := &fakeLock{state: postgres.RunState{Running: true, StartedAt: &started}}
		c := newTestCollector(&fakeFeed{}, &fakeStore{}, l, "1982-12-10")
		srv := newTestServer(c)
		defer srv.Close()

		res, err := http.Get(srv.URL + "/status")
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
		var state postgres.RunState
		require.NoError(t, decodeBody(res, &state))
		assert.True(t, state.Running)
	})

	t.Run("collect launches a detached run", func(t *testing.T) {
		f := &fakeFeed{responses: map[string]*feed.Response{
			"1982-12-10": window(map[string]int{"1982-12-10": 2}),
		}}
		s := &fakeStore{}
		l := &fakeLock{}
		c := newTestCollector(f, s, l, "1982-12-10")
		srv := newTestServer(c)
		defer srv.Close()

		res := postCollect(t, srv, "1982-12-10")
		defer res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
		var body statusResponse
		require.NoError(t, decodeBody(res, &body))
		assert.Equal(t, "Request to collect and store submitted", body.Status)

		assert.Eventually(t, func() bool {
			return l.transitionCount() == 2 && !l.running()
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("collect while running is rejected with the start time", func(t *testing.T) {
		started := time.Date(2020, 3, 15, 10, 0, 0, 0, time.UTC)
		f := &fakeFeed{}
		l := &fakeLock{state: postgres.RunState{Running: true, StartedAt: &started}}
		c := newTestCollector(f, &fakeStore{}, l, "1982-12-10")
		srv := newTestServer(c)
		defer srv.Close()

		res := postCollect(t, srv, "2020-03-20")
		defer res.Body.Close()

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		var body statusResponse
		require.NoError(t, decodeBody(res, &body))
		assert.Contains(t, body.Status, "already running")
		assert.Contains(t, body.Status, "2020-03-15 10:00:00")
		assert.Empty(t, f.calls)
	})

	t.Run("second trigger mid-flight gets 400 and no second run", func(t *testing.T) {
		f := &fakeFeed{block: make(chan struct{})}
		s := &fakeStore{}
		l := &fakeLock{}
		c := newTestCollector(f, s, l, "1982-12-10")
		srv := newTestServer(c)
		defer srv.Close()

		first := postCollect(t, srv, "1982-12-10")
		first.Body.Close()
		require.Equal(t, http.StatusOK, first.StatusCode)

		// Wait for the detached run to take the lock and enter its fetch.
		require.Eventually(t, func() bool {
			return l.running()
		}, time.Second, 10*time.Millisecond)

		second := postCollect(t, srv, "1982-12-10")
		defer second.Body.Close()
		assert.Equal(t, http.StatusBadRequest, second.StatusCode)

		close(f.block)
		require.Eventually(t, func() bool {
			return !l.running()
		}, time.Second, 10*time.Millisecond)

		assert.Len(t, f.calls, 1)
	})

	t.Run("malformed end_date is rejected", func(t *testing.T) {
		c := newTestCollector(&fakeFeed{}, &fakeStore{}, &fakeLock{}, "1982-12-10")
		srv := newTestServer(c)
		defer srv.Close()

		res := postCollect(t, srv, "03/15/2020")
		defer res.Body.Close()

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("unavailable run state is not treated as idle", func(t *testing.T) {
		l := &fakeLock{statusErr: postgres.ErrLockUnavailable}
		f := &fakeFeed{}
		c := newTestCollector(f, &fakeStore{}, l, "1982-12-10")
		srv := newTestServer(c)
		defer srv.Close()

		res := postCollect(t, srv, "2020-03-20")
		defer res.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Empty(t, f.calls)
	})
}
