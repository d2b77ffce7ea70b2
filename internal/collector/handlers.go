package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type statusResponse struct {
	Status string `json:"status"`
}

// Online is a liveness probe.
func (c *Collector) Online(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "Online"})
}

// Status reports the persisted run-lock state.
func (c *Collector) Status(w http.ResponseWriter, r *http.Request) {
	state, err := c.lock.Status(r.Context())
	if err != nil {
		c.logger.Error("run state unavailable", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Run state unavailable"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(state)
}

// Collect triggers a detached collection run through the given end date. It
// answers immediately: 400 when a run is already active, 200 once the run is
// launched. Downstream window failures are never surfaced here; they are
// visible in the log sink and the run summary.
func (c *Collector) Collect(w http.ResponseWriter, r *http.Request) {
	endDate := r.FormValue("end_date")
	if !ValidDateFormat(endDate) {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status: "The value for end_date is not of the correct format: YYYY-MM-DD (e.g. 2020-03-15)",
		})
		return
	}

	end, err := ParseDate(endDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status: fmt.Sprintf("The value for end_date is not a valid date: %s", endDate),
		})
		return
	}

	state, err := c.lock.Status(r.Context())
	if err != nil {
		c.logger.Error("run state unavailable", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "Run state unavailable"})
		return
	}

	if state.Running {
		msg := (&AlreadyRunningError{StartedAt: state.StartedAt}).Error()
		c.logger.Warn("collect request rejected", zap.String("reason", msg))
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status: fmt.Sprintf("The load is already running. It started %s. Please try again later.",
				startedAt(state.StartedAt)),
		})
		return
	}

	// The run outlives the triggering request. Run re-checks the lock
	// atomically, so a racing second trigger ends as a rejected run, not a
	// second pipeline.
	go func() {
		if _, err := c.Run(context.Background(), end); err != nil {
			if IsAlreadyRunning(err) {
				c.logger.Warn("detached run rejected", zap.Error(err))
				return
			}
			c.logger.Error("detached run failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusOK, statusResponse{Status: "Request to collect and store submitted"})
}

func (c *Collector) RegisterRoutes(r *chi.Mux) {
	r.Get("/online", c.Online)
	r.Get("/status", c.Status)
	r.Post("/collect", c.Collect)
	r.Handle("/metrics", MetricsHandler())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func startedAt(t *time.Time) string {
	if t == nil {
		return "at an unknown time"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
