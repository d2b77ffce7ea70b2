package collector

import (
	"time"

	"github.com/google/uuid"
)

type WindowStatus string

const (
	WindowOK           WindowStatus = "ok"
	WindowFetchFailed  WindowStatus = "fetch_failed"
	WindowInsertFailed WindowStatus = "insert_failed"
	WindowPartial      WindowStatus = "mapping_partial"
)

// WindowResult is the typed outcome of one request window.
type WindowResult struct {
	Start           time.Time    `json:"window_start"`
	Status          WindowStatus `json:"status"`
	RecordsInserted int64        `json:"records_inserted"`
	Errors          []string     `json:"errors,omitempty"`
}

// Summary is the structured record of one run, collected window by window
// instead of scattered across log lines.
type Summary struct {
	RunID           uuid.UUID      `json:"run_id"`
	EndDate         time.Time      `json:"end_date"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     time.Time      `json:"completed_at"`
	Requests        int            `json:"requests"`
	RecordsInserted int64          `json:"records_inserted"`
	Windows         []WindowResult `json:"windows"`
}

func NewSummary(endDate time.Time) *Summary {
	return &Summary{
		RunID:     uuid.Must(uuid.NewUUID()),
		EndDate:   endDate,
		StartedAt: time.Now().UTC(),
	}
}

func (s *Summary) Add(result WindowResult) {
	s.Windows = append(s.Windows, result)
	s.RecordsInserted += result.RecordsInserted
}

func (s *Summary) Finish() {
	s.CompletedAt = time.Now().UTC()
}

func (s *Summary) WindowsFailed() int {
	var n int
	for _, w := range s.Windows {
		if w.Status == WindowFetchFailed || w.Status == WindowInsertFailed {
			n++
		}
	}
	return n
}
