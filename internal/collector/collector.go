// Package collector drives the windowed fetch-transform-load pipeline: take
// the run lock, reset the destination table, walk the date range one feed
// window at a time, and release the lock no matter how the windows went.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal"
	"github.com/orbitlytics/neocollector/internal/feed"
	"github.com/orbitlytics/neocollector/internal/mapper"
	"github.com/orbitlytics/neocollector/internal/postgres"
)

// DefaultStartDate is the fixed lower bound of every run.
const DefaultStartDate = "1982-12-10"

// AlreadyRunningError rejects a run because another one holds the lock.
type AlreadyRunningError struct {
	StartedAt *time.Time
}

func (e *AlreadyRunningError) Error() string {
	if e.StartedAt == nil {
		return "collection is already running"
	}
	return fmt.Sprintf("collection is already running, started %s",
		e.StartedAt.UTC().Format("2006-01-02 15:04:05"))
}

// FeedClient fetches one window of the remote feed.
type FeedClient interface {
	Fetch(ctx context.Context, start time.Time) (*feed.Response, error)
}

// Store is the destination relation.
type Store interface {
	Reset(ctx context.Context) error
	Insert(ctx context.Context, records []internal.NeoRecord) (int64, error)
}

// Lock is the persisted single-flight run guard.
type Lock interface {
	Status(ctx context.Context) (postgres.RunState, error)
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type Option func(*Collector)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

func WithFeed(client FeedClient) Option {
	return func(c *Collector) {
		c.feed = client
	}
}

func WithStore(store Store) Option {
	return func(c *Collector) {
		c.store = store
	}
}

func WithLock(lock Lock) Option {
	return func(c *Collector) {
		c.lock = lock
	}
}

func WithPacer(pacer Pacer) Option {
	return func(c *Collector) {
		c.pacer = pacer
	}
}

func WithStartDate(start time.Time) Option {
	return func(c *Collector) {
		c.startDate = start
	}
}

func WithWindowDays(days int) Option {
	return func(c *Collector) {
		c.windowDays = days
	}
}

type Collector struct {
	logger *zap.Logger
	feed   FeedClient
	store  Store
	lock   Lock
	pacer  Pacer

	startDate  time.Time
	windowDays int
}

func New(opts ...Option) *Collector {
	c := &Collector{
		logger:     zap.NewNop(),
		pacer:      NewInterval(DefaultPace),
		windowDays: feed.WindowDays,
	}
	c.startDate, _ = time.Parse(feed.DateFormat, DefaultStartDate)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one collection over [startDate, endDate]. It returns
// *AlreadyRunningError without mutating anything when the lock is held, and
// releases the lock on every other path, including fatal ones.
func (c *Collector) Run(ctx context.Context, endDate time.Time) (*Summary, error) {
	acquired, err := c.lock.TryAcquire(ctx)
	if err != nil {
		IncRun("failed")
		return nil, err
	}
	if !acquired {
		IncRun("rejected")
		state, serr := c.lock.Status(ctx)
		if serr != nil {
			return nil, &AlreadyRunningError{}
		}
		return nil, &AlreadyRunningError{StartedAt: state.StartedAt}
	}

	SetRunInProgress(true)
	defer func() {
		SetRunInProgress(false)
		if rerr := c.lock.Release(ctx); rerr != nil {
			c.logger.Error("failed to release run lock", zap.Error(rerr))
		}
	}()

	summary := NewSummary(endDate)
	c.logger.Info("run started",
		zap.String("run_id", summary.RunID.String()),
		zap.String("start_date", c.startDate.Format(feed.DateFormat)),
		zap.String("end_date", endDate.Format(feed.DateFormat)),
	)

	if err := c.store.Reset(ctx); err != nil {
		IncRun("failed")
		c.logger.Error("table reset failed, aborting run", zap.Error(err))
		return summary, fmt.Errorf("collector: table reset: %w", err)
	}

	for start := c.startDate; !start.After(endDate); start = start.AddDate(0, 0, c.windowDays) {
		if err := c.pacer.Wait(ctx); err != nil {
			c.logger.Warn("pacing interrupted, stopping run", zap.Error(err))
			break
		}

		summary.Requests++
		result := c.collectWindow(ctx, start, endDate, summary.Requests)
		summary.Add(result)
	}

	summary.Finish()
	IncRun("completed")

	c.logger.Info("run finished",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("requests", summary.Requests),
		zap.Int64("records_inserted", summary.RecordsInserted),
		zap.Int("windows_failed", summary.WindowsFailed()),
		zap.Duration("duration", summary.CompletedAt.Sub(summary.StartedAt)),
	)

	return summary, nil
}

// collectWindow fetches, maps and loads one window. A failed window is
// recorded and skipped; the window advances exactly as on success because
// the upstream windowing is date-based, not request-based.
func (c *Collector) collectWindow(ctx context.Context, start, endDate time.Time, request int) WindowResult {
	result := WindowResult{Start: start, Status: WindowOK}

	c.logger.Info("collecting window",
		zap.Int("request", request),
		zap.String("window_start", start.Format(feed.DateFormat)),
	)

	res, err := c.feed.Fetch(ctx, start)
	if err != nil {
		IncRequest("failed")
		c.logger.Error("window fetch failed", zap.Error(err))
		result.Status = WindowFetchFailed
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	IncRequest("ok")

	records, entryErrs := mapper.Map(res, endDate)
	for _, entryErr := range entryErrs {
		c.logger.Warn("skipping malformed record", zap.Error(entryErr))
		result.Errors = append(result.Errors, entryErr.Error())
	}
	if len(entryErrs) > 0 {
		result.Status = WindowPartial
	}

	inserted, err := c.store.Insert(ctx, records)
	if err != nil {
		c.logger.Error("window insert failed", zap.Error(err))
		result.Status = WindowInsertFailed
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	AddRecordsInserted(inserted)
	result.RecordsInserted = inserted
	return result
}

// IsAlreadyRunning reports whether err is a lock-held rejection.
func IsAlreadyRunning(err error) bool {
	var are *AlreadyRunningError
	return errors.As(err, &are)
}
