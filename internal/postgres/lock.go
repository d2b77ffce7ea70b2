package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrLockUnavailable means the run-state row could not be read or written.
// Callers must treat this as fatal to the attempt; the lock never silently
// defaults to "running" or "not running".
var ErrLockUnavailable = errors.New("postgres: run state unavailable")

// RunState is the singleton persisted lock tuple. StartedAt and EndedAt are
// nil until the first run begins and ends.
type RunState struct {
	Running   bool       `json:"running"`
	StartedAt *time.Time `json:"start_dt"`
	EndedAt   *time.Time `json:"end_dt"`
}

type LockOption func(*RunLock)

func WithLockLogger(logger *zap.Logger) LockOption {
	return func(l *RunLock) {
		l.logger = logger
	}
}

// WithLockNow overrides the clock, for tests.
func WithLockNow(now func() time.Time) LockOption {
	return func(l *RunLock) {
		l.now = now
	}
}

// RunLock is the single-flight guard for collection runs, persisted as one
// row in neo_load. Acquisition is an atomic conditional update, so two
// concurrent attempts cannot both win.
type RunLock struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

func NewRunLock(pool *pgxpool.Pool, opts ...LockOption) *RunLock {
	l := &RunLock{
		pool:   pool,
		logger: zap.NewNop(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EnsureState creates the neo_load relation and its singleton row if absent.
// Run it once before first use; Status treats a missing row as an error, not
// as "not running".
func (l *RunLock) EnsureState(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS neo_load (
			id INT PRIMARY KEY CHECK (id = 1),
			running BOOLEAN NOT NULL,
			start_dt TIMESTAMPTZ,
			end_dt TIMESTAMPTZ
		)`,
		`INSERT INTO neo_load (id, running) VALUES (1, FALSE)
			ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range stmts {
		if _, err := l.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
	}
	return nil
}

// Status reads the singleton run-state row.
func (l *RunLock) Status(ctx context.Context) (RunState, error) {
	var state RunState
	err := l.pool.QueryRow(ctx,
		`SELECT running, start_dt, end_dt FROM neo_load WHERE id = 1`,
	).Scan(&state.Running, &state.StartedAt, &state.EndedAt)
	if err != nil {
		return RunState{}, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	return state, nil
}

// TryAcquire attempts to take the lock. It returns false when another run
// already holds it. The conditional update makes check-and-set atomic.
func (l *RunLock) TryAcquire(ctx context.Context) (bool, error) {
	now := l.now().UTC().Truncate(time.Second)

	tag, err := l.pool.Exec(ctx,
		`UPDATE neo_load SET running = TRUE, start_dt = $1 WHERE id = 1 AND running = FALSE`,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	l.logger.Info("run lock acquired", zap.Time("start_dt", now))
	return true, nil
}

// Release unconditionally marks the run finished.
func (l *RunLock) Release(ctx context.Context) error {
	now := l.now().UTC().Truncate(time.Second)

	_, err := l.pool.Exec(ctx,
		`UPDATE neo_load SET running = FALSE, end_dt = $1 WHERE id = 1`,
		now,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}

	l.logger.Info("run lock released", zap.Time("end_dt", now))
	return nil
}
