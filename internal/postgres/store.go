// Package postgres owns durability for the collector: the destination table
// for flattened NEO rows and the singleton run-state row that backs the
// single-flight lock.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal"
)

// Table is the destination relation for NeoRecord rows.
const Table = "neo"

// Columns is the insert column list, in NeoRecord field order.
var Columns = []string{
	"neo_reference_id",
	"name",
	"nasa_jpl_url",
	"absolute_magnitude_h",
	"is_potentially_hazardous_asteroid",
	"is_sentry_object",
	"estimated_diameter_min",
	"estimated_diameter_max",
	"close_approach_datetime",
	"relative_velocity",
	"miss_distance",
	"orbiting_body",
}

const createTableStmt = `CREATE TABLE IF NOT EXISTS neo (
	id BIGSERIAL PRIMARY KEY,
	neo_reference_id VARCHAR(4) NOT NULL,
	name VARCHAR(100) NOT NULL,
	nasa_jpl_url VARCHAR(100) NOT NULL,
	absolute_magnitude_h NUMERIC(10, 2) NOT NULL,
	is_potentially_hazardous_asteroid BOOLEAN NOT NULL,
	is_sentry_object BOOLEAN NOT NULL,
	estimated_diameter_min NUMERIC(20, 10) NOT NULL,
	estimated_diameter_max NUMERIC(20, 10) NOT NULL,
	close_approach_datetime TIMESTAMPTZ NOT NULL,
	relative_velocity NUMERIC(30, 10) NOT NULL,
	miss_distance NUMERIC(30, 10) NOT NULL,
	orbiting_body VARCHAR(100) NOT NULL
)`

type StoreOption func(*Store)

func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, opts ...StoreOption) *Store {
	s := &Store{
		pool:   pool,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset destructively recreates the destination table as an empty relation.
// Every run calls this exactly once before its first insert; inserts against
// a stale schema are unsafe, so a failure here is fatal to the run.
func (s *Store) Reset(ctx context.Context) error {
	s.logger.Info("resetting destination table", zap.String("table", Table))

	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS neo`); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, createTableStmt)
	return err
}

// EnsureTable creates the destination table if it does not exist. Unlike
// Reset it never drops data.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, createTableStmt)
	return err
}

// Insert bulk-loads one window's rows in a single COPY.
func (s *Store) Insert(ctx context.Context, records []internal.NeoRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{
			r.ReferenceID,
			r.Name,
			r.NasaJPLURL,
			r.AbsoluteMagnitude,
			r.Hazardous,
			r.SentryObject,
			r.DiameterMinMiles,
			r.DiameterMaxMiles,
			r.CloseApproachAt,
			r.VelocityMPH,
			r.MissDistanceMiles,
			r.OrbitingBody,
		}
	}

	return s.pool.CopyFrom(ctx,
		pgx.Identifier{Table},
		Columns,
		pgx.CopyFromRows(rows),
	)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM neo`).Scan(&n)
	return n, err
}

func (s *Store) Close() {
	s.pool.Close()
}
