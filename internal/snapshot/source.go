package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal"
)

// Query reads the collected table in insertion order with the numeric columns
// cast to float8 so scanned values match the parquet schema.
const Query = `
SELECT
    id,
    neo_reference_id,
    name,
    nasa_jpl_url,
    absolute_magnitude_h::float8,
    is_potentially_hazardous_asteroid,
    is_sentry_object,
    estimated_diameter_min::float8,
    estimated_diameter_max::float8,
    close_approach_datetime,
    relative_velocity::float8,
    miss_distance::float8,
    orbiting_body
FROM neo
ORDER BY id`

type SourceOption func(*Source)

func WithSourceLogger(logger *zap.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// Source reads snapshot rows from the collected table through database/sql.
type Source struct {
	db     *sql.DB
	logger *zap.Logger
	table  string
	query  string
}

func NewSource(db *sql.DB, opts ...SourceOption) *Source {
	s := &Source{
		db:     db,
		logger: zap.NewNop(),
		table:  "neo",
		query:  Query,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string {
	return s.table
}

// Count returns the expected count of records in the snapshot.
// TODO execute the count in the same transaction as the snapshot read so the
// two cannot drift under concurrent inserts.
func (s *Source) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM (%s) q", s.query)
	row := s.db.QueryRowContext(ctx, query)
	var c int
	err := row.Scan(&c)
	return c, err
}

func (s *Source) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *Source) Snapshot(ctx context.Context) (*Cursor, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, err
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}

	return &Cursor{
		rows:    rows,
		columns: columns,
	}, nil
}

// Cursor iterates one snapshot's rows. Next returns io.EOF when the rows are
// exhausted.
type Cursor struct {
	rows    *sql.Rows
	columns []string
}

func (c *Cursor) Close() error {
	return c.rows.Close()
}

func (c *Cursor) Next() (*internal.Record, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	values := make([]any, len(c.columns))
	valuePtrs := make([]any, len(c.columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := c.rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	return internal.NewRecord(c.columns, values), nil
}
