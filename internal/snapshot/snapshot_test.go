package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/orbitlytics/neocollector/internal"
	"github.com/orbitlytics/neocollector/internal/catalog"
	"github.com/orbitlytics/neocollector/internal/local"
	"github.com/orbitlytics/neocollector/internal/parquet"
	"github.com/orbitlytics/neocollector/internal/postgres"
)

func startPostgres(t *testing.T, ctx context.Context) *sql.DB {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16",
		tcpostgres.WithDatabase("test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate pgContainer: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func seedTable(t *testing.T, ctx context.Context, db *sql.DB, n int) {
	t.Helper()

	_, err := db.ExecContext(ctx, `
CREATE TABLE neo (
    id BIGSERIAL PRIMARY KEY,
    neo_reference_id VARCHAR(4) NOT NULL,
    name TEXT NOT NULL,
    nasa_jpl_url TEXT NOT NULL,
    absolute_magnitude_h NUMERIC NOT NULL,
    is_potentially_hazardous_asteroid BOOLEAN NOT NULL,
    is_sentry_object BOOLEAN NOT NULL,
    estimated_diameter_min NUMERIC NOT NULL,
    estimated_diameter_max NUMERIC NOT NULL,
    close_approach_datetime TIMESTAMPTZ NOT NULL,
    relative_velocity NUMERIC NOT NULL,
    miss_distance NUMERIC NOT NULL,
    orbiting_body TEXT NOT NULL
)`)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		_, err := db.ExecContext(ctx, `
INSERT INTO neo (
    neo_reference_id, name, nasa_jpl_url, absolute_magnitude_h,
    is_potentially_hazardous_asteroid, is_sentry_object,
    estimated_diameter_min, estimated_diameter_max,
    close_approach_datetime, relative_velocity, miss_distance, orbiting_body
) VALUES ('1234', '(2021 AB)', 'http://ssd.jpl.nasa.gov/sbdb.cgi?sstr=2021AB',
    21.7, true, false, 0.01, 0.02, '1982-12-10T12:00:00Z', 32156.1234,
    1234567.89, 'Earth')`)
		require.NoError(t, err)
	}
}

func TestIntegrationSnapshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := startPostgres(t, ctx)
	seedTable(t, ctx, db, 5)

	sid := uuid.Must(uuid.NewUUID())
	dir := t.TempDir()

	var repo internal.Repository = local.New(dir, local.WithPrefix(sid.String()))

	preserver, err := parquet.New(
		parquet.WithSchema(parquet.NeoSchema()),
		parquet.WithRepository(repo),
		parquet.WithBatchSizeNumRecords(2),
	)
	require.NoError(t, err)

	s := New(
		WithSource(NewSource(db)),
		WithPreserver(preserver),
		WithRepository(repo),
	)

	cat, err := s.Run(ctx, sid)
	require.NoError(t, err)

	assert.Equal(t, postgres.Table, cat.Table)
	assert.Equal(t, 5, cat.NumSourceRecords)
	assert.Equal(t, 5, cat.NumRecordsProcessed)
	assert.Equal(t, 3, cat.NumParts)
	assert.True(t, cat.Success)

	for _, name := range []string{"part-00000.parquet", "part-00001.parquet", "part-00002.parquet"} {
		_, err := os.Stat(filepath.Join(dir, sid.String(), name))
		assert.NoError(t, err, name)
	}

	bs, err := os.ReadFile(filepath.Join(dir, sid.String(), "catalog.json"))
	require.NoError(t, err)

	var fromDisk catalog.Catalog
	require.NoError(t, json.Unmarshal(bs, &fromDisk))
	assert.Equal(t, sid.String(), fromDisk.SnapshotID)
	assert.True(t, fromDisk.Success)
}
