package config

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal/collector"
	"github.com/orbitlytics/neocollector/internal/feed"
	"github.com/orbitlytics/neocollector/internal/postgres"
)

// InitializeCollector wires the collector from config: connection pool,
// store, run lock, feed client and pacer. The returned pool is owned by the
// caller.
func InitializeCollector(ctx context.Context, c *Config, logger *zap.Logger) (*collector.Collector, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, c.Collector.Database.ConnectionString)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	feedOpts := []feed.Option{
		feed.WithLogger(logger.Named("feed")),
	}
	if c.Collector.Feed.URL != "" {
		feedOpts = append(feedOpts, feed.WithBaseURL(c.Collector.Feed.URL))
	}
	client := feed.NewClient(c.Collector.Feed.APIKey, feedOpts...)

	startDate, err := collector.ParseDate(c.Collector.StartDate)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	pace, err := c.Collector.Feed.PaceDuration()
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	col := collector.New(
		collector.WithLogger(logger.Named("collector")),
		collector.WithFeed(client),
		collector.WithStore(postgres.NewStore(pool, postgres.WithStoreLogger(logger.Named("store")))),
		collector.WithLock(postgres.NewRunLock(pool, postgres.WithLockLogger(logger.Named("lock")))),
		collector.WithPacer(collector.NewInterval(pace)),
		collector.WithStartDate(startDate),
		collector.WithWindowDays(c.Collector.Feed.WindowDays),
	)

	return col, pool, nil
}
