package collector

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/orbitlytics/neocollector/internal/config"
	"github.com/orbitlytics/neocollector/internal/logging"
	"github.com/orbitlytics/neocollector/internal/postgres"
)

func newInitCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Creates the collection tables and the run state row",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := config.NewFromFile(configPath)
			if err != nil {
				return err
			}

			logger, err := logging.New(c.Global.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("collector.init")

			pool, err := pgxpool.New(ctx, c.Collector.Database.ConnectionString)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pool.Ping(ctx); err != nil {
				return err
			}

			lock := postgres.NewRunLock(pool, postgres.WithLockLogger(l))
			if err := lock.EnsureState(ctx); err != nil {
				return err
			}

			store := postgres.NewStore(pool, postgres.WithStoreLogger(l))
			if err := store.EnsureTable(ctx); err != nil {
				return err
			}

			l.Info("initialized collection state")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
