package collector

import (
	"database/sql"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/orbitlytics/neocollector/internal"
	"github.com/orbitlytics/neocollector/internal/config"
	"github.com/orbitlytics/neocollector/internal/local"
	"github.com/orbitlytics/neocollector/internal/logging"
	"github.com/orbitlytics/neocollector/internal/parquet"
	"github.com/orbitlytics/neocollector/internal/s3"
	"github.com/orbitlytics/neocollector/internal/snapshot"
)

func newSnapshotCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Archives the collected table as parquet parts plus a catalog",
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
			l := logger.Named("collector.snapshot")

			sid := uuid.Must(uuid.NewUUID())

			db, err := sql.Open("pgx", c.Collector.Database.ConnectionString)
			if err != nil {
				return err
			}

			if err := db.PingContext(ctx); err != nil {
				db.Close()
				return err
			}

			repoCfg := c.Collector.Snapshot.Repository
			var repository internal.Repository
			switch repoCfg.Type {
			case "local":
				repository = local.New(
					repoCfg.Local.Path,
					local.WithPrefix(sid.String()),
					local.WithLogger(l),
				)
			case "s3":
				repository = s3.New(
					s3.WithLogger(l),
					s3.WithRegion(repoCfg.S3.Region),
					s3.WithBucket(repoCfg.S3.Bucket),
					s3.WithEndpoint(repoCfg.S3.Endpoint),
					s3.WithPrefix(path.Join(repoCfg.S3.Prefix, sid.String())),
					s3.WithForcePathStyle(repoCfg.S3.ForcePathStyle),
				)
			default:
				db.Close()
				return fmt.Errorf("unknown repository type: %s", repoCfg.Type)
			}

			preserverOpts := []parquet.Option{
				parquet.WithLogger(l),
				parquet.WithSchema(parquet.NeoSchema()),
				parquet.WithRepository(repository),
			}
			if c.Collector.Snapshot.BatchSizeNumRecords > 0 {
				preserverOpts = append(preserverOpts,
					parquet.WithBatchSizeNumRecords(c.Collector.Snapshot.BatchSizeNumRecords))
			}

			preserver, err := parquet.New(preserverOpts...)
			if err != nil {
				db.Close()
				return err
			}

			s := snapshot.New(
				snapshot.WithLogger(l),
				snapshot.WithSource(snapshot.NewSource(db, snapshot.WithSourceLogger(l))),
				snapshot.WithPreserver(preserver),
				snapshot.WithRepository(repository),
			)
			defer s.Close(ctx)

			cat, err := s.Run(ctx, sid)
			if err != nil {
				return err
			}

			l.Info("snapshot written",
				zap.String("snapshot_id", cat.SnapshotID),
				zap.Int("num_records_processed", cat.NumRecordsProcessed),
				zap.Int("num_parts", cat.NumParts),
				zap.Bool("success", cat.Success),
			)

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
