package collector

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal/collector"
	"github.com/orbitlytics/neocollector/internal/config"
	"github.com/orbitlytics/neocollector/internal/logging"
)

func newCollectCommand() *cobra.Command {
	var (
		configPath string
		endDate    string
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Runs a full collection through the given end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Reject a bad end date before touching config or the database.
			if !collector.ValidDateFormat(endDate) {
				return fmt.Errorf("end-date %q is not of the format YYYY-MM-DD (e.g. 2020-03-15)", endDate)
			}
			end, err := collector.ParseDate(endDate)
			if err != nil {
				return fmt.Errorf("end-date %q is not a valid date", endDate)
			}

			c, err := config.NewFromFile(configPath)
			if err != nil {
				return err
			}

			logger, err := logging.New(c.Global.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("collector.collect")

			col, pool, err := config.InitializeCollector(ctx, c, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			summary, err := col.Run(ctx, end)
			if err != nil {
				return err
			}

			l.Info("collection finished",
				zap.String("run_id", summary.RunID.String()),
				zap.Int("requests", summary.Requests),
				zap.Int64("records_inserted", summary.RecordsInserted),
				zap.Int("windows", len(summary.Windows)),
				zap.Int("windows_failed", summary.WindowsFailed()),
			)

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.MarkFlagRequired("config")
	cmd.Flags().StringVarP(&endDate, "end-date", "e", "", "Collect through this date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("end-date")

	return cmd
}
