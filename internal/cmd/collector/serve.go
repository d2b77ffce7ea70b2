package collector

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orbitlytics/neocollector/internal/collector"
	"github.com/orbitlytics/neocollector/internal/config"
	"github.com/orbitlytics/neocollector/internal/logging"
	"github.com/orbitlytics/neocollector/internal/postgres"
)

const defaultAddr = ":8080"

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the collection trigger service",
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
			l := logger.Named("collector.serve")

			col, pool, err := config.InitializeCollector(ctx, c, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.NewRunLock(pool).EnsureState(ctx); err != nil {
				return err
			}

			collector.RegisterMetrics(prometheus.DefaultRegisterer)

			logMiddleware := func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					start := time.Now()
					ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

					defer func() {
						l.Info("request",
							zap.String("from", r.RemoteAddr),
							zap.String("protocol", r.Proto),
							zap.String("method", r.Method),
							zap.String("path", r.URL.Path),
							zap.Int("status", ww.Status()),
							zap.Int("bytes", ww.BytesWritten()),
							zap.Duration("duration", time.Since(start)),
						)
					}()

					next.ServeHTTP(ww, r)
				})
			}

			r := chi.NewRouter()
			r.Use(logMiddleware)
			r.Use(middleware.Recoverer)

			col.RegisterRoutes(r)

			addr := c.Collector.Server.Addr
			if addr == "" {
				addr = defaultAddr
			}

			l.Info("starting server", zap.String("addr", addr))
			return http.ListenAndServe(addr, r)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.MarkFlagRequired("config")

	return cmd
}
