package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"crawling_observer/internal/metrics"
	"crawling_observer/internal/notifier"
	"crawling_observer/internal/rpc"
	"crawling_observer/internal/storage/postgres"
)

func newNotifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Send unanalyzed articles and financials to the analysis service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := a.connectDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			collector, err := metrics.New()
			if err != nil {
				return fmt.Errorf("create metrics: %w", err)
			}
			stopMetrics := a.serveMetrics(collector)
			defer stopMetrics()

			n, closeNotifier, err := a.newNotifier(db, collector)
			if err != nil {
				return err
			}
			defer closeNotifier()

			if err := n.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("run notifier: %w", err)
			}
			return nil
		},
	}
}

func (a *app) newNotifier(db *sqlx.DB, collector *metrics.Collector) (*notifier.Notifier, func(), error) {
	codec, err := rpc.NewCodec(a.cfg.Analysis.CompressionLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create codec: %w", err)
	}

	client := rpc.NewClient(rpc.Config{
		Addr:           a.cfg.Analysis.Addr(),
		ConnectTimeout: a.cfg.Analysis.ConnectTimeout,
		ReceiveTimeout: a.cfg.Analysis.ReceiveTimeout,
		MaxFrameBytes:  a.cfg.Analysis.MaxFrameBytes,
	}, codec, collector, a.logger)

	n := notifier.New(postgres.NewAnalysisStore(db), client, notifier.Config{
		Interval:  a.cfg.Notifier.Interval,
		BatchSize: a.cfg.Notifier.BatchSize,
	}, a.logger)

	return n, codec.Close, nil
}
