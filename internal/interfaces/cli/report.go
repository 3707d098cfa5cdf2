package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/app"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/config"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/storage/minio"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// reportStoreFactory opens the report archive. Tests replace it.
var reportStoreFactory = newReportStore

func newReportStore(cfg *config.Config, logger logging.Logger) (minio.ReportStore, func(), error) {
	if !cfg.MinIO.Enabled {
		return nil, nil, errors.New(errors.ErrCodeFeatureDisabled, "report archive is disabled (minio.enabled=false)")
	}
	mc, err := minio.NewMinIOClient(app.MinIOConfig(cfg.MinIO), logger)
	if err != nil {
		return nil, nil, err
	}
	return minio.NewReportRepository(mc, logger), func() { _ = mc.Close() }, nil
}

// NewReportCmd reads archived prediction exports.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Fetch archived prediction reports",
		Long:  "Fetch prediction exports from the report archive by object key, as logged in prediction.completed events.",
	}
	cmd.AddCommand(newReportGetCmd(), newReportURLCmd())
	return cmd
}

func newReportGetCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:     "get KEY",
		Short:   "Download a report",
		Example: "  narcos report get admet_prediction/2026/10/19/3f2a.csv --out ethanol.csv",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReportStore(cmd, func(ctx context.Context, store minio.ReportStore) error {
				data, err := store.GetReport(ctx, args[0])
				if err != nil {
					return err
				}
				if outPath != "" {
					return os.WriteFile(outPath, data, 0o644)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "write the report to this file instead of stdout")
	return cmd
}

func newReportURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url KEY",
		Short: "Print a time-limited download link for a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReportStore(cmd, func(ctx context.Context, store minio.ReportStore) error {
				url, err := store.PresignReport(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, url)
			})
		},
	}
}

func withReportStore(cmd *cobra.Command, fn func(context.Context, minio.ReportStore) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	store, cleanup, err := reportStoreFactory(cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()
	return fn(ctx, store)
}

//Personal.AI order the ending
