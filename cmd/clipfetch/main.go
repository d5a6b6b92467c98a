package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/app"
	"github.com/yourusername/clipfetch/internal/domain"
	"github.com/yourusername/clipfetch/internal/infrastructure"
	"github.com/yourusername/clipfetch/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "clipfetch",
		Short: "Batch-download videos listed in a CSV table",
		Long: `clipfetch reads a table with key, url and orig_span columns and downloads
every video into <output_dir>/<key>.<ext> using yt-dlp and aria2c across a fixed worker pool.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := app.LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), config)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.String("meta_csv", "", "Path to the metadata table (required)")
	flags.String("output_dir", "./videos", "Directory to write videos to")
	flags.Int("num_workers", 4, "Number of concurrent downloads")
	flags.Bool("fail_on_error", false, "Exit with status 1 when any video was not downloaded")
	flags.String("log_level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, config *domain.Config) error {
	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	tasks, err := app.LoadTasks(config.Input.MetaCSV)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", config.Input.MetaCSV, err)
	}

	downloader := infrastructure.NewYTDLPDownloader(&config.Download, log)
	preflightErr := downloader.Preflight()
	if preflightErr != nil {
		log.Warn("Preflight check failed, downloads will likely fail", zap.Error(preflightErr))
	}

	batch := app.NewBatchDownloader(downloader, config, log)

	if config.Notification.Enabled {
		batch.SetNotifier(infrastructure.NewNotificationService(&config.Notification, log))
	}

	if config.Download.LogsDir != "" {
		multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Download.LogsDir,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize event logs: %w", err)
		}
		defer multiLog.Close()
		batch.SetMultiLogger(multiLog)
	}

	report := batch.Run(ctx, tasks)

	if preflightErr != nil && report.Failed > 0 {
		log.Error("Downloads failed after a failed preflight check",
			zap.Int("failed", report.Failed),
			zap.Int("total", report.Total),
			zap.Error(preflightErr))
	}

	if config.Run.FailOnError && report.HasFailures() {
		return fmt.Errorf("%d of %d videos were not downloaded", report.Failed+report.Cancelled, report.Total)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
