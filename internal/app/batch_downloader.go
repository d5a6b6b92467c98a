package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clipfetch/internal/domain"
	"github.com/yourusername/clipfetch/pkg/logger"
)

// BatchDownloader downloads a list of tasks across a fixed-size worker pool
type BatchDownloader struct {
	downloader       domain.Downloader
	notifier         domain.Notifier
	config           *domain.DownloadConfig
	progressInterval time.Duration
	logger           *zap.Logger
	multiLogger      *logger.MultiLogger
}

// NewBatchDownloader creates a new batch downloader
func NewBatchDownloader(downloader domain.Downloader, config *domain.Config, log *zap.Logger) *BatchDownloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchDownloader{
		downloader:       downloader,
		config:           &config.Download,
		progressInterval: config.Progress.Interval,
		logger:           log,
	}
}

// SetNotifier sets the notifier told about finished runs
func (b *BatchDownloader) SetNotifier(notifier domain.Notifier) {
	b.notifier = notifier
}

// SetMultiLogger sets the event logger for task lifecycle events
func (b *BatchDownloader) SetMultiLogger(multiLogger *logger.MultiLogger) {
	b.multiLogger = multiLogger
}

// Run downloads every task and returns once all of them are terminal.
// A failed task never stops the others. If ctx is cancelled, tasks not yet
// handed to a worker are marked cancelled and in-flight ones see the cancellation.
func (b *BatchDownloader) Run(ctx context.Context, tasks []*domain.Task) *domain.Report {
	runID := uuid.New().String()
	startedAt := time.Now()
	log := b.logger.With(zap.String("run_id", runID))

	workers := b.config.NumWorkers
	if workers < 1 {
		workers = 1
	}

	log.Info(fmt.Sprintf("Found %d videos to download.", len(tasks)),
		zap.Int("total", len(tasks)),
		zap.Int("workers", workers),
		zap.String("output_dir", b.config.OutputDir))
	b.logEvent("run_started", zap.String("run_id", runID), zap.Int("total", len(tasks)))

	outcomes := make([]*domain.Outcome, len(tasks))
	for i, task := range tasks {
		outcomes[i] = domain.NewOutcome(task)
	}

	var completed atomic.Int64
	stopProgress := b.reportProgress(&completed, len(tasks), log)

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, task := range tasks {
		outcome := outcomes[i]
		if err := ctx.Err(); err != nil {
			b.cancel(task, outcome, err, runID)
			continue
		}

		// Blocks while all workers are busy, so submission follows input order
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				b.cancel(task, outcome, err, runID)
			} else {
				b.download(ctx, task, outcome, runID, log)
			}

			done := completed.Add(1)
			log.Debug("Task finished",
				zap.String("key", task.Key),
				zap.Int64("completed", done),
				zap.Int("total", len(tasks)))
			return nil
		})
	}

	_ = g.Wait()
	stopProgress()

	report := domain.NewReport(runID, outcomes, startedAt)

	log.Info("Download complete.",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("cancelled", report.Cancelled),
		zap.Duration("elapsed", report.Elapsed()))
	if report.HasFailures() {
		failedKeys := report.FailedKeys()
		log.Warn("Some videos were not downloaded",
			zap.Int("count", len(failedKeys)),
			zap.Strings("keys", failedKeys))
	}

	b.logEvent("run_completed",
		zap.String("run_id", runID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("cancelled", report.Cancelled))

	if b.notifier != nil {
		if err := b.notifier.NotifyBatchCompleted(report); err != nil {
			log.Warn("Failed to send completion notification", zap.Error(err))
		}
	}

	return report
}

// DownloadOne downloads a single task and reports its outcome.
// Failures are contained in the returned outcome.
func (b *BatchDownloader) DownloadOne(ctx context.Context, task *domain.Task) *domain.Outcome {
	outcome := domain.NewOutcome(task)
	b.download(ctx, task, outcome, "", b.logger)
	return outcome
}

func (b *BatchDownloader) download(ctx context.Context, task *domain.Task, outcome *domain.Outcome, runID string, log *zap.Logger) {
	outcome.MarkDownloading()
	b.logEvent("task_started",
		zap.String("run_id", runID),
		zap.String("key", task.Key),
		zap.String("url", task.URL),
		zap.Stringer("span", task.Span))

	path, err := b.fetch(ctx, task)
	if err != nil {
		outcome.MarkFailed(err)
		log.Error(fmt.Sprintf("Failed to download %s", task.URL),
			zap.String("key", task.Key),
			zap.String("url", task.URL),
			zap.Error(err))
		b.logEvent("task_failed",
			zap.String("run_id", runID),
			zap.String("key", task.Key),
			zap.Error(err))
		if b.multiLogger != nil {
			b.multiLogger.LogAppError("Failed to download",
				zap.String("run_id", runID),
				zap.String("key", task.Key),
				zap.String("url", task.URL),
				zap.Error(err))
		}
		return
	}

	outcome.MarkSucceeded(path)
	log.Info(fmt.Sprintf("Downloaded: %s", path),
		zap.String("key", task.Key),
		zap.Duration("took", outcome.Duration()))
	b.logEvent("task_succeeded",
		zap.String("run_id", runID),
		zap.String("key", task.Key),
		zap.String("file_path", path))
}

// fetch creates the output directory and runs the downloader, turning a panic into an error
func (b *BatchDownloader) fetch(ctx context.Context, task *domain.Task) (path string, err error) {
	if err := os.MkdirAll(b.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			path = ""
			err = fmt.Errorf("downloader panicked: %v", r)
		}
	}()

	return b.downloader.Download(ctx, task, b.config.OutputDir)
}

func (b *BatchDownloader) cancel(task *domain.Task, outcome *domain.Outcome, err error, runID string) {
	outcome.MarkCancelled(err)
	b.logEvent("task_cancelled",
		zap.String("run_id", runID),
		zap.String("key", task.Key))
}

// reportProgress logs completed/total on every tick until the returned stop func is called
func (b *BatchDownloader) reportProgress(completed *atomic.Int64, total int, log *zap.Logger) func() {
	if b.progressInterval <= 0 || total == 0 {
		return func() {}
	}

	ticker := time.NewTicker(b.progressInterval)
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				log.Info("Downloading videos",
					zap.Int64("completed", completed.Load()),
					zap.Int("total", total))
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (b *BatchDownloader) logEvent(event string, fields ...zap.Field) {
	if b.multiLogger != nil {
		b.multiLogger.LogTaskEvent(event, fields...)
	}
}
