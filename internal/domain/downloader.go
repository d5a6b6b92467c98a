package domain

import "context"

//go:generate mockgen -source=downloader.go -destination=mocks/mock_downloader.go

// Downloader fetches the media behind a task's URL into outputDir.
// It returns the path of the written file. Format negotiation, resuming
// partial files and the transfer itself are its responsibility.
type Downloader interface {
	Download(ctx context.Context, task *Task, outputDir string) (string, error)
}

// Notifier is told when a batch run finishes
type Notifier interface {
	NotifyBatchCompleted(report *Report) error
}
