package infrastructure

import (
	"fmt"
	"os/exec"

	"github.com/yourusername/clipfetch/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends a desktop notification when a batch finishes
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// NotifyBatchCompleted summarizes a finished run
func (n *NotificationService) NotifyBatchCompleted(report *domain.Report) error {
	title := "Download Complete"
	if report.HasFailures() {
		title = "Download Finished With Failures"
	}
	message := fmt.Sprintf("%d/%d succeeded, %d failed, %d cancelled",
		report.Succeeded, report.Total, report.Failed, report.Cancelled)
	return n.Send(title, message)
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}
