package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/internal/domain"
)

// partialSuffixes are left behind by yt-dlp and aria2c while a transfer is incomplete
var partialSuffixes = []string{".part", ".ytdl", ".aria2", ".temp", ".tmp"}

// YTDLPDownloader implements Downloader by running yt-dlp, which hands the
// transfer to an external downloader such as aria2c
type YTDLPDownloader struct {
	config *domain.DownloadConfig
	logger *zap.Logger
	logMu  sync.Mutex
}

// NewYTDLPDownloader creates a new yt-dlp downloader
func NewYTDLPDownloader(config *domain.DownloadConfig, logger *zap.Logger) *YTDLPDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YTDLPDownloader{
		config: config,
		logger: logger,
	}
}

// Preflight checks that the external transfer agent can be found.
// yt-dlp would otherwise fail every task with the same error.
func (d *YTDLPDownloader) Preflight() error {
	if d.config.ExternalDownloader == "" {
		return nil
	}
	if _, err := exec.LookPath(d.config.ExternalDownloader); err != nil {
		return fmt.Errorf("external downloader %q not found: %w", d.config.ExternalDownloader, err)
	}
	return nil
}

// Download runs yt-dlp for a single task and returns the written file.
// The path comes from the info JSON yt-dlp prints, else from scanning outputDir.
func (d *YTDLPDownloader) Download(ctx context.Context, task *domain.Task, outputDir string) (string, error) {
	cmd := d.buildCommand(task, outputDir)

	started := time.Now()
	result, runErr := cmd.Run(ctx, task.URL)

	d.writeProcessLog(task, outputDir, started, result, runErr)

	if runErr != nil {
		return "", fmt.Errorf("yt-dlp failed: %w", runErr)
	}

	if path := extractedFilename(result); path != "" && fileExists(path) {
		return path, nil
	}
	return FindOutputFile(outputDir, task.Key, d.config.Extension)
}

func (d *YTDLPDownloader) buildCommand(task *domain.Task, outputDir string) *ytdlp.Command {
	cmd := ytdlp.New().
		Format(d.config.Format).
		Output(task.OutputTemplate(outputDir)).
		PrintJSON()

	if d.config.YTDLPBinary != "" {
		cmd = cmd.SetExecutable(d.config.YTDLPBinary)
	}
	if d.config.Continue {
		cmd = cmd.Continue()
	}
	if d.config.ExternalDownloader != "" {
		cmd = cmd.Downloader(d.config.ExternalDownloader)
		if d.config.ExternalDownloaderArgs != "" {
			cmd = cmd.DownloaderArgs(d.config.ExternalDownloaderArgs)
		}
	}

	cmd.ProgressFunc(2*time.Second, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes <= 0 {
			return
		}
		d.logger.Debug("Download progress",
			zap.String("key", task.Key),
			zap.Float64("percent", float64(update.DownloadedBytes)/float64(update.TotalBytes)*100))
	})

	return cmd
}

// CommandArgs returns the arguments yt-dlp is started with for a task, for display in logs
func (d *YTDLPDownloader) CommandArgs(task *domain.Task, outputDir string) []string {
	var args []string
	for _, flag := range d.buildCommand(task, outputDir).GetFlagConfig().ToFlags() {
		args = append(args, flag.Raw()...)
	}
	return append(args, task.URL)
}

func (d *YTDLPDownloader) binary() string {
	if d.config.YTDLPBinary != "" {
		return d.config.YTDLPBinary
	}
	return "yt-dlp"
}

// writeProcessLog appends the command line and yt-dlp output to the day's process log.
// Workers share the file, so each entry is written in one piece.
func (d *YTDLPDownloader) writeProcessLog(task *domain.Task, outputDir string, started time.Time, result *ytdlp.Result, runErr error) {
	if d.config.LogsDir == "" {
		return
	}

	var entry bytes.Buffer
	writeLogHeader(&entry, started, task.Key, ShellEscapeCommand(d.binary(), d.CommandArgs(task, outputDir)...))
	if result != nil {
		if result.Stdout != "" {
			entry.WriteString(result.Stdout + "\n")
		}
		if result.Stderr != "" {
			for _, line := range strings.Split(strings.TrimRight(result.Stderr, "\n"), "\n") {
				entry.WriteString("[STDERR] " + line + "\n")
			}
		}
	}
	if runErr != nil {
		writeLogFooter(&entry, false, runErr.Error())
	} else {
		writeLogFooter(&entry, true, "yt-dlp exited normally")
	}

	d.logMu.Lock()
	defer d.logMu.Unlock()

	if err := appendProcessLog(d.config.LogsDir, time.Now(), entry.Bytes()); err != nil {
		d.logger.Warn("Failed to write process log", zap.String("key", task.Key), zap.Error(err))
	}
}

// ProcessLogPath returns the process log file for a given day
func ProcessLogPath(logsDir string, date time.Time) string {
	return filepath.Join(logsDir, "download-"+date.Format("20060102")+".log")
}

func appendProcessLog(logsDir string, now time.Time, entry []byte) error {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	file, err := os.OpenFile(ProcessLogPath(logsDir, now), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(entry)
	return err
}

func writeLogHeader(buf *bytes.Buffer, started time.Time, key, cmdLine string) {
	fmt.Fprintf(buf, "\n=== [%s] Download: %s ===\n", started.Format("2006-01-02 15:04:05"), key)
	fmt.Fprintf(buf, "$ %s\n", cmdLine)
}

func writeLogFooter(buf *bytes.Buffer, success bool, message string) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(buf, "[%s] %s: %s\n", time.Now().Format("2006-01-02 15:04:05"), status, message)
	buf.WriteString("=== END ===\n\n")
}

func extractedFilename(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 || info[0].Filename == nil {
		return ""
	}
	return *info[0].Filename
}

// FindOutputFile locates the finished file yt-dlp wrote for key in dir.
// Partial transfers and sidecar files (key.info.json, key.f136.mp4) are ignored.
// When several candidates exist, the preferred extension wins.
func FindOutputFile(dir, key, preferredExt string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read output directory: %w", err)
	}

	preferredExt = strings.TrimPrefix(preferredExt, ".")
	prefix := key + "."
	var candidates []string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || isPartialFile(name) {
			continue
		}
		ext := name[len(prefix):]
		if ext == "" || strings.Contains(ext, ".") {
			continue
		}
		if ext == preferredExt {
			return filepath.Join(dir, name), nil
		}
		candidates = append(candidates, filepath.Join(dir, name))
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrNoOutputFile, filepath.Join(dir, prefix+"*"))
	}
	return candidates[0], nil
}

func isPartialFile(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
