package domain

import "time"

// Config represents the application configuration
type Config struct {
	Input        InputConfig        `mapstructure:"input"`
	Download     DownloadConfig     `mapstructure:"download"`
	Progress     ProgressConfig     `mapstructure:"progress"`
	Run          RunConfig          `mapstructure:"run"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// InputConfig describes where tasks come from
type InputConfig struct {
	MetaCSV string `mapstructure:"meta_csv"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	OutputDir              string `mapstructure:"output_dir"`
	NumWorkers             int    `mapstructure:"num_workers"`
	Format                 string `mapstructure:"format"`
	Extension              string `mapstructure:"extension"`
	Continue               bool   `mapstructure:"continue"`
	ExternalDownloader     string `mapstructure:"external_downloader"`
	ExternalDownloaderArgs string `mapstructure:"external_downloader_args"`
	YTDLPBinary            string `mapstructure:"ytdlp_binary"` // empty means resolve from PATH
	LogsDir                string `mapstructure:"logs_dir"`     // empty disables log files
}

// ProgressConfig controls the periodic progress line
type ProgressConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// RunConfig controls how the run outcome maps to the process exit status
type RunConfig struct {
	FailOnError bool `mapstructure:"fail_on_error"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			OutputDir:              "./videos",
			NumWorkers:             4,
			Format:                 "136/247",
			Extension:              "mp4",
			Continue:               true,
			ExternalDownloader:     "aria2c",
			ExternalDownloaderArgs: "-x 16 -k 1M",
		},
		Progress: ProgressConfig{
			Interval: 5 * time.Second,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
