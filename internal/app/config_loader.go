package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yourusername/clipfetch/internal/domain"
)

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"meta_csv":      "input.meta_csv",
	"output_dir":    "download.output_dir",
	"num_workers":   "download.num_workers",
	"fail_on_error": "run.fail_on_error",
	"log_level":     "logging.level",
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// CLIPFETCH_* environment variables (a .env file is loaded first when present)
// and command-line flags, in increasing order of precedence
func LoadConfig(configPath string, flags *pflag.FlagSet) (*domain.Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, domain.DefaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so that AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *domain.Config) {
	v.SetDefault("input.meta_csv", d.Input.MetaCSV)

	v.SetDefault("download.output_dir", d.Download.OutputDir)
	v.SetDefault("download.num_workers", d.Download.NumWorkers)
	v.SetDefault("download.format", d.Download.Format)
	v.SetDefault("download.extension", d.Download.Extension)
	v.SetDefault("download.continue", d.Download.Continue)
	v.SetDefault("download.external_downloader", d.Download.ExternalDownloader)
	v.SetDefault("download.external_downloader_args", d.Download.ExternalDownloaderArgs)
	v.SetDefault("download.ytdlp_binary", d.Download.YTDLPBinary)
	v.SetDefault("download.logs_dir", d.Download.LogsDir)

	v.SetDefault("progress.interval", d.Progress.Interval)

	v.SetDefault("run.fail_on_error", d.Run.FailOnError)

	v.SetDefault("notification.enabled", d.Notification.Enabled)
	v.SetDefault("notification.method", d.Notification.Method)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Input.MetaCSV = expandPath(config.Input.MetaCSV)
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.Download.YTDLPBinary = expandPath(config.Download.YTDLPBinary)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Input.MetaCSV == "" {
		return fmt.Errorf("meta_csv is required")
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("output directory not configured")
	}

	if config.Download.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1, got %d", config.Download.NumWorkers)
	}

	if config.Download.Format == "" {
		return fmt.Errorf("download format not configured")
	}

	if config.Progress.Interval <= 0 {
		return fmt.Errorf("progress interval must be positive, got %s", config.Progress.Interval)
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
