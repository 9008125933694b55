// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Watch   WatchConfig
	Filter  FilterConfig
	Process ProcessConfig
	Rules   RulesConfig
	Metrics MetricsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"required,oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `validate:"required"`
}

// WatchConfig holds filesystem watching configuration.
type WatchConfig struct {
	// Path is the directory to monitor. Required.
	Path string `validate:"required"`
	// Recursive also monitors subdirectories (default: true).
	Recursive bool
	// Mode selects the watching mechanism (default: notify).
	Mode string `validate:"oneof=notify poll"`
	// PollInterval is the scan period in poll mode (default: 500ms).
	PollInterval time.Duration `validate:"gt=0"`
}

// FilterConfig holds event filtering configuration.
type FilterConfig struct {
	// AllowPatterns are regular expressions a path must match to pass.
	// Empty means everything passes.
	AllowPatterns []string
	// DenyPatterns are regular expressions that exclude a path even when allowed.
	DenyPatterns []string
	// IgnoreDirectories drops events for directories (default: true).
	IgnoreDirectories bool
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
}

// ProcessConfig holds event processing configuration.
type ProcessConfig struct {
	// Delay pauses processing after successful validation (default: 0).
	Delay time.Duration `validate:"gte=0"`
	// EventQueueSize bounds the raw event queue (default: 100).
	EventQueueSize int `validate:"gt=0"`
	// TaskQueueSize bounds the validated task queue (default: 100).
	TaskQueueSize int `validate:"gt=0"`
}

// RulesConfig holds file validation rule configuration.
type RulesConfig struct {
	// NamePattern is a regular expression the file basename must match.
	// Empty disables name matching.
	NamePattern string
	// MinSize and MaxSize bound the file size in bytes. -1 means unset.
	MinSize int64 `validate:"gte=-1"`
	MaxSize int64 `validate:"gte=-1"`
	// AwaitCompanion names a sibling file that must appear non-empty in the
	// event's directory before the event is accepted. Empty disables it.
	AwaitCompanion string
	// AwaitTimeout bounds the companion wait (default: 2s).
	AwaitTimeout time.Duration `validate:"gt=0"`
}

// MetricsConfig holds metrics exposure configuration.
type MetricsConfig struct {
	// Enabled serves Prometheus metrics over HTTP (default: false).
	Enabled bool
	// Addr is the metrics listen address (default: :9090).
	Addr string `validate:"required_if=Enabled true"`
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	// Watch flags
	watchPath := flag.String("watch-path", "", "Directory to monitor")
	recursive := flag.String("recursive", "", "Also monitor subdirectories (default: true)")
	watchMode := flag.String("watch-mode", "", "Watching mechanism: notify or poll (default: notify)")
	pollInterval := flag.String("poll-interval", "", "Scan period in poll mode (default: 500ms)")

	// Filter flags
	allowPatterns := flag.String("allow-patterns", "", "Comma-separated allow regexes")
	denyPatterns := flag.String("deny-patterns", "", "Comma-separated deny regexes")
	ignoreDirectories := flag.String("ignore-directories", "", "Drop directory events (default: true)")
	caseSensitive := flag.String("case-sensitive", "", "Match patterns case-sensitively (default: false)")

	// Process flags
	processDelay := flag.String("process-delay", "", "Pause after validation (default: 0s)")
	eventQueueSize := flag.String("event-queue-size", "", "Raw event queue capacity (default: 100)")
	taskQueueSize := flag.String("task-queue-size", "", "Validated task queue capacity (default: 100)")

	// Rule flags
	namePattern := flag.String("name-pattern", "", "Regex the file basename must match")
	minSize := flag.String("min-size", "", "Minimum file size in bytes (default: unset)")
	maxSize := flag.String("max-size", "", "Maximum file size in bytes (default: unset)")
	awaitCompanion := flag.String("await-companion", "", "Companion file that must appear before acceptance")
	awaitTimeout := flag.String("await-timeout", "", "Companion wait timeout (default: 2s)")

	// Metrics flags
	metricsEnabled := flag.String("metrics", "", "Serve Prometheus metrics (default: false)")
	metricsAddr := flag.String("metrics-addr", "", "Metrics listen address (default: :9090)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Watch: WatchConfig{
			Path:      getConfigValue(*watchPath, "WATCH_PATH", ""),
			Recursive: getBoolConfigValue(*recursive, "WATCH_RECURSIVE", true),
			Mode:      getConfigValue(*watchMode, "WATCH_MODE", "notify"),
		},
		Filter: FilterConfig{
			AllowPatterns:     splitPatterns(getConfigValue(*allowPatterns, "ALLOW_PATTERNS", "")),
			DenyPatterns:      splitPatterns(getConfigValue(*denyPatterns, "DENY_PATTERNS", "")),
			IgnoreDirectories: getBoolConfigValue(*ignoreDirectories, "IGNORE_DIRECTORIES", true),
			CaseSensitive:     getBoolConfigValue(*caseSensitive, "CASE_SENSITIVE", false),
		},
		Process: ProcessConfig{
			EventQueueSize: getIntConfigValue(*eventQueueSize, "EVENT_QUEUE_SIZE", 100),
			TaskQueueSize:  getIntConfigValue(*taskQueueSize, "TASK_QUEUE_SIZE", 100),
		},
		Rules: RulesConfig{
			NamePattern:    getConfigValue(*namePattern, "FILE_NAME_PATTERN", ""),
			MinSize:        getInt64ConfigValue(*minSize, "FILE_MIN_SIZE", -1),
			MaxSize:        getInt64ConfigValue(*maxSize, "FILE_MAX_SIZE", -1),
			AwaitCompanion: getConfigValue(*awaitCompanion, "AWAIT_COMPANION", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolConfigValue(*metricsEnabled, "METRICS_ENABLED", false),
			Addr:    getConfigValue(*metricsAddr, "METRICS_ADDR", ":9090"),
		},
	}

	// Parse durations.
	var err error
	if cfg.Watch.PollInterval, err = getDurationConfigValue(*pollInterval, "WATCH_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}
	if cfg.Process.Delay, err = getDurationConfigValue(*processDelay, "PROCESS_DELAY", 0); err != nil {
		return nil, fmt.Errorf("invalid process delay: %w", err)
	}
	if cfg.Rules.AwaitTimeout, err = getDurationConfigValue(*awaitTimeout, "AWAIT_TIMEOUT", 2*time.Second); err != nil {
		return nil, fmt.Errorf("invalid await timeout: %w", err)
	}

	// Expand and check the watch path.
	if err := cfg.expandWatchPath(); err != nil {
		return nil, fmt.Errorf("invalid watch path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return err
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Rules.MinSize >= 0 && c.Rules.MaxSize >= 0 && c.Rules.MaxSize < c.Rules.MinSize {
		return fmt.Errorf("max size %d is below min size %d", c.Rules.MaxSize, c.Rules.MinSize)
	}

	return nil
}

// expandWatchPath expands ~ and makes the watch path absolute.
func (c *Config) expandWatchPath() error {
	if c.Watch.Path == "" {
		return nil
	}

	expanded, err := expandPath(c.Watch.Path)
	if err != nil {
		return err
	}
	c.Watch.Path = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// splitPatterns splits a comma-separated pattern list, trimming whitespace
// and dropping empty entries.
func splitPatterns(value string) []string {
	if value == "" {
		return nil
	}
	var patterns []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue returns a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey string, defaultValue time.Duration) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(strValue)
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
