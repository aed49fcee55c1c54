package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultDestDir is used when no output directory is given.
const DefaultDestDir = "html_chats"

// Config captures all command-line options required to run the recovery.
type Config struct {
	SourceDir     string
	DestDir       string
	ExportMbox    bool
	LogLevel      string
	LogDir        string
	IncludeSender []string
	IncludeText   []string
	ExcludeSender []string
	ExcludeText   []string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	flags.String("source", "", "Directory containing the .ichat archive files")
	flags.String("dest", DefaultDestDir, "Directory for the rendered HTML transcripts (created if absent)")
	flags.Bool("export-mbox", false, "Additionally export each conversation as an mbox file")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (logs to stdout only when empty)")
	flags.StringArray("include-sender", nil, "Regex allow-list applied to message senders (mutually exclusive with exclude flags)")
	flags.StringArray("include-text", nil, "Regex allow-list applied to message text (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-sender", nil, "Regex block-list applied to message senders (mutually exclusive with include flags)")
	flags.StringArray("exclude-text", nil, "Regex block-list applied to message text (mutually exclusive with include flags)")

	if err := cmd.MarkFlagRequired("source"); err != nil {
		return err
	}

	return nil
}

// LoadConfig converts the parsed Cobra flags into a Config struct with validation.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	sourceDir, err := flags.GetString("source")
	if err != nil {
		return Config{}, err
	}
	destDir, err := flags.GetString("dest")
	if err != nil {
		return Config{}, err
	}
	exportMbox, err := flags.GetBool("export-mbox")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}
	includeSender, err := flags.GetStringArray("include-sender")
	if err != nil {
		return Config{}, err
	}
	includeText, err := flags.GetStringArray("include-text")
	if err != nil {
		return Config{}, err
	}
	excludeSender, err := flags.GetStringArray("exclude-sender")
	if err != nil {
		return Config{}, err
	}
	excludeText, err := flags.GetStringArray("exclude-text")
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(sourceDir) == "" {
		return Config{}, fmt.Errorf("--source is required")
	}
	if destDir == "" {
		destDir = DefaultDestDir
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		SourceDir:     filepath.Clean(sourceDir),
		DestDir:       filepath.Clean(destDir),
		ExportMbox:    exportMbox,
		LogLevel:      logLevel,
		LogDir:        logDir,
		IncludeSender: includeSender,
		IncludeText:   includeText,
		ExcludeSender: excludeSender,
		ExcludeText:   excludeText,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	includeActive := len(cfg.IncludeSender) > 0 || len(cfg.IncludeText) > 0
	excludeActive := len(cfg.ExcludeSender) > 0 || len(cfg.ExcludeText) > 0
	if includeActive && excludeActive {
		return fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
