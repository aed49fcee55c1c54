package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/retrochat/ichat-recover/cmd"
	"github.com/retrochat/ichat-recover/config"
	"github.com/retrochat/ichat-recover/progress"
	"github.com/retrochat/ichat-recover/runner"
	"github.com/retrochat/ichat-recover/stats"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ichat-recover",
		Short: "Recover conversations from iChat archives into self-contained HTML transcripts",
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cobraCmd)
			if err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			slog.SetDefault(logger)
			logger.Info("starting ichat-recover", "source", cfg.SourceDir, "dest", cfg.DestDir, "exportMbox", cfg.ExportMbox)

			return run(cfg, logger)
		},
	}

	if err := config.RegisterFlags(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register CLI flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(cmd.ListCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	r, err := runner.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("runner.New: %w", err)
	}

	groups, err := r.ListParticipants()
	if err != nil {
		return fmt.Errorf("scan source directory: %w", err)
	}
	logger.Info("found participants", "participants", len(groups))

	bar := progress.New(len(groups), cfg.LogLevel)
	progress.NewReporter(r, bar)
	stats.NewReporter(r, logger)

	return r.Start(groups)
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("ichat-recover-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler), cleanup, nil
}
