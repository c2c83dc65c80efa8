package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tracksense/internal/domain/scoring"
	"github.com/okian/tracksense/internal/simulate"
	"github.com/okian/tracksense/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions   = 1000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
	logFilePermission = 0o600
)

var (
	cfg = simulate.Config{
		BaseURL:  "http://localhost:9080",
		Sessions: defaultSessions,
		Workers:  runtime.NumCPU() * defaultWorkers,
		Timeout:  defaultTimeout,
		TopN:     scoring.DefaultTopN,
	}
	logFile    string
	runTimeout = defaultRunTimeout
)

var rootCmd = &cobra.Command{
	Use:   "assess-sim",
	Short: "Drive synthetic assessments against a tracksense server",
	Long: `assess-sim plays generated investor conversations against a running
server, retries each final turn to confirm it is deduplicated, and checks
every result against a local recomputation of the track ranking.

It exits non-zero when any session fails or any result disagrees.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	f.IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "number of assessments to run")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of concurrent sessions")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.StringVar(&cfg.Language, "language", "", "session language (en or zh); empty alternates")
	f.IntVar(&cfg.TopN, "top", cfg.TopN, "recommendations the server is configured for")
	f.Uint64Var(&cfg.Seed, "seed", 0, "generator seed (default: current time)")
	f.StringVar(&cfg.OutputFile, "output", "", "write generated scripts to this JSON file")
	f.StringVar(&logFile, "log", "", "also write logs to this file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every session")
	f.DurationVar(&runTimeout, "run-timeout", runTimeout, "abort the whole run after this long")
}

func run(cmd *cobra.Command, _ []string) error {
	closeLog, err := setupLogging(logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if !cmd.Flags().Changed("seed") {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	logger.Get().Info(ctx, "simulation seed", logger.Any("seed", cfg.Seed))

	if _, err := simulate.Run(ctx, &cfg); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}

// setupLogging writes logs to stdout and, when path is set, to path as well.
func setupLogging(path string) (func(), error) {
	if path == "" {
		if err := logger.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := logger.InitWithOptions(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return func() { _ = file.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
