package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/stage"
	"github.com/okian/tracksense/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes the complete simulation and returns its statistics. It fails
// when any session failed or any result disagreed with the local matcher.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting assessment simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.String("language", cfg.Language),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	tracks, err := client.Tracks(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch tracks: %w", err)
	}
	// Validates what the server serves before scoring against it.
	if _, err := catalog.New(tracks); err != nil {
		return stats, fmt.Errorf("server catalog: %w", err)
	}

	scripts := NewGenerator(cfg.Seed, cfg.Language).Scripts(cfg.Sessions)
	if cfg.OutputFile != "" {
		if err := saveScripts(cfg.OutputFile, scripts); err != nil {
			log.Warn(ctx, "failed to save scripts", logger.Error(err))
		}
	}

	runAll(ctx, cfg, client, scripts, tracks, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	switch {
	case stats.Mismatches > 0:
		return stats, fmt.Errorf("%w: %d of %d sessions", ErrMismatch, stats.Mismatches, cfg.Sessions)
	case stats.Failed > 0:
		return stats, fmt.Errorf("%w: %d of %d", ErrFailed, stats.Failed, cfg.Sessions)
	}
	return stats, nil
}

// sessionOutcome is what one worker reports for one script.
type sessionOutcome struct {
	started   bool
	completed bool
	turns     int
	duplicate bool
	err       error
}

func runAll(ctx context.Context, cfg *Config, c *Client, scripts []Script, tracks []catalog.Track, stats *Stats) {
	log := logger.Get().Named("simulate")
	workers := max(1, min(cfg.Workers, len(scripts)))

	jobs := make(chan Script, workers*2)
	results := make(chan sessionOutcome, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				results <- runSession(ctx, c, s, tracks, cfg.TopN)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range scripts {
			select {
			case <-ctx.Done():
				return
			case jobs <- s:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		if out.started {
			stats.SessionsStarted++
		}
		if out.completed {
			stats.SessionsCompleted++
		}
		if out.duplicate {
			stats.Duplicates++
		}
		stats.TurnsSent += out.turns

		switch {
		case out.err == nil:
			stats.Verified++
		case errors.Is(out.err, ErrMismatch):
			stats.Mismatches++
			log.Error(ctx, "result mismatch", logger.Error(out.err))
		default:
			stats.Failed++
			log.Warn(ctx, "session failed", logger.Error(out.err))
		}

		if cfg.Verbose {
			log.Info(ctx, "session finished",
				logger.Int("verified", stats.Verified),
				logger.Int("mismatches", stats.Mismatches),
				logger.Int("failed", stats.Failed),
			)
		}
	}
}

// runSession plays one script: start, every turn, a retried final turn that
// must come back as a duplicate, then the result.
func runSession(ctx context.Context, c *Client, s Script, tracks []catalog.Track, topN int) sessionOutcome {
	var out sessionOutcome

	started, err := c.Start(ctx, s.Language)
	if err != nil {
		out.err = fmt.Errorf("start: %w", err)
		return out
	}
	out.started = true
	if started.Language.String() != s.Language {
		out.err = fmt.Errorf("%w: script %s: language %q, want %q", ErrMismatch, s.ID, started.Language, s.Language)
		return out
	}

	for _, t := range s.Turns {
		status, err := c.Turn(ctx, started.SessionID, t)
		if err != nil {
			out.err = fmt.Errorf("turn %s: %w", t.TurnID, err)
			return out
		}
		out.turns++
		if status.Stage.String() != t.NextStage || status.Progress != stage.Progress(t.NextStage) {
			out.err = fmt.Errorf("%w: script %s: turn %s reported %s/%d", ErrMismatch, s.ID, t.TurnID, status.Stage, status.Progress)
			return out
		}
	}
	out.completed = true

	last := s.Turns[len(s.Turns)-1]
	retry, err := c.Turn(ctx, started.SessionID, last)
	if err != nil {
		out.err = fmt.Errorf("retry %s: %w", last.TurnID, err)
		return out
	}
	out.duplicate = retry.Duplicate
	if !retry.Duplicate {
		out.err = fmt.Errorf("%w: script %s: retried turn was applied again", ErrMismatch, s.ID)
		return out
	}

	res, err := c.Result(ctx, started.SessionID)
	if err != nil {
		out.err = fmt.Errorf("result: %w", err)
		return out
	}
	if diffs := Verify(s, res, tracks, topN); len(diffs) > 0 {
		out.err = mismatch(s, diffs)
	}
	return out
}

// saveScripts writes the generated scripts as a JSON array.
func saveScripts(filename string, scripts []Script) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(scripts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scripts: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write scripts: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.SessionsCompleted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("sessionsStarted", stats.SessionsStarted),
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
		logger.Int("turnsSent", stats.TurnsSent),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("sessionsPerSecond", perSecond),
	)
}
