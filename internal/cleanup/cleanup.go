package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agentpack-labs/agentpack/internal/engine"
)

// engineAPI is the slice of the engine client cleanup needs.
type engineAPI interface {
	ListEngines(ctx context.Context) ([]engine.Engine, error)
	DeleteEngine(ctx context.Context, name string, force bool) (*engine.Operation, error)
}

// Options selects which engines to remove.
type Options struct {
	Prefix string
	MaxAge time.Duration
	DryRun bool

	// Deletion retry. CI quota errors usually clear within seconds, so the
	// schedule is a fixed delay rather than backoff.
	Attempts int
	Delay    time.Duration
}

// Defaults for the deletion retry schedule.
const (
	DefaultAttempts = 3
	DefaultDelay    = 10 * time.Second
)

// Result summarizes one run.
type Result struct {
	Matched []string
	Deleted []string
	Failed  map[string]error
}

// Failures reports whether any deletion ultimately failed.
func (r *Result) Failures() bool { return len(r.Failed) > 0 }

// Summary renders a one-screen report.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matched: %d\n", len(r.Matched))
	fmt.Fprintf(&b, "Deleted: %d\n", len(r.Deleted))
	fmt.Fprintf(&b, "Failed:  %d\n", len(r.Failed))
	for name, err := range r.Failed {
		fmt.Fprintf(&b, "  %s: %v\n", name, err)
	}
	return b.String()
}

// Cleaner finds and deletes stale engines.
type Cleaner struct {
	api    engineAPI
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New builds a cleaner over an engine client.
func New(api engineAPI, opts Options, logger *slog.Logger) *Cleaner {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{api: api, opts: opts, logger: logger, now: time.Now}
}

// Run lists engines, filters by display-name prefix and age, and deletes the
// matches. Per-engine failures do not stop the run; the result carries them.
func (c *Cleaner) Run(ctx context.Context) (*Result, error) {
	engines, err := c.api.ListEngines(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing engines: %w", err)
	}

	cutoff := c.now().Add(-c.opts.MaxAge)
	result := &Result{Failed: make(map[string]error)}

	for _, e := range engines {
		if !c.matches(e, cutoff) {
			continue
		}
		result.Matched = append(result.Matched, e.Name)

		if c.opts.DryRun {
			c.logger.Info("would delete", "engine", e.Name, "display_name", e.DisplayName, "created", e.CreateTime)
			continue
		}

		if err := c.deleteWithRetry(ctx, e.Name); err != nil {
			c.logger.Error("deletion failed", "engine", e.Name, "error", err)
			result.Failed[e.Name] = err
			continue
		}
		c.logger.Info("deleted", "engine", e.Name, "display_name", e.DisplayName)
		result.Deleted = append(result.Deleted, e.Name)
	}

	return result, nil
}

func (c *Cleaner) matches(e engine.Engine, cutoff time.Time) bool {
	if c.opts.Prefix != "" && !strings.HasPrefix(e.DisplayName, c.opts.Prefix) {
		return false
	}
	if c.opts.MaxAge > 0 {
		if e.CreateTime.IsZero() {
			c.logger.Warn("missing createTime, skipping", "engine", e.Name)
			return false
		}
		if e.CreateTime.After(cutoff) {
			return false
		}
	}
	return true
}

func (c *Cleaner) deleteWithRetry(ctx context.Context, name string) error {
	var lastErr error
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		_, lastErr = c.api.DeleteEngine(ctx, name, true)
		if lastErr == nil {
			return nil
		}
		if attempt < c.opts.Attempts {
			c.logger.Warn("delete failed, retrying",
				"engine", name,
				"attempt", attempt,
				"delay", c.opts.Delay.String(),
				"error", lastErr)
			select {
			case <-time.After(c.opts.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("after %d attempts: %w", c.opts.Attempts, lastErr)
}
