package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Options configures a load test run.
type Options struct {
	Target   string
	Users    int
	Requests int
	Message  string
	RampUp   time.Duration
	Timeout  time.Duration
}

// sample is one request's outcome.
type sample struct {
	latency time.Duration
	status  int
	err     error
}

// Runner executes the configured traffic pattern.
type Runner struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

// NewRunner validates options and builds a runner.
func NewRunner(opts Options, logger *slog.Logger) (*Runner, error) {
	if opts.Target == "" {
		return nil, fmt.Errorf("target URL is required")
	}
	if opts.Users < 1 {
		return nil, fmt.Errorf("users must be at least 1, got %d", opts.Users)
	}
	if opts.Requests < 1 {
		return nil, fmt.Errorf("requests per user must be at least 1, got %d", opts.Requests)
	}
	if opts.Message == "" {
		opts.Message = "Hello, agent. This is a load test message."
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger,
	}, nil
}

// Run fans out one goroutine per virtual user, gathers samples over a
// channel, and aggregates once every user finishes. Cancelling ctx stops
// all users.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	r.logger.Info("starting load test",
		"target", r.opts.Target,
		"users", r.opts.Users,
		"requests_per_user", r.opts.Requests,
		"ramp_up", r.opts.RampUp.String())

	results := make(chan sample, r.opts.Users*r.opts.Requests)
	start := time.Now()

	var wg sync.WaitGroup
	for u := 0; u < r.opts.Users; u++ {
		if r.opts.RampUp > 0 && u > 0 {
			select {
			case <-time.After(r.opts.RampUp):
			case <-ctx.Done():
				return Stats{}, ctx.Err()
			}
		}
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			r.runUser(ctx, user, results)
		}(u)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(results)
		close(done)
	}()

	var samples []sample
	for s := range results {
		samples = append(samples, s)
	}
	<-done

	stats := computeStats(samples, time.Since(start))
	r.logger.Info("load test complete",
		"total", stats.Total,
		"failed", stats.Failed,
		"p50", stats.P50.String(),
		"p99", stats.P99.String())
	return stats, nil
}

func (r *Runner) runUser(ctx context.Context, user int, results chan<- sample) {
	for i := 0; i < r.opts.Requests; i++ {
		if ctx.Err() != nil {
			return
		}
		s := r.oneRequest(ctx)
		if s.err != nil && ctx.Err() != nil {
			return
		}
		if s.err != nil {
			r.logger.Debug("request failed", "user", user, "error", s.err)
		}
		results <- s
	}
}

func (r *Runner) oneRequest(ctx context.Context) sample {
	body, err := json.Marshal(map[string]string{"message": r.opts.Message})
	if err != nil {
		return sample{err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.Target, bytes.NewReader(body))
	if err != nil {
		return sample{err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	begin := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return sample{latency: time.Since(begin), err: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return sample{latency: time.Since(begin), status: resp.StatusCode}
}

// TextReport renders the stats in a fixed-width human format.
func TextReport(opts Options, st Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target:        %s\n", opts.Target)
	fmt.Fprintf(&b, "Users:         %d\n", opts.Users)
	fmt.Fprintf(&b, "Requests/user: %d\n", opts.Requests)
	fmt.Fprintf(&b, "Duration:      %s\n", st.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "Total:         %d\n", st.Total)
	fmt.Fprintf(&b, "Failed:        %d\n", st.Failed)
	fmt.Fprintf(&b, "Requests/sec:  %.1f\n", st.PerSec)
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "Latency  min:  %s\n", st.Min.Round(time.Microsecond))
	fmt.Fprintf(&b, "         mean: %s\n", st.Mean.Round(time.Microsecond))
	fmt.Fprintf(&b, "         p50:  %s\n", st.P50.Round(time.Microsecond))
	fmt.Fprintf(&b, "         p90:  %s\n", st.P90.Round(time.Microsecond))
	fmt.Fprintf(&b, "         p99:  %s\n", st.P99.Round(time.Microsecond))
	fmt.Fprintf(&b, "         max:  %s\n", st.Max.Round(time.Microsecond))
	return b.String()
}
