package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/agentpack-labs/agentpack/internal/engine"
)

type fakeAPI struct {
	engines   []engine.Engine
	listErr   error
	deleted   []string
	failFirst map[string]int // name -> failures before success
	alwaysErr map[string]error
	calls     map[string]int
}

func (f *fakeAPI) ListEngines(context.Context) ([]engine.Engine, error) {
	return f.engines, f.listErr
}

func (f *fakeAPI) DeleteEngine(_ context.Context, name string, _ bool) (*engine.Operation, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	if err, ok := f.alwaysErr[name]; ok {
		return nil, err
	}
	if remaining, ok := f.failFirst[name]; ok && f.calls[name] <= remaining {
		return nil, fmt.Errorf("quota exceeded")
	}
	f.deleted = append(f.deleted, name)
	return &engine.Operation{Name: "op-" + name, Done: true}, nil
}

func testEngine(name, displayName string, age time.Duration) engine.Engine {
	return engine.Engine{
		Name:        name,
		DisplayName: displayName,
		CreateTime:  time.Now().Add(-age).UTC(),
	}
}

func newCleaner(api *fakeAPI, opts Options) *Cleaner {
	if opts.Delay == 0 {
		opts.Delay = time.Millisecond
	}
	return New(api, opts, slog.New(slog.DiscardHandler))
}

func TestRun_FiltersByPrefixAndAge(t *testing.T) {
	api := &fakeAPI{engines: []engine.Engine{
		testEngine("e1", "ci-test-alpha", 48*time.Hour),
		testEngine("e2", "ci-test-beta", time.Hour),
		testEngine("e3", "prod-agent", 48*time.Hour),
	}}
	c := newCleaner(api, Options{Prefix: "ci-test-", MaxAge: 24 * time.Hour})

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Matched) != 1 || result.Matched[0] != "e1" {
		t.Errorf("matched = %v", result.Matched)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "e1" {
		t.Errorf("deleted = %v", api.deleted)
	}
	if result.Failures() {
		t.Errorf("unexpected failures: %v", result.Failed)
	}
}

func TestRun_DryRunDeletesNothing(t *testing.T) {
	api := &fakeAPI{engines: []engine.Engine{
		testEngine("e1", "ci-test-alpha", 48*time.Hour),
	}}
	c := newCleaner(api, Options{Prefix: "ci-test-", MaxAge: 24 * time.Hour, DryRun: true})

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matched) != 1 {
		t.Errorf("matched = %v", result.Matched)
	}
	if len(api.deleted) != 0 || len(result.Deleted) != 0 {
		t.Errorf("dry run deleted: %v", api.deleted)
	}
}

func TestRun_RetriesTransientDeleteFailure(t *testing.T) {
	api := &fakeAPI{
		engines:   []engine.Engine{testEngine("e1", "ci-test-alpha", 48*time.Hour)},
		failFirst: map[string]int{"e1": 2},
	}
	c := newCleaner(api, Options{Prefix: "ci-test-", MaxAge: 24 * time.Hour})

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if api.calls["e1"] != 3 {
		t.Errorf("delete attempts = %d, want 3", api.calls["e1"])
	}
	if len(result.Deleted) != 1 {
		t.Errorf("deleted = %v, failed = %v", result.Deleted, result.Failed)
	}
}

func TestRun_ContinuesPastPermanentFailure(t *testing.T) {
	api := &fakeAPI{
		engines: []engine.Engine{
			testEngine("e1", "ci-test-alpha", 48*time.Hour),
			testEngine("e2", "ci-test-beta", 48*time.Hour),
		},
		alwaysErr: map[string]error{"e1": fmt.Errorf("permission denied")},
	}
	c := newCleaner(api, Options{Prefix: "ci-test-", MaxAge: 24 * time.Hour})

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if api.calls["e1"] != DefaultAttempts {
		t.Errorf("e1 attempts = %d, want %d", api.calls["e1"], DefaultAttempts)
	}
	if !result.Failures() {
		t.Error("expected failures to be reported")
	}
	if _, ok := result.Failed["e1"]; !ok {
		t.Errorf("failed = %v", result.Failed)
	}
	if len(result.Deleted) != 1 || result.Deleted[0] != "e2" {
		t.Errorf("deleted = %v, e2 should still be removed", result.Deleted)
	}
}

func TestRun_SkipsMissingCreateTime(t *testing.T) {
	api := &fakeAPI{engines: []engine.Engine{
		{Name: "e1", DisplayName: "ci-test-alpha"},
	}}
	c := newCleaner(api, Options{Prefix: "ci-test-", MaxAge: 24 * time.Hour})

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matched) != 0 {
		t.Errorf("matched = %v", result.Matched)
	}
}

func TestMatches_AgeCutoff(t *testing.T) {
	c := newCleaner(&fakeAPI{}, Options{MaxAge: 24 * time.Hour})
	cutoff := c.now().Add(-24 * time.Hour)

	old := engine.Engine{Name: "old", CreateTime: time.Now().Add(-48 * time.Hour)}
	fresh := engine.Engine{Name: "fresh", CreateTime: time.Now().Add(-time.Hour)}

	if !c.matches(old, cutoff) {
		t.Error("48h-old engine should match a 24h cutoff")
	}
	if c.matches(fresh, cutoff) {
		t.Error("1h-old engine should not match a 24h cutoff")
	}
}

func TestRun_ListErrorPropagates(t *testing.T) {
	api := &fakeAPI{listErr: fmt.Errorf("permission denied")}
	c := newCleaner(api, Options{})
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("expected list error to propagate")
	}
}

func TestRun_NoFiltersMatchesEverything(t *testing.T) {
	api := &fakeAPI{engines: []engine.Engine{
		testEngine("e1", "anything", time.Minute),
		testEngine("e2", "else", time.Minute),
	}}
	c := newCleaner(api, Options{})

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matched) != 2 {
		t.Errorf("matched = %v", result.Matched)
	}
}

func TestSummary(t *testing.T) {
	r := &Result{
		Matched: []string{"a", "b"},
		Deleted: []string{"a"},
		Failed:  map[string]error{"b": fmt.Errorf("quota exceeded")},
	}
	out := r.Summary()
	for _, want := range []string{"Matched: 2", "Deleted: 1", "Failed:  1", "quota exceeded"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
