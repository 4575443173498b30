package loadtest

import (
	"sort"
	"time"
)

// Stats summarizes the latency distribution of a run.
type Stats struct {
	Total    int           `json:"total"`
	Failed   int           `json:"failed"`
	Min      time.Duration `json:"min_ns"`
	Mean     time.Duration `json:"mean_ns"`
	Max      time.Duration `json:"max_ns"`
	P50      time.Duration `json:"p50_ns"`
	P90      time.Duration `json:"p90_ns"`
	P99      time.Duration `json:"p99_ns"`
	Duration time.Duration `json:"duration_ns"`
	PerSec   float64       `json:"requests_per_sec"`
}

// computeStats aggregates samples. Percentiles come from the sorted latency
// slice; failed requests count toward Total and Failed but not latency.
func computeStats(samples []sample, elapsed time.Duration) Stats {
	st := Stats{Total: len(samples), Duration: elapsed}

	latencies := make([]time.Duration, 0, len(samples))
	var sum time.Duration
	for _, s := range samples {
		if s.err != nil || s.status >= 400 {
			st.Failed++
			continue
		}
		latencies = append(latencies, s.latency)
		sum += s.latency
	}

	if len(latencies) == 0 {
		return st
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	st.Min = latencies[0]
	st.Max = latencies[len(latencies)-1]
	st.Mean = sum / time.Duration(len(latencies))
	st.P50 = percentile(latencies, 50)
	st.P90 = percentile(latencies, 90)
	st.P99 = percentile(latencies, 99)

	if elapsed > 0 {
		st.PerSec = float64(st.Total) / elapsed.Seconds()
	}
	return st
}

// percentile picks the nearest-rank value from a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
