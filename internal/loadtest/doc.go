// Package loadtest drives concurrent chat traffic against an agent endpoint
// and reports latency statistics.
package loadtest
