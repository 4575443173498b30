// Package cleanup removes stale deployed engines left behind by CI runs.
package cleanup
