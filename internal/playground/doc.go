// Package playground serves the local chat frontend for testing deployed
// agents: an embedded single-page UI, an SSE chat API that proxies to the
// agent backend, session history, and a feedback endpoint backed by SQLite.
package playground
