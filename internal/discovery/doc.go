// Package discovery registers deployed agent engines with the discovery
// platform so they show up as assistant agents, and unregisters them again.
package discovery
