// Package engine is a REST client for the hosted agent-engine API. It covers
// the deployment lifecycle (create, get, list, update, delete), long-running
// operation polling, engine queries, and the deployment metadata record
// written next to a deployed project.
package engine
