// Package manifest handles parsing and validation of agent.yaml manifests.
// It supports the three agent types (chat, rag, live) and provides JSON
// Schema validation against the schema embedded in this package.
package manifest
