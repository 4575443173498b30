// Package scaffold generates new agent projects from embedded templates. It
// powers the "agentpack create" command, producing the project skeleton
// (agent.yaml, prompt.md, tools.yaml, deployment.yaml, README) for each
// agent type with pre-filled deployment boilerplate.
package scaffold
