// Package gcloud wraps the gcloud CLI for the operations the deploy commands
// need: fetching access tokens and deploying services to Cloud Run.
package gcloud

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/agentpack-labs/agentpack/internal/manifest"
)

// Runner executes gcloud subcommands.
type Runner struct {
	// Binary overrides the executable name (useful for testing).
	Binary string
	// Stdout and Stderr can be set for testing; defaults to os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Output captures the result of a gcloud invocation.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// binary returns the executable to run.
func (r *Runner) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "gcloud"
}

// Available reports whether the gcloud binary is on PATH.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.binary())
	return err == nil
}

// Run executes a gcloud subcommand, streaming output to the configured
// writers while also capturing it.
func (r *Runner) Run(ctx context.Context, args ...string) (*Output, error) {
	bin, err := exec.LookPath(r.binary())
	if err != nil {
		return nil, fmt.Errorf("gcloud CLI is required: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, args...)

	stdout := r.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = io.MultiWriter(stdout, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)

	err = cmd.Run()

	output := &Output{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			output.ExitCode = exitErr.ExitCode()
			return output, nil
		}
		return output, fmt.Errorf("executing gcloud: %w", err)
	}

	return output, nil
}

// AccessToken returns a bearer token from `gcloud auth print-access-token`.
func (r *Runner) AccessToken(ctx context.Context) (string, error) {
	bin, err := exec.LookPath(r.binary())
	if err != nil {
		return "", fmt.Errorf("gcloud CLI is required for authentication: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "auth", "print-access-token")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}

	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("gcloud returned an empty access token; run `gcloud auth login` first")
	}
	return token, nil
}

// RunDeployArgs builds the argv for `gcloud run deploy` from a manifest.
// The returned slice excludes the binary name itself.
func RunDeployArgs(m *manifest.AgentManifest, sourceDir string) ([]string, error) {
	d := m.Deploy
	if d == nil {
		return nil, fmt.Errorf("manifest %s has no deploy block", m.Name)
	}

	service := d.Service
	if service == "" {
		service = m.Name
	}

	region := m.DeployRegion()
	if region == "" {
		return nil, fmt.Errorf("manifest %s has no region for Cloud Run deploy", m.Name)
	}

	args := []string{
		"run", "deploy", service,
		"--source", sourceDir,
		"--region", region,
	}
	if d.Project != "" {
		args = append(args, "--project", d.Project)
	}
	if d.AllowUnauthenticated {
		args = append(args, "--allow-unauthenticated")
	} else {
		args = append(args, "--no-allow-unauthenticated")
	}

	if len(d.Env) > 0 {
		// Sorted for deterministic argv.
		keys := make([]string, 0, len(d.Env))
		for k := range d.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+d.Env[k])
		}
		args = append(args, "--set-env-vars", strings.Join(pairs, ","))
	}

	return args, nil
}
