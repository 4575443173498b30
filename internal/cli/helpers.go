package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentpack-labs/agentpack/internal/branding"
	"github.com/agentpack-labs/agentpack/internal/config"
	"github.com/agentpack-labs/agentpack/internal/engine"
	"github.com/agentpack-labs/agentpack/internal/gcloud"
	"github.com/agentpack-labs/agentpack/internal/manifest"
)

// loadManifest reads agent.yaml from dir ("." when empty).
func loadManifest(dir string) (*manifest.AgentManifest, string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, "agent.yaml")
	m, err := manifest.ParseFile(path)
	if err != nil {
		return nil, "", err
	}
	return m, dir, nil
}

// resolveProject picks the project ID: flag, then env, then config, then the
// manifest deploy block.
func resolveProject(flag string, m *manifest.AgentManifest) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(branding.EnvVar("PROJECT")); v != "" {
		return v, nil
	}
	config.Load()
	if v := config.Get(config.KeyProject); v != "" {
		return v, nil
	}
	if m != nil && m.Deploy != nil && m.Deploy.Project != "" {
		return m.Deploy.Project, nil
	}
	return "", fmt.Errorf("no project configured: pass --project, set %s, or run '%s config set %s <id>'",
		branding.EnvVar("PROJECT"), branding.CLIName(), config.KeyProject)
}

// resolveRegion picks the region: flag, then env, then config, then manifest.
func resolveRegion(flag string, m *manifest.AgentManifest) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(branding.EnvVar("REGION")); v != "" {
		return v, nil
	}
	config.Load()
	if v := config.Get(config.KeyRegion); v != "" {
		return v, nil
	}
	if m != nil {
		if r := m.DeployRegion(); r != "" {
			return r, nil
		}
	}
	return "", fmt.Errorf("no region configured: pass --region, set %s, or run '%s config set %s <region>'",
		branding.EnvVar("REGION"), branding.CLIName(), config.KeyRegion)
}

// tokenSource returns the access-token provider: the env override when set,
// otherwise the vendor CLI.
func tokenSource() engine.TokenSource {
	if v := os.Getenv(branding.EnvVar("ACCESS_TOKEN")); v != "" {
		return engine.StaticToken(v)
	}
	runner := &gcloud.Runner{}
	return func(ctx context.Context) (string, error) {
		return runner.AccessToken(ctx)
	}
}

// newEngineClient builds the deployment API client for a project/region pair.
func newEngineClient(project, region string) *engine.Client {
	return engine.NewClient(project, region, tokenSource())
}
