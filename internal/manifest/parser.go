package manifest

import (
	"fmt"
	"os"
	"regexp"
	"slices"

	"go.yaml.in/yaml/v3"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidateName checks an agent name against the manifest naming rules:
// lowercase alphanumerics and hyphens, starting with an alphanumeric.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid agent name %q: use lowercase letters, digits, and hyphens, starting with a letter or digit", name)
	}
	return nil
}

// Parse unmarshals raw agent.yaml bytes into an AgentManifest and checks
// the type discriminator.
func Parse(data []byte) (*AgentManifest, error) {
	var m AgentManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("manifest missing required 'type' field")
	}
	if !slices.Contains(ValidTypes, m.Type) {
		return nil, fmt.Errorf("unknown agent type %q: valid types are %v", m.Type, ValidTypes)
	}
	return &m, nil
}

// ParseFile reads and parses an agent.yaml file.
func ParseFile(path string) (*AgentManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DeployTarget returns the manifest's deploy target, defaulting to "engine"
// when no deploy block is present.
func (m *AgentManifest) DeployTarget() string {
	if m.Deploy == nil || m.Deploy.Target == "" {
		return TargetEngine
	}
	return m.Deploy.Target
}

// DeployRegion returns the region to deploy into: the deploy block's region
// when set, otherwise the manifest's top-level region.
func (m *AgentManifest) DeployRegion() string {
	if m.Deploy != nil && m.Deploy.Region != "" {
		return m.Deploy.Region
	}
	return m.Region
}

// EngineDisplayName returns the display name used when registering the agent
// with the hosting platform, falling back to the manifest name.
func (m *AgentManifest) EngineDisplayName() string {
	if m.Deploy != nil && m.Deploy.DisplayName != "" {
		return m.Deploy.DisplayName
	}
	return m.Name
}
