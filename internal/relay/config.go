package relay

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/agentpack-labs/agentpack/internal/branding"
	"github.com/agentpack-labs/agentpack/internal/manifest"
)

// Config is the relay server configuration, loaded from relay.yaml in the
// agent project directory with environment overrides on top.
type Config struct {
	Listen           string   `yaml:"listen"`
	UpstreamURL      string   `yaml:"upstream_url"`
	Model            string   `yaml:"model"`
	Voice            string   `yaml:"voice"`
	SystemPrompt     string   `yaml:"system_prompt"`
	InputSampleRate  int      `yaml:"input_sample_rate"`
	OutputSampleRate int      `yaml:"output_sample_rate"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
}

// DefaultListen is used when relay.yaml does not set a listen address.
const DefaultListen = ":8765"

// LoadConfig reads relay.yaml and fills gaps from the agent manifest and
// environment. A missing file is not an error; the manifest alone is enough
// to run.
func LoadConfig(path string, m *manifest.AgentManifest) (*Config, error) {
	cfg := &Config{Listen: DefaultListen}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading relay config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing relay config: %w", err)
		}
	}

	if m != nil {
		if cfg.Model == "" {
			cfg.Model = m.Model
		}
		if cfg.SystemPrompt == "" {
			cfg.SystemPrompt = m.Prompt
		}
		if m.Audio != nil {
			if cfg.Voice == "" {
				cfg.Voice = m.Audio.Voice
			}
			if cfg.InputSampleRate == 0 {
				cfg.InputSampleRate = m.Audio.InputSampleRate
			}
			if cfg.OutputSampleRate == 0 {
				cfg.OutputSampleRate = m.Audio.OutputSampleRate
			}
		}
	}

	if v := os.Getenv(branding.EnvVar("RELAY_LISTEN")); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv(branding.EnvVar("RELAY_UPSTREAM_URL")); v != "" {
		cfg.UpstreamURL = v
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.InputSampleRate == 0 {
		cfg.InputSampleRate = 16000
	}
	if cfg.OutputSampleRate == 0 {
		cfg.OutputSampleRate = 24000
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("relay config: model is required (set it in relay.yaml or agent.yaml)")
	}
	if cfg.UpstreamURL == "" {
		return nil, fmt.Errorf("relay config: upstream_url is required (set it in relay.yaml or %s)", branding.EnvVar("RELAY_UPSTREAM_URL"))
	}

	return cfg, nil
}
