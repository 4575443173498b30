package relay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentpack-labs/agentpack/internal/manifest"
)

func liveManifest() *manifest.AgentManifest {
	return &manifest.AgentManifest{
		Name:    "voice-concierge",
		Type:    manifest.TypeLive,
		Version: "0.1.0",
		Model:   "gemini-live-2.5-flash",
		Prompt:  "Be helpful.",
		Audio: &manifest.AudioBlock{
			Voice:            "Aoede",
			InputSampleRate:  16000,
			OutputSampleRate: 24000,
		},
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	content := `
listen: ":9000"
upstream_url: "wss://example.test/live"
model: "gemini-live-2.5-flash"
voice: "Puck"
allowed_origins:
  - "https://app.example.test"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, liveManifest())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Voice != "Puck" {
		t.Errorf("Voice = %q, file should win over manifest", cfg.Voice)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://app.example.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfig_ManifestFillsGaps(t *testing.T) {
	t.Setenv("AGENTPACK_RELAY_UPSTREAM_URL", "wss://example.test/live")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "relay.yaml"), liveManifest())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model != "gemini-live-2.5-flash" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Voice != "Aoede" {
		t.Errorf("Voice = %q", cfg.Voice)
	}
	if cfg.SystemPrompt != "Be helpful." {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.InputSampleRate != 16000 || cfg.OutputSampleRate != 24000 {
		t.Errorf("sample rates = %d/%d", cfg.InputSampleRate, cfg.OutputSampleRate)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AGENTPACK_RELAY_LISTEN", ":7777")
	t.Setenv("AGENTPACK_RELAY_UPSTREAM_URL", "wss://override.test/live")

	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	content := `
listen: ":9000"
upstream_url: "wss://file.test/live"
model: "gemini-live-2.5-flash"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":7777" {
		t.Errorf("Listen = %q, env should win", cfg.Listen)
	}
	if cfg.UpstreamURL != "wss://override.test/live" {
		t.Errorf("UpstreamURL = %q, env should win", cfg.UpstreamURL)
	}
}

func TestLoadConfig_MissingModel(t *testing.T) {
	t.Setenv("AGENTPACK_RELAY_UPSTREAM_URL", "wss://example.test/live")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "relay.yaml"), nil); err == nil {
		t.Fatal("expected error when model is unset")
	}
}

func TestLoadConfig_MissingUpstream(t *testing.T) {
	m := liveManifest()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "relay.yaml"), m); err == nil {
		t.Fatal("expected error when upstream_url is unset")
	}
}
