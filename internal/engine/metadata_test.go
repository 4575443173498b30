package engine

import (
	"testing"
	"time"
)

func TestMetadata_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	md := &Metadata{
		EngineName: "projects/demo/locations/us-central1/reasoningEngines/123",
		DeployedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Project:    "demo",
		Region:     "us-central1",
		Flags:      map[string]string{"target": "engine"},
	}
	if err := SaveMetadata(dir, md); err != nil {
		t.Fatalf("SaveMetadata error: %v", err)
	}

	got, err := LoadMetadata(dir)
	if err != nil {
		t.Fatalf("LoadMetadata error: %v", err)
	}
	if got == nil {
		t.Fatal("LoadMetadata returned nil for existing record")
	}
	if got.EngineName != md.EngineName {
		t.Errorf("EngineName = %q, want %q", got.EngineName, md.EngineName)
	}
	if !got.DeployedAt.Equal(md.DeployedAt) {
		t.Errorf("DeployedAt = %v, want %v", got.DeployedAt, md.DeployedAt)
	}
	if got.Flags["target"] != "engine" {
		t.Errorf("Flags = %v", got.Flags)
	}
}

func TestLoadMetadata_MissingFile(t *testing.T) {
	md, err := LoadMetadata(t.TempDir())
	if err != nil {
		t.Fatalf("LoadMetadata error: %v", err)
	}
	if md != nil {
		t.Errorf("expected nil metadata for missing file, got %+v", md)
	}
}

func TestEngineID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"projects/p/locations/l/reasoningEngines/456", "456"},
		{"456", "456"},
		{"", ""},
	}
	for _, tt := range tests {
		e := &Engine{Name: tt.name}
		if got := e.ID(); got != tt.want {
			t.Errorf("ID(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
