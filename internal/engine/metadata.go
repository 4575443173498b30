package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MetadataFileName is the deployment record written into a project directory
// after a successful engine deploy.
const MetadataFileName = "deployment_metadata.json"

// Metadata records the outcome of the most recent engine deployment.
type Metadata struct {
	EngineName string            `json:"remote_agent_engine_id"`
	DeployedAt time.Time         `json:"deployment_timestamp"`
	Project    string            `json:"project,omitempty"`
	Region     string            `json:"region,omitempty"`
	Flags      map[string]string `json:"flags,omitempty"`
}

// LoadMetadata reads the deployment record from projectDir.
// Returns nil, nil if no record exists yet (first deploy).
func LoadMetadata(projectDir string) (*Metadata, error) {
	path := filepath.Join(projectDir, MetadataFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading deployment metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parsing deployment metadata: %w", err)
	}
	return &md, nil
}

// SaveMetadata writes the deployment record into projectDir.
func SaveMetadata(projectDir string, md *Metadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling deployment metadata: %w", err)
	}

	path := filepath.Join(projectDir, MetadataFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing deployment metadata: %w", err)
	}
	return nil
}
