package manifest

// AgentManifest is the root of an agent.yaml file. All agent types share
// these fields; type-specific blocks are pointers and nil when absent.
type AgentManifest struct {
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type" json:"type"`
	Version     string   `yaml:"version" json:"version"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Model       string   `yaml:"model" json:"model"`
	Region      string   `yaml:"region,omitempty" json:"region,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`

	Prompt    string          `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Tools     []ToolSpec      `yaml:"tools,omitempty" json:"tools,omitempty"`
	Retrieval *RetrievalBlock `yaml:"retrieval,omitempty" json:"retrieval,omitempty"`
	Audio     *AudioBlock     `yaml:"audio,omitempty" json:"audio,omitempty"`
	Deploy    *DeployBlock    `yaml:"deploy,omitempty" json:"deploy,omitempty"`
}

// ToolSpec declares a tool the agent may invoke.
type ToolSpec struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Parameters  map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// RetrievalBlock configures the datastore used by rag agents.
type RetrievalBlock struct {
	DatastoreID       string  `yaml:"datastore_id" json:"datastore_id"`
	TopK              int     `yaml:"top_k,omitempty" json:"top_k,omitempty"`
	DistanceThreshold float64 `yaml:"distance_threshold,omitempty" json:"distance_threshold,omitempty"`
}

// AudioBlock configures the live-audio session for live agents.
type AudioBlock struct {
	Voice            string `yaml:"voice,omitempty" json:"voice,omitempty"`
	InputSampleRate  int    `yaml:"input_sample_rate,omitempty" json:"input_sample_rate,omitempty"`
	OutputSampleRate int    `yaml:"output_sample_rate,omitempty" json:"output_sample_rate,omitempty"`
}

// DeployBlock declares where and how the agent is deployed.
type DeployBlock struct {
	Target               string            `yaml:"target" json:"target"`
	Project              string            `yaml:"project,omitempty" json:"project,omitempty"`
	Region               string            `yaml:"region,omitempty" json:"region,omitempty"`
	DisplayName          string            `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Service              string            `yaml:"service,omitempty" json:"service,omitempty"`
	AllowUnauthenticated bool              `yaml:"allow_unauthenticated,omitempty" json:"allow_unauthenticated,omitempty"`
	Env                  map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Agent type constants for the type discriminator field.
const (
	TypeChat = "chat"
	TypeRAG  = "rag"
	TypeLive = "live"
)

// Deployment target constants for DeployBlock.Target.
const (
	TargetEngine = "engine"
	TargetRun    = "run"
)

// ValidTypes contains all valid agent type values.
var ValidTypes = []string{TypeChat, TypeRAG, TypeLive}

// ValidTargets contains all valid deployment target values.
var ValidTargets = []string{TargetEngine, TargetRun}
