package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agentpack-labs/agentpack/internal/engine"
)

const defaultBaseURL = "https://discoveryengine.googleapis.com/v1alpha"

// Agent is a registered assistant agent entry.
type Agent struct {
	Name        string           `json:"name,omitempty"`
	DisplayName string           `json:"displayName"`
	Description string           `json:"description,omitempty"`
	Definition  *AgentDefinition `json:"adkAgentDefinition,omitempty"`
	CreateTime  time.Time        `json:"createTime,omitempty"`
}

// AgentDefinition links an agent entry to a provisioned engine resource.
type AgentDefinition struct {
	ToolSettings struct {
		ToolDescription string `json:"toolDescription,omitempty"`
	} `json:"tool_settings"`
	ProvisionedReasoningEngine struct {
		ReasoningEngine string `json:"reasoningEngine"`
	} `json:"provisioned_reasoning_engine"`
}

// listAgentsResponse is the wire shape of the agent list call.
type listAgentsResponse struct {
	Agents        []Agent `json:"agents,omitempty"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// Client talks to the discovery platform's agent registry for one project
// and assistant.
type Client struct {
	baseURL    string
	project    string
	collection string
	assistant  string
	httpClient *http.Client
	tokens     engine.TokenSource
	retry      engine.RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the API endpoint (useful for testing).
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = u }
}

// WithAssistant targets a specific engine/assistant pair instead of the
// defaults.
func WithAssistant(collection, assistant string) Option {
	return func(cl *Client) {
		cl.collection = collection
		cl.assistant = assistant
	}
}

// NewClient creates a Client for the given project.
func NewClient(project string, tokens engine.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		project:    project,
		collection: "default_collection",
		assistant:  "default_assistant",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		retry:      engine.DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// parent returns the assistant path that owns registered agents.
func (c *Client) parent() string {
	return fmt.Sprintf("projects/%s/locations/global/collections/%s/engines/default_engine/assistants/%s",
		c.project, c.collection, c.assistant)
}

// Register creates an agent entry pointing at a provisioned engine and
// returns the created entry.
func (c *Client) Register(ctx context.Context, displayName, description, toolDescription, engineResource string) (*Agent, error) {
	agent := &Agent{
		DisplayName: displayName,
		Description: description,
	}
	agent.Definition = &AgentDefinition{}
	agent.Definition.ToolSettings.ToolDescription = toolDescription
	agent.Definition.ProvisionedReasoningEngine.ReasoningEngine = engineResource

	var created Agent
	path := fmt.Sprintf("/%s/agents", c.parent())
	if err := c.doJSON(ctx, http.MethodPost, path, agent, &created); err != nil {
		return nil, fmt.Errorf("registering agent %q: %w", displayName, err)
	}
	return &created, nil
}

// List returns all registered agent entries, following pagination.
func (c *Client) List(ctx context.Context) ([]Agent, error) {
	var all []Agent
	pageToken := ""
	for {
		path := fmt.Sprintf("/%s/agents", c.parent())
		if pageToken != "" {
			path += "?pageToken=" + pageToken
		}

		var page listAgentsResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("listing agents: %w", err)
		}
		all = append(all, page.Agents...)

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// Unregister deletes an agent entry by full resource name or bare ID.
func (c *Client) Unregister(ctx context.Context, name string) error {
	path := "/" + c.qualify(name)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("unregistering agent %s: %w", name, err)
	}
	return nil
}

// qualify expands a bare agent ID into a full resource name.
func (c *Client) qualify(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name
		}
	}
	return fmt.Sprintf("%s/agents/%s", c.parent(), name)
}

// doJSON performs one API call with auth, retry, and JSON decoding into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	return engine.WithRetry(ctx, c.retry, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-User-Project", c.project)

		token, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("fetching access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return engine.MarkRetryable(fmt.Errorf("calling API: %w", err))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return engine.MarkRetryable(fmt.Errorf("reading response body: %w", err))
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(respBody, 200))
			if engine.RetryableStatus(resp.StatusCode) {
				return engine.MarkRetryable(err)
			}
			return err
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response JSON: %w", err)
		}
		return nil
	})
}

// truncate clips a response body for error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
