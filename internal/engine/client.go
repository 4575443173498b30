package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TokenSource supplies a bearer token for API calls.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields tok.
func StaticToken(tok string) TokenSource {
	return func(context.Context) (string, error) { return tok, nil }
}

// Client talks to the agent-engine API for one project and region.
type Client struct {
	baseURL    string
	project    string
	region     string
	httpClient *http.Client
	tokens     TokenSource
	retry      RetryPolicy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL overrides the API endpoint (useful for testing and sandboxes).
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = u }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(cl *Client) { cl.retry = p }
}

// NewClient creates a Client for the given project and region. The default
// endpoint is the regional API host; tokens come from the supplied source.
func NewClient(project, region string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", region),
		project:    project,
		region:     region,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		tokens:     tokens,
		retry:      DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// parent returns the collection parent path for engine resources.
func (c *Client) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.project, c.region)
}

// CreateEngine starts engine creation and returns the long-running operation.
func (c *Client) CreateEngine(ctx context.Context, eng *Engine) (*Operation, error) {
	var op Operation
	path := fmt.Sprintf("/%s/reasoningEngines", c.parent())
	if err := c.doJSON(ctx, http.MethodPost, path, eng, &op); err != nil {
		return nil, fmt.Errorf("creating engine %q: %w", eng.DisplayName, err)
	}
	return &op, nil
}

// GetEngine fetches an engine by full resource name or bare ID.
func (c *Client) GetEngine(ctx context.Context, name string) (*Engine, error) {
	var eng Engine
	if err := c.doJSON(ctx, http.MethodGet, "/"+c.qualify(name), nil, &eng); err != nil {
		return nil, fmt.Errorf("getting engine %s: %w", name, err)
	}
	return &eng, nil
}

// ListEngines returns all engines in the project/region, following pagination.
func (c *Client) ListEngines(ctx context.Context) ([]Engine, error) {
	var all []Engine
	pageToken := ""
	for {
		path := fmt.Sprintf("/%s/reasoningEngines?pageSize=100", c.parent())
		if pageToken != "" {
			path += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page listEnginesResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("listing engines: %w", err)
		}
		all = append(all, page.Engines...)

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// UpdateEngine patches an existing engine's display name, description, and spec.
func (c *Client) UpdateEngine(ctx context.Context, eng *Engine) (*Operation, error) {
	if eng.Name == "" {
		return nil, fmt.Errorf("updating engine: resource name is required")
	}
	var op Operation
	path := "/" + c.qualify(eng.Name) + "?updateMask=displayName,description,spec"
	if err := c.doJSON(ctx, http.MethodPatch, path, eng, &op); err != nil {
		return nil, fmt.Errorf("updating engine %s: %w", eng.Name, err)
	}
	return &op, nil
}

// DeleteEngine starts deletion of an engine. With force, child resources are
// deleted as well.
func (c *Client) DeleteEngine(ctx context.Context, name string, force bool) (*Operation, error) {
	var op Operation
	path := "/" + c.qualify(name) + "?force=" + strconv.FormatBool(force)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &op); err != nil {
		return nil, fmt.Errorf("deleting engine %s: %w", name, err)
	}
	return &op, nil
}

// QueryEngine sends an input payload to a deployed engine and returns its output.
func (c *Client) QueryEngine(ctx context.Context, name string, input map[string]interface{}) (*QueryResponse, error) {
	var resp QueryResponse
	path := "/" + c.qualify(name) + ":query"
	if err := c.doJSON(ctx, http.MethodPost, path, &QueryRequest{Input: input}, &resp); err != nil {
		return nil, fmt.Errorf("querying engine %s: %w", name, err)
	}
	return &resp, nil
}

// GetOperation fetches the current state of a long-running operation.
func (c *Client) GetOperation(ctx context.Context, name string) (*Operation, error) {
	var op Operation
	if err := c.doJSON(ctx, http.MethodGet, "/"+name, nil, &op); err != nil {
		return nil, fmt.Errorf("getting operation %s: %w", name, err)
	}
	return &op, nil
}

// WaitOperation polls op until it finishes or the deadline passes. It returns
// the finished operation, or an error when the operation itself failed.
func (c *Client) WaitOperation(ctx context.Context, op *Operation, interval, deadline time.Duration) (*Operation, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	for {
		if op.Done {
			if op.Error != nil {
				return op, fmt.Errorf("operation %s failed: %s (code %d)", op.Name, op.Error.Message, op.Error.Code)
			}
			return op, nil
		}

		select {
		case <-ctx.Done():
			return op, fmt.Errorf("waiting for operation %s: %w", op.Name, ctx.Err())
		case <-time.After(interval):
		}

		next, err := c.GetOperation(ctx, op.Name)
		if err != nil {
			return op, err
		}
		op = next
	}
}

// qualify expands a bare engine ID into a full resource name. Full names and
// operation paths pass through unchanged.
func (c *Client) qualify(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name
		}
	}
	return fmt.Sprintf("%s/reasoningEngines/%s", c.parent(), name)
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

	return WithRetry(ctx, c.retry, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		token, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("fetching access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return MarkRetryable(fmt.Errorf("calling API: %w", err))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return MarkRetryable(fmt.Errorf("reading response body: %w", err))
		}

		if resp.StatusCode != http.StatusOK {
			err := apiErrorFrom(resp.StatusCode, respBody)
			if RetryableStatus(resp.StatusCode) {
				return MarkRetryable(err)
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

// apiErrorFrom builds a readable error from an API error body.
func apiErrorFrom(status int, body []byte) error {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		return fmt.Errorf("API returned %d: %s", status, ae.Error.Message)
	}
	return fmt.Errorf("API returned status %d", status)
}
