package playground

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agentpack-labs/agentpack/internal/engine"
)

// Backend streams agent responses for a chat turn. fn is called once per
// event in order; a non-nil return stops the stream.
type Backend interface {
	Stream(ctx context.Context, sessionID, message string, fn func(*StreamEvent) error) error
}

// HTTPBackend talks to a locally running agent server that streams
// newline-delimited JSON or SSE events.
type HTTPBackend struct {
	URL    string
	Client *http.Client
}

func (b *HTTPBackend) httpClient() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return &http.Client{Timeout: 5 * time.Minute}
}

func (b *HTTPBackend) Stream(ctx context.Context, sessionID, message string, fn func(*StreamEvent) error) error {
	body, err := json.Marshal(map[string]string{
		"session_id": sessionID,
		"message":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building backend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := b.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("calling agent backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent backend returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "data:")
		line = strings.TrimSpace(line)
		if line == "" || line == "[DONE]" {
			continue
		}
		ev, err := ParseStreamEvent([]byte(line))
		if err != nil {
			return fmt.Errorf("decoding backend event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// EngineBackend queries a deployed engine. The query endpoint is
// request/response, so the stream is a single final event.
type EngineBackend struct {
	Client *engine.Client
	Name   string
}

func (b *EngineBackend) Stream(ctx context.Context, sessionID, message string, fn func(*StreamEvent) error) error {
	resp, err := b.Client.QueryEngine(ctx, b.Name, map[string]interface{}{
		"message":    message,
		"session_id": sessionID,
	})
	if err != nil {
		return err
	}

	text := ""
	if resp != nil {
		switch out := resp.Output.(type) {
		case string:
			text = out
		default:
			encoded, err := json.Marshal(out)
			if err != nil {
				return fmt.Errorf("encoding engine output: %w", err)
			}
			text = string(encoded)
		}
	}
	return fn(&StreamEvent{
		Content: &EventContent{
			Role:  "model",
			Parts: []EventPart{{Text: text}},
		},
	})
}
