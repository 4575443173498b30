package relay

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ToolHandler executes a locally registered tool call.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)

// FunctionResult carries the outcome of one tool call back upstream.
type FunctionResult struct {
	ID       string
	Name     string
	Response map[string]interface{}
}

// ToolRegistry maps tool names to local handlers.
type ToolRegistry struct {
	mu       sync.RWMutex
	handlers map[string]ToolHandler
}

// NewToolRegistry returns a registry preloaded with the built-in tools.
func NewToolRegistry() *ToolRegistry {
	r := &ToolRegistry{handlers: make(map[string]ToolHandler)}
	r.Register("get_weather", getWeather)
	r.Register("get_time", getTime)
	return r
}

// Register adds or replaces a handler.
func (r *ToolRegistry) Register(name string, h ToolHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Names returns the registered tool names.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch runs one function call. Handler errors become an error payload in
// the result so the model can recover instead of the session dying.
func (r *ToolRegistry) Dispatch(ctx context.Context, call functionCall) FunctionResult {
	r.mu.RLock()
	h, ok := r.handlers[call.Name]
	r.mu.RUnlock()

	result := FunctionResult{ID: call.ID, Name: call.Name}
	if !ok {
		result.Response = map[string]interface{}{
			"error": fmt.Sprintf("unknown tool %q", call.Name),
		}
		return result
	}

	out, err := h(ctx, call.Args)
	if err != nil {
		result.Response = map[string]interface{}{"error": err.Error()}
		return result
	}
	result.Response = out
	return result
}

// DispatchAll runs every call in a tool-call frame in order.
func (r *ToolRegistry) DispatchAll(ctx context.Context, tc *toolCall) []FunctionResult {
	results := make([]FunctionResult, 0, len(tc.FunctionCalls))
	for _, call := range tc.FunctionCalls {
		results = append(results, r.Dispatch(ctx, call))
	}
	return results
}

func getWeather(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	location, _ := args["location"].(string)
	if location == "" {
		return nil, fmt.Errorf("get_weather requires a location argument")
	}
	return map[string]interface{}{
		"location":    location,
		"conditions":  "sunny",
		"temperature": 22,
		"unit":        "celsius",
	}, nil
}

func getTime(_ context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	now := time.Now()
	if tz, ok := args["timezone"].(string); ok && tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q", tz)
		}
		now = now.In(loc)
	}
	return map[string]interface{}{
		"time": now.Format(time.RFC3339),
	}, nil
}
