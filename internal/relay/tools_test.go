package relay

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"
)

func TestToolRegistry_Builtins(t *testing.T) {
	reg := NewToolRegistry()
	names := reg.Names()
	sort.Strings(names)
	want := []string{"get_time", "get_weather"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestDispatch_Weather(t *testing.T) {
	reg := NewToolRegistry()
	res := reg.Dispatch(context.Background(), functionCall{
		ID:   "call-1",
		Name: "get_weather",
		Args: map[string]interface{}{"location": "Lisbon"},
	})
	if res.ID != "call-1" || res.Name != "get_weather" {
		t.Fatalf("result identity = %+v", res)
	}
	if res.Response["location"] != "Lisbon" {
		t.Errorf("location = %v", res.Response["location"])
	}
	if _, ok := res.Response["error"]; ok {
		t.Errorf("unexpected error in response: %v", res.Response)
	}
}

func TestDispatch_WeatherMissingLocation(t *testing.T) {
	reg := NewToolRegistry()
	res := reg.Dispatch(context.Background(), functionCall{Name: "get_weather"})
	if _, ok := res.Response["error"]; !ok {
		t.Fatalf("expected error payload, got %v", res.Response)
	}
}

func TestDispatch_Time(t *testing.T) {
	reg := NewToolRegistry()
	res := reg.Dispatch(context.Background(), functionCall{Name: "get_time"})
	raw, ok := res.Response["time"].(string)
	if !ok {
		t.Fatalf("expected time string, got %v", res.Response)
	}
	if _, err := time.Parse(time.RFC3339, raw); err != nil {
		t.Errorf("time %q not RFC3339: %v", raw, err)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	reg := NewToolRegistry()
	res := reg.Dispatch(context.Background(), functionCall{ID: "x", Name: "launch_rocket"})
	errMsg, ok := res.Response["error"].(string)
	if !ok {
		t.Fatalf("expected error payload, got %v", res.Response)
	}
	if errMsg == "" {
		t.Error("error message is empty")
	}
}

func TestDispatch_HandlerError(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register("always_fails", func(context.Context, map[string]interface{}) (map[string]interface{}, error) {
		return nil, fmt.Errorf("backend down")
	})
	res := reg.Dispatch(context.Background(), functionCall{Name: "always_fails"})
	if res.Response["error"] != "backend down" {
		t.Errorf("error = %v, want backend down", res.Response["error"])
	}
}

func TestDispatchAll_PreservesOrder(t *testing.T) {
	reg := NewToolRegistry()
	results := reg.DispatchAll(context.Background(), &toolCall{
		FunctionCalls: []functionCall{
			{ID: "a", Name: "get_time"},
			{ID: "b", Name: "get_weather", Args: map[string]interface{}{"location": "Oslo"}},
		},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("order = %s, %s", results[0].ID, results[1].ID)
	}
}
