package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("demo-project", "us-central1", StaticToken("test-token"),
		WithBaseURL(srv.URL),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}),
	)
}

func TestCreateEngine(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody Engine

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Operation{Name: "projects/demo-project/locations/us-central1/operations/op-1"})
	}))

	op, err := c.CreateEngine(context.Background(), &Engine{DisplayName: "Support Bot"})
	if err != nil {
		t.Fatalf("CreateEngine error: %v", err)
	}
	if op.Name != "projects/demo-project/locations/us-central1/operations/op-1" {
		t.Errorf("op.Name = %q", op.Name)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if want := "/projects/demo-project/locations/us-central1/reasoningEngines"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotBody.DisplayName != "Support Bot" {
		t.Errorf("request DisplayName = %q", gotBody.DisplayName)
	}
}

func TestGetEngine_QualifiesBareID(t *testing.T) {
	var gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Engine{
			Name:        "projects/demo-project/locations/us-central1/reasoningEngines/123",
			DisplayName: "Support Bot",
		})
	}))

	eng, err := c.GetEngine(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetEngine error: %v", err)
	}
	if want := "/projects/demo-project/locations/us-central1/reasoningEngines/123"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if eng.ID() != "123" {
		t.Errorf("ID() = %q, want %q", eng.ID(), "123")
	}
}

func TestListEngines_FollowsPagination(t *testing.T) {
	var pages atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pageToken") {
		case "":
			pages.Add(1)
			json.NewEncoder(w).Encode(listEnginesResponse{
				Engines:       []Engine{{DisplayName: "one"}, {DisplayName: "two"}},
				NextPageToken: "page-2",
			})
		case "page-2":
			pages.Add(1)
			json.NewEncoder(w).Encode(listEnginesResponse{
				Engines: []Engine{{DisplayName: "three"}},
			})
		default:
			t.Errorf("unexpected pageToken %q", r.URL.Query().Get("pageToken"))
		}
	}))

	engines, err := c.ListEngines(context.Background())
	if err != nil {
		t.Fatalf("ListEngines error: %v", err)
	}
	if len(engines) != 3 {
		t.Fatalf("engines len = %d, want 3", len(engines))
	}
	if pages.Load() != 2 {
		t.Errorf("pages fetched = %d, want 2", pages.Load())
	}
}

func TestDeleteEngine_ForceFlag(t *testing.T) {
	var gotForce string
	var gotMethod string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotForce = r.URL.Query().Get("force")
		json.NewEncoder(w).Encode(Operation{Name: "op-del", Done: true})
	}))

	op, err := c.DeleteEngine(context.Background(), "123", true)
	if err != nil {
		t.Fatalf("DeleteEngine error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", gotMethod)
	}
	if gotForce != "true" {
		t.Errorf("force = %q, want %q", gotForce, "true")
	}
	if !op.Done {
		t.Error("op.Done = false, want true")
	}
}

func TestQueryEngine(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":query") {
			t.Errorf("path = %q, want :query suffix", r.URL.Path)
		}
		var req QueryRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Input["message"] != "hello" {
			t.Errorf("input message = %v", req.Input["message"])
		}
		json.NewEncoder(w).Encode(QueryResponse{Output: "hi there"})
	}))

	resp, err := c.QueryEngine(context.Background(), "123", map[string]interface{}{"message": "hello"})
	if err != nil {
		t.Fatalf("QueryEngine error: %v", err)
	}
	if resp.Output != "hi there" {
		t.Errorf("Output = %v, want %q", resp.Output, "hi there")
	}
}

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":{"code":503,"message":"unavailable"}}`, http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Engine{DisplayName: "ok"})
	}))

	eng, err := c.GetEngine(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetEngine error after retries: %v", err)
	}
	if eng.DisplayName != "ok" {
		t.Errorf("DisplayName = %q, want %q", eng.DisplayName, "ok")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDoJSON_ClientErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"code":404,"message":"engine not found"}}`, http.StatusNotFound)
	}))

	_, err := c.GetEngine(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "engine not found") {
		t.Errorf("error should carry API message, got: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 404)", calls.Load())
	}
}

func TestWaitOperation(t *testing.T) {
	var polls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			json.NewEncoder(w).Encode(Operation{Name: "operations/op-1"})
			return
		}
		json.NewEncoder(w).Encode(Operation{Name: "operations/op-1", Done: true})
	}))

	op, err := c.WaitOperation(context.Background(),
		&Operation{Name: "operations/op-1"}, time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("WaitOperation error: %v", err)
	}
	if !op.Done {
		t.Error("op.Done = false, want true")
	}
}

func TestWaitOperation_FailedOperation(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Operation{
			Name: "operations/op-1",
			Done: true,
			Error: &OperationError{
				Code:    9,
				Message: "container build failed",
			},
		})
	}))

	_, err := c.WaitOperation(context.Background(),
		&Operation{Name: "operations/op-1"}, time.Millisecond, time.Second)
	if err == nil {
		t.Fatal("expected error for failed operation")
	}
	if !strings.Contains(err.Error(), "container build failed") {
		t.Errorf("error should carry operation message, got: %v", err)
	}
}

func TestWaitOperation_DeadlineExceeded(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Operation{Name: "operations/op-1"})
	}))

	_, err := c.WaitOperation(context.Background(),
		&Operation{Name: "operations/op-1"}, time.Millisecond, 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected deadline error")
	}
}
