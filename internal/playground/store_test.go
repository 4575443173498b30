package playground

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// storeUnderTest runs the same suite against both Repository implementations.
func storeUnderTest(t *testing.T) map[string]func(t *testing.T) Repository {
	t.Helper()
	return map[string]func(t *testing.T) Repository{
		"memory": func(t *testing.T) Repository {
			return NewMemory()
		},
		"sqlite": func(t *testing.T) Repository {
			store, err := NewSQLite(filepath.Join(t.TempDir(), "playground.db"))
			if err != nil {
				t.Fatalf("NewSQLite: %v", err)
			}
			t.Cleanup(func() { store.Close() })
			return store
		},
	}
}

func TestStore_SessionRoundTrip(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			now := time.Unix(1700000000, 0)

			sess := &Session{ID: "s1", Title: "first chat", CreatedAt: now, UpdatedAt: now}
			if err := store.CreateSession(ctx, sess); err != nil {
				t.Fatalf("CreateSession: %v", err)
			}

			got, err := store.GetSession(ctx, "s1")
			if err != nil {
				t.Fatalf("GetSession: %v", err)
			}
			if got == nil || got.Title != "first chat" {
				t.Fatalf("got = %+v", got)
			}
			if !got.CreatedAt.Equal(now) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
			}
		})
	}
}

func TestStore_GetMissingSession(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			got, err := store.GetSession(context.Background(), "nope")
			if err != nil {
				t.Fatalf("GetSession: %v", err)
			}
			if got != nil {
				t.Errorf("expected nil for missing session, got %+v", got)
			}
		})
	}
}

func TestStore_ListSessionsOrdering(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			base := time.Unix(1700000000, 0)

			for i, id := range []string{"old", "mid", "new"} {
				at := base.Add(time.Duration(i) * time.Hour)
				sess := &Session{ID: id, Title: id, CreatedAt: at, UpdatedAt: at}
				if err := store.CreateSession(ctx, sess); err != nil {
					t.Fatalf("CreateSession(%s): %v", id, err)
				}
			}
			if err := store.TouchSession(ctx, "old", base.Add(10*time.Hour)); err != nil {
				t.Fatalf("TouchSession: %v", err)
			}

			sessions, err := store.ListSessions(ctx)
			if err != nil {
				t.Fatalf("ListSessions: %v", err)
			}
			if len(sessions) != 3 {
				t.Fatalf("expected 3 sessions, got %d", len(sessions))
			}
			if sessions[0].ID != "old" {
				t.Errorf("most recent = %q, want old (touched last)", sessions[0].ID)
			}
		})
	}
}

func TestStore_MessagesKeepOrder(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := context.Background()
			now := time.Unix(1700000000, 0)

			sess := &Session{ID: "s1", Title: "chat", CreatedAt: now, UpdatedAt: now}
			if err := store.CreateSession(ctx, sess); err != nil {
				t.Fatal(err)
			}

			msgs := []*Message{
				{ID: "m1", SessionID: "s1", Role: RoleUser, Parts: []Part{{Type: PartText, Text: "hi"}}, CreatedAt: now},
				{ID: "m2", SessionID: "s1", Role: RoleAssistant, Parts: []Part{
					{Type: PartToolCall, ToolName: "lookup_docs", CallID: "c1", ToolArgs: map[string]interface{}{"query": "x"}},
					{Type: PartText, Text: "found it"},
				}, CreatedAt: now},
				{ID: "m3", SessionID: "s1", Role: RoleUser, Parts: []Part{{Type: PartText, Text: "thanks"}}, CreatedAt: now},
			}
			for _, m := range msgs {
				if err := store.AppendMessage(ctx, m); err != nil {
					t.Fatalf("AppendMessage(%s): %v", m.ID, err)
				}
			}

			got, err := store.ListMessages(ctx, "s1")
			if err != nil {
				t.Fatalf("ListMessages: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 messages, got %d", len(got))
			}
			for i, want := range []string{"m1", "m2", "m3"} {
				if got[i].ID != want {
					t.Errorf("message %d = %q, want %q", i, got[i].ID, want)
				}
			}
			if got[1].Parts[0].ToolName != "lookup_docs" || got[1].Parts[0].ToolArgs["query"] != "x" {
				t.Errorf("tool part round trip = %+v", got[1].Parts[0])
			}
		})
	}
}

func TestStore_Feedback(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			f := &Feedback{
				ID:           "f1",
				SessionID:    "s1",
				InvocationID: "inv-1",
				Score:        1,
				Text:         "great answer",
				CreatedAt:    time.Unix(1700000000, 0),
			}
			if err := store.SaveFeedback(context.Background(), f); err != nil {
				t.Fatalf("SaveFeedback: %v", err)
			}
		})
	}
}

func TestStore_Ping(t *testing.T) {
	for name, open := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if err := open(t).Ping(context.Background()); err != nil {
				t.Errorf("Ping: %v", err)
			}
		})
	}
}
