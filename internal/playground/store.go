package playground

import (
	"context"
	"time"
)

// Session is one chat conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Part is one role-tagged piece of a message.
type Part struct {
	Type     string                 `json:"type"`
	Text     string                 `json:"text,omitempty"`
	ToolName string                 `json:"tool_name,omitempty"`
	ToolArgs map[string]interface{} `json:"tool_args,omitempty"`
	Response map[string]interface{} `json:"response,omitempty"`
	CallID   string                 `json:"call_id,omitempty"`
}

// Part types.
const (
	PartText         = "text"
	PartToolCall     = "tool_call"
	PartToolResponse = "tool_response"
)

// Message is one entry in a session's ordered transcript.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Feedback is one user rating of an agent response.
type Feedback struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	InvocationID string    `json:"invocation_id,omitempty"`
	Score        int       `json:"score"`
	Text         string    `json:"text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository persists sessions, transcripts, and feedback.
type Repository interface {
	// CreateSession stores a new session.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session by ID. Missing sessions return nil, nil.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]*Session, error)

	// TouchSession bumps a session's updated_at.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// AppendMessage adds a message to a session transcript.
	AppendMessage(ctx context.Context, m *Message) error

	// ListMessages returns a session's transcript in insertion order.
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)

	// SaveFeedback stores one feedback record.
	SaveFeedback(ctx context.Context, f *Feedback) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
