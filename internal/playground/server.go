package playground

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

//go:embed web
var webFS embed.FS

// Server is the playground HTTP server.
type Server struct {
	store   Repository
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewServer wires the chat API over a store and an agent backend.
func NewServer(store Repository, backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, backend: backend, logger: logger, now: time.Now}
}

// Routes returns the full HTTP handler: UI plus JSON/SSE API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/chat", s.handleChat)
	r.Post("/api/feedback", s.handleFeedback)
	r.Get("/api/sessions", s.handleListSessions)
	r.Get("/api/sessions/{id}", s.handleGetSession)

	ui, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	r.Handle("/*", http.FileServer(http.FS(ui)))

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	now := s.now()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		sess := &Session{ID: sessionID, Title: sessionTitle(req.Message), CreatedAt: now, UpdatedAt: now}
		if err := s.store.CreateSession(ctx, sess); err != nil {
			s.logger.Error("creating session", "error", err)
			http.Error(w, "store error", http.StatusInternalServerError)
			return
		}
	} else if err := s.store.TouchSession(ctx, sessionID, now); err != nil {
		s.logger.Error("touching session", "session_id", sessionID, "error", err)
	}

	userMsg := &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      RoleUser,
		Parts:     []Part{{Type: PartText, Text: req.Message}},
		CreatedAt: now,
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		s.logger.Error("storing user message", "error", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Session-Id", sessionID)
	w.WriteHeader(http.StatusOK)

	proc := NewProcessor()
	err := s.backend.Stream(ctx, sessionID, req.Message, func(ev *StreamEvent) error {
		proc.Apply(ev)
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.logger.Error("backend stream failed", "session_id", sessionID, "error", err)
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		w.Write([]byte("event: error\ndata: "))
		w.Write(payload)
		w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	for _, msg := range proc.Messages() {
		msg.ID = uuid.NewString()
		msg.SessionID = sessionID
		msg.CreatedAt = s.now()
		if err := s.store.AppendMessage(ctx, msg); err != nil {
			s.logger.Error("storing assistant message", "error", err)
		}
	}

	w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var f Feedback
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if f.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	f.ID = uuid.NewString()
	f.CreatedAt = s.now()
	if err := s.store.SaveFeedback(r.Context(), &f); err != nil {
		s.logger.Error("storing feedback", "error", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("feedback received",
		"session_id", f.SessionID,
		"invocation_id", f.InvocationID,
		"score", f.Score,
		"text", f.Text)
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": f.ID})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.logger.Error("listing sessions", "error", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.logger.Error("loading session", "session_id", id, "error", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	messages, err := s.store.ListMessages(r.Context(), id)
	if err != nil {
		s.logger.Error("loading messages", "session_id", id, "error", err)
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*Message{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  sess,
		"messages": messages,
	})
}

// sessionTitle derives a session title from the first user message,
// truncated on a rune boundary.
func sessionTitle(message string) string {
	const maxRunes = 60
	runes := []rune(message)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return message
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}
