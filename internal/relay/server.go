package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/agentpack-labs/agentpack/internal/engine"
)

// maxFrameBytes bounds a single websocket message in either direction.
// Audio chunks are small; 1 MiB leaves plenty of headroom.
const maxFrameBytes = 1 << 20

// Server relays browser websocket sessions to the hosted live model.
type Server struct {
	cfg    *Config
	tools  *ToolRegistry
	tokens engine.TokenSource
	logger *slog.Logger
}

// NewServer builds a relay server. A nil registry gets the built-in tools.
func NewServer(cfg *Config, tools *ToolRegistry, tokens engine.TokenSource, logger *slog.Logger) *Server {
	if tools == nil {
		tools = NewToolRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, tools: tools, tokens: tokens, logger: logger}
}

// Routes returns the HTTP handler: the websocket endpoint plus a health check.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	logger := s.logger.With("session_id", sessionID, "ip", r.RemoteAddr)
	logger.Info("client connection request")

	if !s.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	client, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Error("websocket accept failed", "error", err)
		return
	}
	client.SetReadLimit(maxFrameBytes)
	defer client.Close(websocket.StatusNormalClosure, "session ended")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := &session{
		server: s,
		client: client,
		dialer: &upstreamDialer{
			url:    s.cfg.UpstreamURL,
			tokens: s.tokens,
			setup:  s.setupConfig(),
			logger: logger,
		},
		logger: logger,
	}
	sess.run(ctx, cancel)
	logger.Info("session ended")
}

func (s *Server) setupConfig() SetupConfig {
	decls := make([]ToolDeclaration, 0)
	for _, name := range s.tools.Names() {
		decls = append(decls, ToolDeclaration{Name: name})
	}
	return SetupConfig{
		Model:            s.cfg.Model,
		Voice:            s.cfg.Voice,
		SystemPrompt:     s.cfg.SystemPrompt,
		InputSampleRate:  s.cfg.InputSampleRate,
		OutputSampleRate: s.cfg.OutputSampleRate,
		Tools:            decls,
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	s.logger.Warn("origin rejected", "origin", origin)
	return false
}

// session is one browser connection with its upstream counterpart.
type session struct {
	server *Server
	client *websocket.Conn
	dialer *upstreamDialer
	logger *slog.Logger

	mu       sync.Mutex
	upstream *websocket.Conn
}

func (sess *session) run(ctx context.Context, cancel context.CancelFunc) {
	upstream, err := sess.dialer.connect(ctx)
	if err != nil {
		sess.logger.Error("upstream connect failed", "error", err)
		sess.sendClient(ctx, clientMessage{Type: clientFrameError, Content: "upstream unavailable"})
		return
	}
	sess.setUpstream(upstream)
	sess.sendClient(ctx, clientMessage{Type: clientFrameReady})

	var wg sync.WaitGroup
	wg.Add(2)

	// Client -> upstream.
	go func() {
		defer wg.Done()
		defer cancel()
		sess.clientLoop(ctx)
	}()

	// Upstream -> client.
	go func() {
		defer wg.Done()
		defer cancel()
		sess.upstreamLoop(ctx)
	}()

	wg.Wait()
	if conn := sess.getUpstream(); conn != nil {
		conn.Close(websocket.StatusNormalClosure, "session ended")
	}
}

func (sess *session) clientLoop(ctx context.Context) {
	for {
		msgType, data, err := sess.client.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				sess.logger.Debug("client closed connection")
			} else if ctx.Err() == nil {
				sess.logger.Warn("client read error", "error", err)
			}
			return
		}

		var frame []byte
		switch msgType {
		case websocket.MessageBinary:
			frame, err = audioFrame(data, sess.dialer.setup.InputSampleRate)
		case websocket.MessageText:
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				sess.logger.Warn("dropping malformed client frame", "error", err)
				continue
			}
			if msg.Type != clientFrameText {
				sess.logger.Debug("ignoring client frame", "type", msg.Type)
				continue
			}
			frame, err = textFrame(msg.Content)
		default:
			continue
		}
		if err != nil {
			sess.logger.Warn("encoding upstream frame", "error", err)
			continue
		}

		if err := sess.writeUpstream(ctx, frame); err != nil {
			sess.logger.Warn("upstream write failed, frame dropped", "error", err)
		}
	}
}

func (sess *session) upstreamLoop(ctx context.Context) {
	for {
		conn := sess.getUpstream()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !sess.reconnect(ctx) {
				return
			}
			continue
		}

		frame, kind, err := parseServerFrame(data)
		if err != nil {
			sess.logger.Warn("dropping malformed upstream frame", "error", err)
			continue
		}

		switch kind {
		case kindServerContent:
			sess.forwardContent(ctx, frame.ServerContent)
		case kindToolCall:
			sess.handleToolCall(ctx, frame.ToolCall)
		case kindGoAway:
			sess.logger.Info("upstream requested session end")
			if !sess.reconnect(ctx) {
				return
			}
		default:
			sess.logger.Debug("ignoring upstream frame")
		}
	}
}

// forwardContent translates upstream model output into client frames:
// audio parts as binary PCM, text parts and turn markers as JSON.
func (sess *session) forwardContent(ctx context.Context, sc *serverContent) {
	if sc.Interrupted {
		sess.sendClient(ctx, clientMessage{Type: clientFrameInterrupt})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			switch {
			case part.InlineData != nil:
				pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					sess.logger.Warn("bad audio payload", "error", err)
					continue
				}
				if err := sess.client.Write(ctx, websocket.MessageBinary, pcm); err != nil {
					sess.logger.Debug("client audio write failed", "error", err)
					return
				}
			case part.Text != "":
				sess.sendClient(ctx, clientMessage{Type: clientFrameText, Content: part.Text})
			}
		}
	}
	if sc.TurnComplete {
		sess.sendClient(ctx, clientMessage{Type: clientFrameTurnDone})
	}
}

func (sess *session) handleToolCall(ctx context.Context, tc *toolCall) {
	results := sess.server.tools.DispatchAll(ctx, tc)
	for _, r := range results {
		payload, _ := json.Marshal(r.Response)
		sess.sendClient(ctx, clientMessage{Type: clientFrameToolResult, Content: r.Name + ": " + string(payload)})
	}

	frame, err := toolResponseFrame(results)
	if err != nil {
		sess.logger.Error("encoding tool response", "error", err)
		return
	}
	if err := sess.writeUpstream(ctx, frame); err != nil {
		sess.logger.Warn("tool response write failed", "error", err)
	}
}

// reconnect replaces a dropped upstream connection. The dialer retries with
// backoff internally; a false return means the session is over.
func (sess *session) reconnect(ctx context.Context) bool {
	sess.logger.Info("upstream connection lost, reconnecting")
	if old := sess.getUpstream(); old != nil {
		old.Close(websocket.StatusNormalClosure, "reconnecting")
	}
	sess.setUpstream(nil)
	sess.sendClient(ctx, clientMessage{Type: clientFrameReconnect})

	conn, err := sess.dialer.connect(ctx)
	if err != nil {
		sess.logger.Error("upstream reconnect failed", "error", err)
		sess.sendClient(ctx, clientMessage{Type: clientFrameGoodbye, Content: "upstream unavailable"})
		return false
	}
	sess.setUpstream(conn)
	sess.sendClient(ctx, clientMessage{Type: clientFrameReady})
	return true
}

func (sess *session) writeUpstream(ctx context.Context, frame []byte) error {
	conn := sess.getUpstream()
	if conn == nil {
		return context.Canceled
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, frame)
}

func (sess *session) sendClient(ctx context.Context, msg clientMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := sess.client.Write(ctx, websocket.MessageText, data); err != nil {
		sess.logger.Debug("client write failed", "error", err)
	}
}

func (sess *session) setUpstream(conn *websocket.Conn) {
	sess.mu.Lock()
	sess.upstream = conn
	sess.mu.Unlock()
}

func (sess *session) getUpstream() *websocket.Conn {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.upstream
}
