package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/agentpack-labs/agentpack/internal/engine"
)

// dialBackoffBase is the first reconnect delay; it doubles per attempt.
const (
	dialBackoffBase = time.Second
	dialMaxAttempts = 5
)

// upstreamDialer establishes authenticated sessions to the live model.
type upstreamDialer struct {
	url    string
	tokens engine.TokenSource
	setup  SetupConfig
	logger *slog.Logger
}

// connect dials the upstream websocket, sends the setup frame, and waits for
// setupComplete. Failed attempts retry with exponential backoff.
func (d *upstreamDialer) connect(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	delay := dialBackoffBase

	for attempt := 1; attempt <= dialMaxAttempts; attempt++ {
		conn, err := d.dialOnce(ctx)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if attempt < dialMaxAttempts {
			d.logger.Warn("upstream dial failed, retrying",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}

	return nil, fmt.Errorf("upstream connect failed after %d attempts: %w", dialMaxAttempts, lastErr)
}

func (d *upstreamDialer) dialOnce(ctx context.Context) (*websocket.Conn, error) {
	opts := &websocket.DialOptions{}
	if d.tokens != nil {
		token, err := d.tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching upstream token: %w", err)
		}
		opts.HTTPHeader = http.Header{"Authorization": {"Bearer " + token}}
	}

	conn, _, err := websocket.Dial(ctx, d.url, opts)
	if err != nil {
		return nil, fmt.Errorf("dialing upstream: %w", err)
	}
	conn.SetReadLimit(maxFrameBytes)

	frame, err := setupFrame(d.setup)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "setup encode failed")
		return nil, err
	}
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		conn.Close(websocket.StatusInternalError, "setup write failed")
		return nil, fmt.Errorf("sending setup frame: %w", err)
	}

	// The first upstream frame must acknowledge the setup.
	ackCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, data, err := conn.Read(ackCtx)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "setup ack read failed")
		return nil, fmt.Errorf("waiting for setup ack: %w", err)
	}
	_, kind, err := parseServerFrame(data)
	if err != nil {
		conn.Close(websocket.StatusInvalidFramePayloadData, "bad setup ack")
		return nil, err
	}
	if kind != kindSetupComplete {
		conn.Close(websocket.StatusProtocolError, "expected setupComplete")
		return nil, fmt.Errorf("upstream did not acknowledge setup")
	}

	return conn, nil
}
