// Package socketio is a minimal Socket.IO v5 client over the Engine.IO v4
// WebSocket transport. It implements outbound.PushChannel.
//
// Only what order-status push needs is supported: the default namespace,
// text event packets and ping/pong. Polling, binary attachments, acks and
// reconnection are not.
package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/feastflow/storefront/internal/port/outbound"
)

// DefaultHandshakeTimeout bounds the open/connect exchange.
const DefaultHandshakeTimeout = 10 * time.Second

// eventBuffer is the per-subscription event channel capacity.
const eventBuffer = 16

// ErrConnectRejected is returned when the server refuses the namespace
// connect, typically because of the auth payload.
var ErrConnectRejected = errors.New("socket.io connect rejected")

// ErrServerDisconnect is reported by Err when the server closed the session.
var ErrServerDisconnect = errors.New("socket.io server disconnected")

// openPacket is the Engine.IO handshake payload.
type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// Client dials push subscriptions.
type Client struct {
	baseURL          string
	dialer           *websocket.Dialer
	header           http.Header
	auth             func() string
	handshakeTimeout time.Duration
	logger           *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDialer overrides the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithHeader adds headers to the upgrade request.
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h.Clone() }
}

// WithAuthToken sends {"token": fn()} in the namespace connect packet when
// fn returns a non-empty value.
func WithAuthToken(fn func() string) Option {
	return func(c *Client) { c.auth = fn }
}

// WithHandshakeTimeout bounds the open/connect exchange.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Client) { c.handshakeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the Socket.IO server at baseURL
// (http, https, ws or wss).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:          baseURL,
		dialer:           websocket.DefaultDialer,
		handshakeTimeout: DefaultHandshakeTimeout,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the WebSocket URL the client dials.
func (c *Client) Endpoint() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid push url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid push url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe connects and delivers events named event. The subscription
// ends when ctx is cancelled, Close is called, or the server goes away.
func (c *Client) Subscribe(ctx context.Context, event string) (outbound.Subscription, error) {
	endpoint, err := c.Endpoint()
	if err != nil {
		return nil, err
	}

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, c.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial push channel: %w", err)
	}

	open, err := c.handshake(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &subscription{
		conn:    conn,
		event:   event,
		logger:  c.logger,
		events:  make(chan outbound.PushEvent, eventBuffer),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	if open.PingInterval > 0 {
		s.readTimeout = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	}

	c.logger.Debug("push channel connected", "endpoint", endpoint, "sid", open.SID, "event", event)

	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

// handshake reads the Engine.IO open packet and connects to the default
// namespace.
func (c *Client) handshake(ctx context.Context, conn *websocket.Conn) (*openPacket, error) {
	deadline := time.Now().Add(c.handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)
	defer func() {
		_ = conn.SetReadDeadline(time.Time{})
		_ = conn.SetWriteDeadline(time.Time{})
	}()

	msg, err := readText(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read open packet: %w", err)
	}
	if !strings.HasPrefix(msg, "0") {
		return nil, fmt.Errorf("unexpected engine.io packet %q, want open", msg)
	}
	var open openPacket
	if err := json.Unmarshal([]byte(msg[1:]), &open); err != nil {
		return nil, fmt.Errorf("invalid open packet: %w", err)
	}

	connect := "40"
	if c.auth != nil {
		if tok := c.auth(); tok != "" {
			payload, _ := json.Marshal(map[string]string{"token": tok})
			connect += string(payload)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(connect)); err != nil {
		return nil, fmt.Errorf("failed to send connect: %w", err)
	}

	for {
		msg, err := readText(conn)
		if err != nil {
			return nil, fmt.Errorf("failed to read connect reply: %w", err)
		}
		switch {
		case msg == "2":
			if err := conn.WriteMessage(websocket.TextMessage, []byte("3")); err != nil {
				return nil, fmt.Errorf("failed to send pong: %w", err)
			}
		case strings.HasPrefix(msg, "40"):
			return &open, nil
		case strings.HasPrefix(msg, "44"):
			return nil, fmt.Errorf("%w: %s", ErrConnectRejected, connectErrorMessage(msg[2:]))
		}
	}
}

func connectErrorMessage(raw string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err == nil && body.Message != "" {
		return body.Message
	}
	return raw
}

func readText(conn *websocket.Conn) (string, error) {
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if typ == websocket.TextMessage {
			return string(data), nil
		}
	}
}

// subscription is one live connection.
type subscription struct {
	conn        *websocket.Conn
	event       string
	readTimeout time.Duration
	logger      *slog.Logger

	writeMu sync.Mutex

	events  chan outbound.PushEvent
	closing chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

func (s *subscription) Events() <-chan outbound.PushEvent {
	return s.events
}

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		_ = s.write("41")
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

func (s *subscription) write(msg string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// readLoop owns the read side. It closes events when it exits.
func (s *subscription) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		if s.readTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		msg, err := readText(s.conn)
		if err != nil {
			select {
			case <-s.closing:
			default:
				s.fail(fmt.Errorf("push channel read: %w", err))
				_ = s.conn.Close()
			}
			return
		}

		switch {
		case msg == "2":
			if err := s.write("3"); err != nil {
				s.fail(fmt.Errorf("push channel pong: %w", err))
				_ = s.conn.Close()
				return
			}
		case msg == "1" || strings.HasPrefix(msg, "41"):
			s.fail(ErrServerDisconnect)
			_ = s.conn.Close()
			return
		case strings.HasPrefix(msg, "42"):
			ev, ok := decodeEvent(msg[2:])
			if !ok {
				s.logger.Warn("dropping malformed push packet", "packet", truncate(msg, 128))
				continue
			}
			if ev.Name != s.event {
				continue
			}
			select {
			case s.events <- ev:
			case <-s.closing:
				return
			}
		}
	}
}

// decodeEvent parses the body of an event packet: an optional ack id
// followed by a JSON array whose first element is the event name.
func decodeEvent(body string) (outbound.PushEvent, bool) {
	body = strings.TrimLeft(body, "0123456789")
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(body), &parts); err != nil || len(parts) == 0 {
		return outbound.PushEvent{}, false
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return outbound.PushEvent{}, false
	}
	ev := outbound.PushEvent{Name: name}
	if len(parts) > 1 {
		ev.Payload = parts[1]
	}
	return ev, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ outbound.PushChannel = (*Client)(nil)
