// Package realtime maintains the client side of the push channel: a
// websocket carrying named JSON events, with subscription handlers
// dispatched in delivery order and fire-and-forget emits for room
// membership control.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Server to client push events.
const (
	EventAccessChange  = "access:change"
	EventPlanAdd       = "plan:add"
	EventPlanEdit      = "plan:edit"
	EventPlanDelete    = "plan:delete"
	EventMessageAdd    = "message:add"
	EventMessageEdit   = "message:edit"
	EventMessageDelete = "message:delete"
	EventPingAdd       = "ping:add"
	EventPingDelete    = "ping:delete"
	EventNotification  = "notification"
)

// Client to server room membership events.
const (
	EventEventJoin  = "event:join"
	EventEventLeave = "event:leave"
	EventUserJoin   = "user:join"
	EventUserLeave  = "user:leave"
	EventTagJoin    = "tag:join"
	EventTagLeave   = "tag:leave"
	EventRoomJoin   = "room:join"
	EventRoomLeave  = "room:leave"
)

const defaultWriteTimeout = 10 * time.Second

// Frame is the wire envelope for a named event.
type Frame struct {
	Name string          `json:"name"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Handler receives the raw body of a subscribed event. Handlers for the
// same event name run in delivery order; a handler must return before
// the next frame is dispatched.
type Handler func(ctx context.Context, body json.RawMessage)

// Conn is a live connection to the realtime channel.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	writeTimeout time.Duration
	writeMu      sync.Mutex

	mu       sync.Mutex
	handlers map[string][]*Subscription

	connected atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

// WithWriteTimeout bounds how long an Emit may block on the socket.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.writeTimeout = d
	}
}

// Dial connects to the realtime channel at url (a ws:// or wss:// URL)
// and starts the dispatch loop. header may carry session cookies.
func Dial(ctx context.Context, url string, header http.Header, opts ...Option) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dialing realtime channel: %w", err)
	}

	c := &Conn{
		ws:           ws,
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
		handlers:     make(map[string][]*Subscription),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.connected.Store(true)

	go c.readLoop()

	return c, nil
}

// Connected reports whether the connection is still live.
func (c *Conn) Connected() bool {
	return c.connected.Load()
}

// On registers a handler for the named event. The returned Subscription
// must be closed when the scope that needed the events ends.
func (c *Conn) On(name string, handler Handler) *Subscription {
	sub := &Subscription{conn: c, name: name, handler: handler}

	c.mu.Lock()
	c.handlers[name] = append(c.handlers[name], sub)
	c.mu.Unlock()

	return sub
}

// Emit sends a named event to the server. Fire and forget: no
// acknowledgement is read, but transport failures are returned.
func (c *Conn) Emit(name string, body any) error {
	frame := Frame{Name: name}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", name, err)
		}
		frame.Body = raw
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", name, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("emitting %s: %w", name, err)
	}
	return nil
}

// Close tears the connection down. Registered subscriptions stop
// receiving events; closing them afterwards is still safe.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		c.cancel()
		err = c.ws.Close()
	})
	return err
}

// readLoop is the single reader. Dispatching from one goroutine gives
// handlers for the same event name FIFO delivery order.
func (c *Conn) readLoop() {
	defer c.connected.Store(false)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Debug("realtime connection closed", "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Debug("dropping malformed realtime frame", "error", err)
			continue
		}
		if frame.Name == "" {
			continue
		}

		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(frame Frame) {
	c.mu.Lock()
	subs := make([]*Subscription, len(c.handlers[frame.Name]))
	copy(subs, c.handlers[frame.Name])
	c.mu.Unlock()

	for _, sub := range subs {
		sub.handler(c.ctx, frame.Body)
	}
}

func (c *Conn) remove(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.handlers[sub.name]
	for i, s := range subs {
		if s == sub {
			c.handlers[sub.name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(c.handlers[sub.name]) == 0 {
		delete(c.handlers, sub.name)
	}
}

// Subscription is a registered handler for one event name.
type Subscription struct {
	conn    *Conn
	name    string
	handler Handler
	once    sync.Once
}

// Close unregisters the handler. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.conn.remove(s)
	})
}
