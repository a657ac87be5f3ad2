package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pvignau/design-tokens-manager/protocol"
	"github.com/pvignau/design-tokens-manager/utils"
)

var ErrNotConnected = errors.New("push: not connected")

// Handler receives every inbound message that survives parsing and
// throttling. It runs on the consumer's read goroutine.
type Handler func(msg *protocol.Message)

type PushOptions struct {
	// URL of the relay's push listener, e.g. ws://localhost:8080/ws.
	URL string

	MaxAttempts    int
	ThrottleWindow time.Duration
	DialTimeout    time.Duration
}

func (o *PushOptions) SetDefaults() {
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.ThrottleWindow == 0 {
		o.ThrottleWindow = DefaultThrottleWindow
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = 10 * time.Second
	}
}

// PushConsumer holds a persistent connection to the relay. All I/O
// runs on its own goroutines; the caller only sees the handler and
// the supervisor callback.
type PushConsumer struct {
	log      utils.Logger
	opts     PushOptions
	handler  Handler
	sup      *Supervisor
	throttle *Throttle

	lock   sync.Mutex // guards conn
	conn   *websocket.Conn
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewPushConsumer(log utils.Logger, opts PushOptions, handler Handler, onStatus StatusFunc) *PushConsumer {
	opts.SetDefaults()
	return &PushConsumer{
		log:      log,
		opts:     opts,
		handler:  handler,
		sup:      NewSupervisor(opts.MaxAttempts, onStatus),
		throttle: NewThrottle(opts.ThrottleWindow),
		closed:   make(chan struct{}),
	}
}

func (c *PushConsumer) Supervisor() *Supervisor {
	return c.sup
}

// Start begins the connect/retry cycle and returns immediately.
func (c *PushConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		c.keepConnected(ctx)
		c.wg.Done()
	}()
}

// Reconnect re-arms a consumer whose supervisor gave up.
func (c *PushConsumer) Reconnect(ctx context.Context) {
	if c.sup.State() != StateGaveUp {
		return
	}
	c.sup.Reset()
	c.Start(ctx)
}

func (c *PushConsumer) keepConnected(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		default:
		}

		dialer := websocket.Dialer{HandshakeTimeout: c.opts.DialTimeout}
		conn, _, err := dialer.DialContext(ctx, c.opts.URL, nil)
		if err == nil {
			c.log.Info("push: connected", "url", c.opts.URL)
			c.sup.Connected()
			c.readLoop(conn)
			c.sup.Disconnected()
		} else {
			c.log.Error("push: couldn't connect", "url", c.opts.URL, "err", err)
		}

		delay, retry := c.sup.NextRetry()
		if !retry {
			c.log.Warn("push: giving up after retry cap", "attempts", c.sup.Attempt())
			return
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func (c *PushConsumer) readLoop(conn *websocket.Conn) {
	c.lock.Lock()
	c.conn = conn
	c.lock.Unlock()

	defer func() {
		c.lock.Lock()
		c.conn = nil
		c.lock.Unlock()
		_ = conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("push: connection lost", "err", err)
			}
			return
		}

		msg, err := protocol.Parse(raw)
		if err != nil {
			c.log.Warn("push: dropping malformed message", "err", err)
			continue
		}

		if msg.Type == protocol.Sync && !c.throttle.ShouldApply(time.Now()) {
			continue
		}
		c.handler(msg)
	}
}

// Send delivers one outbound mutation on the open connection.
func (c *PushConsumer) Send(msg *protocol.Message) error {
	c.lock.Lock()
	conn := c.conn
	c.lock.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	raw, err := msg.Encode()
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}

func (c *PushConsumer) Close() {
	c.once.Do(func() { close(c.closed) })

	c.lock.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.lock.Unlock()

	c.wg.Wait()
}
