package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go-bingo/internal/game"
	"go-bingo/internal/reconnect"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrSendBufferFull = errors.New("send buffer full")

// Config holds configuration for the game server connection.
type Config struct {
	URL      string
	UserID   string
	Username string

	Policy reconnect.Policy

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
	SendBuffer       int
}

func DefaultConfig(serverURL string) Config {
	return Config{
		URL:              serverURL,
		Policy:           reconnect.DefaultPolicy(),
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   64 * 1024,
		SendBuffer:       64,
	}
}

// Client keeps a websocket connection to the game server open, redialing with
// backoff. It implements game.Sender and reports connection changes as events.
type Client struct {
	cfg    Config
	clock  clockwork.Clock
	dialer *websocket.Dialer

	events chan game.Event
	send   chan []byte
}

func NewClient(cfg Config, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Client{
		cfg:    cfg,
		clock:  clock,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		events: make(chan game.Event, 256),
		send:   make(chan []byte, cfg.SendBuffer),
	}
}

// Events delivers inbound and synthesized events in arrival order.
func (c *Client) Events() <-chan game.Event { return c.events }

// Send queues intent for the current or next connection.
func (c *Client) Send(ctx context.Context, intent game.Intent) error {
	frame, err := EncodeIntent(intent)
	if err != nil {
		return err
	}
	select {
	case c.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: dropping %s", ErrSendBufferFull, intent.Name())
	}
}

// Run dials and serves connections until ctx is done. Failed dials are reported
// as ReconnectFailed and retried after the policy delay; a dial that succeeds
// after any loss or failure is reported as Reconnected.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	recovering := false

	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempt++
			recovering = true
			log.Warn().Err(err).Int("attempt", attempt).Msg("dial failed")
			c.emit(ctx, game.ReconnectFailed{Attempt: attempt})

			select {
			case <-c.clock.After(c.cfg.Policy.Delay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if recovering {
			c.emit(ctx, game.Reconnected{})
		}
		attempt = 0

		err = c.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reason := "closed"
		if err != nil {
			reason = err.Error()
		}
		recovering = true
		c.emit(ctx, game.Disconnected{Reason: reason})
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	q := u.Query()
	if c.cfg.UserID != "" {
		q.Set("userId", c.cfg.UserID)
	}
	if c.cfg.Username != "" {
		q.Set("username", c.cfg.Username)
	}
	u.RawQuery = q.Encode()

	connectionID := uuid.New().String()
	header := http.Header{}
	header.Set("X-Connection-Id", connectionID)

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("connection_id", connectionID).Str("url", u.Redacted()).Msg("connected to game server")
	return conn, nil
}

// serve runs the read and write pumps until either fails.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		conn.Close()
		return nil
	})
	g.Go(func() error { return c.readPump(gctx, conn) })
	g.Go(func() error { return c.writePump(gctx, conn) })
	return g.Wait()
}

func (c *Client) readPump(ctx context.Context, conn *websocket.Conn) error {
	if c.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	extend := func() {
		if c.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}
	}
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		extend()

		ev, err := DecodeEvent(frame)
		if err != nil {
			log.Warn().Err(err).Msg("dropping undecodable frame")
			continue
		}
		c.emit(ctx, ev)
	}
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) error {
	var ping <-chan time.Time
	if c.cfg.PingInterval > 0 {
		ticker := c.clock.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return nil
		case frame := <-c.send:
			c.setWriteDeadline(conn)
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-ping:
			c.setWriteDeadline(conn)
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

func (c *Client) setWriteDeadline(conn *websocket.Conn) {
	if c.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
}

func (c *Client) emit(ctx context.Context, ev game.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}
