// Package stream maintains the single live websocket subscription to the
// simulation server, resuming from the highest observed sequence across
// reconnects.
package stream

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/TARATRAOVO/rhodes-resonance/internal/protocol"
)

// FrameHandler receives every decoded frame in arrival order.
type FrameHandler interface {
	HandleFrame(frame protocol.Frame)
}

// Status describes the connection lifecycle for the console header.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ClientConfig carries the knobs for the stream client.
type ClientConfig struct {
	ServerURL    string
	SessionToken string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Logger       *log.Logger
	OnStatus     func(Status)
}

// Client owns at most one live websocket connection at a time. Start opens
// the first connection; every drop schedules a reconnect with exponential
// backoff until Stop is called.
type Client struct {
	cfg     ClientConfig
	handler FrameHandler
	tracker *Tracker
	logger  *log.Logger
	backoff *backoff.ExponentialBackOff

	mu      sync.Mutex
	conn    *websocket.Conn
	timer   *time.Timer
	epoch   uint64
	started bool
}

func NewClient(cfg ClientConfig, tracker *Tracker, handler FrameHandler) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 500 * time.Millisecond
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 8 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.ReconnectMin
	bo.MaxInterval = cfg.ReconnectMax
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	return &Client{
		cfg:     cfg,
		handler: handler,
		tracker: tracker,
		logger:  logger,
		backoff: bo,
	}
}

// Start opens the initial connection attempt. A stopped client may be
// started again; only a client that is already running rejects the call.
func (c *Client) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("stream: client already started")
	}
	c.started = true
	c.backoff.Reset()
	epoch := c.epoch
	c.mu.Unlock()

	go c.connect(epoch)
	return nil
}

// Stop tears down the live connection and cancels any pending reconnect.
// Safe to call more than once.
func (c *Client) Stop() {
	c.mu.Lock()
	c.started = false
	c.epoch++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// ForceReconnect drops the live connection (if any) and dials again
// immediately, bypassing the backoff schedule. Used after a restart so the
// fresh run's hello arrives without delay.
func (c *Client) ForceReconnect() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.epoch++
	epoch := c.epoch
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.backoff.Reset()
	go c.connect(epoch)
}

func (c *Client) endpoint() (string, error) {
	base, err := url.Parse(c.cfg.ServerURL)
	if err != nil {
		return "", fmt.Errorf("stream: parse server url: %w", err)
	}
	switch base.Scheme {
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/ws/events"
	q := url.Values{}
	q.Set("since", fmt.Sprintf("%d", c.tracker.Cursor()))
	q.Set("sid", c.cfg.SessionToken)
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (c *Client) connect(epoch uint64) {
	c.setStatus(StatusConnecting)

	target, err := c.endpoint()
	if err != nil {
		c.logger.Printf("stream: %v", err)
		c.setStatus(StatusDisconnected)
		return
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(target, nil)
	if err != nil {
		c.logger.Printf("stream: dial %s: %v", target, err)
		c.setStatus(StatusDisconnected)
		c.scheduleReconnect(epoch)
		return
	}

	c.mu.Lock()
	if !c.started || epoch != c.epoch {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.backoff.Reset()
	c.setStatus(StatusConnected)
	c.readLoop(conn, epoch)
}

func (c *Client) readLoop(conn *websocket.Conn, epoch uint64) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stale := !c.started || epoch != c.epoch
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			if stale {
				return
			}
			c.logger.Printf("stream: connection lost: %v", err)
			c.setStatus(StatusDisconnected)
			c.scheduleReconnect(epoch)
			return
		}

		frame, err := protocol.DecodeFrame(payload)
		if err != nil {
			c.logger.Printf("stream: discarding malformed frame: %v", err)
			continue
		}
		c.handler.HandleFrame(frame)
	}
}

func (c *Client) scheduleReconnect(epoch uint64) {
	delay := c.backoff.NextBackOff()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || epoch != c.epoch {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.logger.Printf("stream: reconnecting in %s (since=%d)", delay, c.tracker.Cursor())
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if !c.started || epoch != c.epoch {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()
		c.connect(epoch)
	})
}

func (c *Client) setStatus(s Status) {
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(s)
	}
}
