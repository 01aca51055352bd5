// Package feed provides snapshot sources for the viewer: a websocket client
// for a live ecosystem server and a loader for static snapshot files.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/ecoview/snapshot"
)

const (
	// Time allowed to complete the websocket handshake.
	handshakeTimeout = 10 * time.Second
	// Used when the configured limit is not positive.
	defaultMaxMessageSize = 1 << 20
)

// Sink receives decoded snapshots. snapshot.Mailbox satisfies it.
type Sink interface {
	Put(eco *snapshot.Ecosystem)
}

// Client streams ecosystem snapshots from a websocket server into a Sink,
// redialing after the connection drops.
type Client struct {
	url            string
	reconnectDelay time.Duration
	maxMessageSize int64
	out            Sink
	dialer         *websocket.Dialer

	received  atomic.Uint64
	malformed atomic.Uint64
	connects  atomic.Uint64
}

// NewClient creates a client for the given websocket URL.
func NewClient(url string, reconnectDelay time.Duration, maxMessageSize int64, out Sink) *Client {
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxMessageSize
	}
	return &Client{
		url:            url,
		reconnectDelay: reconnectDelay,
		maxMessageSize: maxMessageSize,
		out:            out,
		dialer:         &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

// URL returns the server address.
func (c *Client) URL() string { return c.url }

// Counts returns the number of decoded snapshots, rejected messages and
// successful connections so far.
func (c *Client) Counts() (received, malformed, connects uint64) {
	return c.received.Load(), c.malformed.Load(), c.connects.Load()
}

// Run dials the server and pumps snapshots until ctx is cancelled.
// It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("feed disconnected", "url", c.url, "error", err, "retry_in", c.reconnectDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}
	}
}

// session handles one connection from dial to disconnect.
func (c *Client) session(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}
	c.connects.Add(1)
	slog.Info("feed connected", "url", c.url)

	// Unblock ReadMessage when the context ends.
	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer func() {
		stop()
		conn.Close()
	}()

	conn.SetReadLimit(c.maxMessageSize)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return err
			}
			return fmt.Errorf("reading: %w", err)
		}

		eco, err := snapshot.DecodeEcosystem(message)
		if err != nil {
			c.malformed.Add(1)
			slog.Warn("dropping malformed snapshot", "error", err, "bytes", len(message))
			continue
		}
		c.received.Add(1)
		c.out.Put(&eco)
	}
}

// ErrEmptyPath is returned by LoadFile when no path is given.
var ErrEmptyPath = errors.New("feed: snapshot path is empty")

// LoadFile reads a single ecosystem snapshot from a YAML or JSON file.
func LoadFile(path string) (*snapshot.Ecosystem, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	eco, err := snapshot.DecodeEcosystem(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &eco, nil
}
