package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

type outbound struct {
	data  []byte
	final bool
}

// Client represents a single WebSocket connection watching one list.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	listID string
	send   chan outbound

	mu     sync.Mutex
	closed bool
	final  bool
}

func NewClient(hub *Hub, conn *ws.Conn, listID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		listID: listID,
		send:   make(chan outbound, sendBufferSize),
	}
}

// Send queues msg. When the buffer is full the oldest queued frame is
// dropped; every snapshot is complete, so the newest one is all a slow
// reader needs.
func (c *Client) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.enqueue(data, false)
	return nil
}

// Fail queues msg as the last frame; the connection closes after it is written.
func (c *Client) Fail(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.enqueue(data, true)
	return nil
}

func (c *Client) enqueue(data []byte, final bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.final {
		return
	}
	c.final = final

	out := outbound{data: data, final: final}
	for {
		select {
		case c.send <- out:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		c.writePump(ctx)
		cancel()
	}()
	c.readPump(ctx)
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case out, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, out.data); err != nil {
				return
			}
			if out.final {
				c.conn.Close(ws.StatusInternalError, "subscription failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, data)
}
