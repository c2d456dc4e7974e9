package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrAuthFailed means the shared secret was rejected. Not retryable.
var ErrAuthFailed = errors.New("rcon: authentication failed")

// Client is the single serialized command channel to the game server.
// Exactly one request is outstanding at a time; between commands a
// configurable delay rate-limits the server. There must be exactly one
// Client per game-server instance — the processor is not horizontally
// scalable over the same console.
type Client struct {
	addr     string
	password string
	limiter  *rate.Limiter

	mu    sync.Mutex
	conn  net.Conn
	reqID int32
}

// NewClient creates a client. commandDelay spaces consecutive commands;
// ExecBatch bypasses it for bulk placement.
func NewClient(host string, port int, password string, commandDelay time.Duration) *Client {
	if commandDelay <= 0 {
		commandDelay = 50 * time.Millisecond
	}
	return &Client{
		addr:     net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		password: password,
		limiter:  rate.NewLimiter(rate.Every(commandDelay), 1),
	}
}

// Connect dials and authenticates. Safe to call again after a fault.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("rcon dial: %w", err)
	}

	c.reqID++
	id := c.reqID
	if err := writePacket(conn, packet{RequestID: id, Type: packetAuth, Body: c.password}); err != nil {
		conn.Close()
		return fmt.Errorf("rcon auth: %w", err)
	}

	// Some servers send an empty response packet before the auth response.
	for {
		resp, err := readPacket(conn)
		if err != nil {
			conn.Close()
			return fmt.Errorf("rcon auth response: %w", err)
		}
		if resp.Type != packetAuthResponse {
			continue
		}
		if resp.RequestID == -1 {
			conn.Close()
			return ErrAuthFailed
		}
		break
	}

	c.conn = conn
	return nil
}

// Exec sends one command and returns the server's response body. A
// connection fault resets the connection and surfaces as a retryable
// error to the job processor.
func (c *Client) Exec(ctx context.Context, command string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execLocked(ctx, command)
}

// ExecBatch sends commands back-to-back without the inter-command delay.
// Used by generators for bulk block placement. The batch holds the channel
// for its full duration; cancellation is observed between batches, not
// inside one.
func (c *Client) ExecBatch(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cmd := range commands {
		if _, err := c.execLocked(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) execLocked(ctx context.Context, command string) (string, error) {
	if err := c.connectLocked(ctx); err != nil {
		return "", err
	}

	c.reqID++
	id := c.reqID
	if err := writePacket(c.conn, packet{RequestID: id, Type: packetCommand, Body: command}); err != nil {
		c.resetLocked()
		return "", fmt.Errorf("rcon send: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	resp, err := readPacket(c.conn)
	if err != nil {
		c.resetLocked()
		return "", fmt.Errorf("rcon recv: %w", err)
	}
	if resp.RequestID != id {
		c.resetLocked()
		return "", fmt.Errorf("rcon response id mismatch: got %d want %d", resp.RequestID, id)
	}
	return resp.Body, nil
}

func (c *Client) resetLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	return nil
}
