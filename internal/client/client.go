// Package client is a terminal client for the chat server. It relays lines
// typed on an input stream to the server and prints every frame it receives.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 5 * time.Second
	closeWait        = time.Second
)

// Client is one WebSocket connection to the chat server.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger
	mu   sync.Mutex
}

// Dial connects to the /ws endpoint at url, presenting origin when it is not
// empty.
func Dial(ctx context.Context, url, origin string, log *slog.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", url, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	log.Info("Connected", "url", url)
	return &Client{conn: conn, log: log}, nil
}

// Send writes text as one text frame.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Close sends a normal close frame and closes the connection.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
	return c.conn.Close()
}

// Run sends every non-empty line of in and writes every received frame to
// out, coloured by Colorize. It returns when in is exhausted, ctx is done or
// the server closes the connection. The connection is closed on return.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	received := make(chan error, 1)
	sent := make(chan error, 1)
	go func() { received <- c.receive(out) }()
	go func() { sent <- c.transmit(in) }()

	var err error
	select {
	case <-ctx.Done():
		c.log.Info("Leaving chat")
	case err = <-sent:
	case err = <-received:
		_ = c.conn.Close()
		return err
	}

	_ = c.Close()
	if recvErr := <-received; err == nil {
		err = recvErr
	}
	return err
}

func (c *Client) transmit(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := c.Send(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (c *Client) receive(out io.Writer) error {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if isClosed(err) {
				c.log.Debug("Connection closed", "reason", err)
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if _, err := fmt.Fprintln(out, Colorize(string(data))); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived) ||
		errors.Is(err, net.ErrClosed)
}
