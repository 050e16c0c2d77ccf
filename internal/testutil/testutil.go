// Package testutil provides common utilities and helper functions for testing
// the chat server.
//
// It contains a WebSocket test client that pumps inbound frames into a
// channel, so tests can wait for a frame with a deadline without corrupting
// the underlying connection, plus small HTTP assertion helpers.
package testutil

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// DefaultOrigin is the Origin header sent by Dial.
const DefaultOrigin = "http://localhost:8080"

// DefaultWait bounds every wait helper that takes no explicit timeout.
const DefaultWait = 2 * time.Second

// WebSocketURL turns an httptest server URL into its /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// DialRaw opens a WebSocket connection with the given Origin header and no
// reader attached. Pings from the server are only answered while the caller
// reads from the connection.
func DialRaw(t *testing.T, url, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// WSClient is a test WebSocket client whose frames are read in the background.
type WSClient struct {
	t        *testing.T
	Conn     *websocket.Conn
	messages chan string
	closed   chan struct{}
}

// Dial connects a WSClient to url with DefaultOrigin and closes it when the
// test ends.
func Dial(t *testing.T, url string) *WSClient {
	t.Helper()

	conn, _, err := DialRaw(t, url, DefaultOrigin)
	require.NoError(t, err, "dial %s", url)

	c := &WSClient{
		t:        t,
		Conn:     conn,
		messages: make(chan string, 256),
		closed:   make(chan struct{}),
	}
	go c.pump()
	t.Cleanup(c.Close)
	return c
}

func (c *WSClient) pump() {
	defer close(c.closed)
	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType == websocket.TextMessage {
			c.messages <- string(data)
		}
	}
}

// Send writes text as a single text frame.
func (c *WSClient) Send(text string) {
	c.t.Helper()
	require.NoError(c.t, c.Conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

// Next returns the next text frame, failing the test after DefaultWait.
func (c *WSClient) Next() string {
	c.t.Helper()
	select {
	case msg := <-c.messages:
		return msg
	case <-time.After(DefaultWait):
		c.t.Fatalf("no message received within %s", DefaultWait)
		return ""
	}
}

// WaitFor discards frames until one equals want.
func (c *WSClient) WaitFor(want string) {
	c.t.Helper()
	deadline := time.After(DefaultWait)
	for {
		select {
		case msg := <-c.messages:
			if msg == want {
				return
			}
		case <-deadline:
			c.t.Fatalf("message %q not received within %s", want, DefaultWait)
			return
		}
	}
}

// ExpectNone fails if any text frame arrives within wait.
func (c *WSClient) ExpectNone(wait time.Duration) {
	c.t.Helper()
	select {
	case msg := <-c.messages:
		c.t.Fatalf("unexpected message %q", msg)
	case <-time.After(wait):
	}
}

// Closed is closed once the server side has ended the connection.
func (c *WSClient) Closed() <-chan struct{} {
	return c.closed
}

// Close sends a normal close frame and closes the connection.
func (c *WSClient) Close() {
	_ = c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = c.Conn.Close()
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	require.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	require.Equal(t, expected, resp.Header.Get("Content-Type"), "unexpected content type")
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
