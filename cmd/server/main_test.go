package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/broker"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testutil"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*broker.Broker, *httptest.Server) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	b := broker.NewBroker(log)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-b.Done()
	})

	cfg := server.DefaultConfig()
	cfg.Origins = testutil.DefaultOrigin
	srv := server.NewServer(cfg, b, log)
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(time.Second) })
	return b, ts
}

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoomsCommand(t *testing.T) {
	_, ts := startServer(t)

	out, err := execute(t, "", "rooms", "--server", ts.URL)
	require.NoError(t, err)
	require.Contains(t, out, "ROOM")
	require.Contains(t, out, broker.MainRoom)
}

func TestRoomsCommand_ServerFromEnvironment(t *testing.T) {
	_, ts := startServer(t)
	t.Setenv("ROOMCHAT_SERVER", ts.URL)

	out, err := execute(t, "", "rooms")
	require.NoError(t, err)
	require.Contains(t, out, broker.MainRoom)
}

func TestChatCommand_LeavesOnEndOfInput(t *testing.T) {
	b, ts := startServer(t)

	_, err := execute(t, "/name Ann\nhello\n", "chat", "--url", testutil.WebSocketURL(ts.URL), "--no-color")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stats, err := b.Stats(context.Background())
		return err == nil && stats.Sessions == 0
	}, testutil.DefaultWait, 10*time.Millisecond)
}

func TestChatCommand_RejectedOrigin(t *testing.T) {
	_, ts := startServer(t)

	_, err := execute(t, "", "chat", "--url", testutil.WebSocketURL(ts.URL), "--origin", "http://evil.example")
	require.Error(t, err)
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	t.Setenv("HEARTBEAT_INTERVAL", "10s")
	t.Setenv("CLIENT_TIMEOUT", "1s")

	_, err := execute(t, "", "serve", "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorContains(t, err, "invalid config")
}
