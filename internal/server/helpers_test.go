package server_test

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/broker"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testutil"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

// chatEnv is a running broker behind a test HTTP server.
type chatEnv struct {
	broker *broker.Broker
	srv    *server.Server
	ts     *httptest.Server
	wsURL  string
}

func testConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Origins = testutil.DefaultOrigin
	cfg.RateLimitBurst = 100
	cfg.RateLimitInterval = time.Second
	cfg.WriteWait = time.Second
	return cfg
}

func startChat(t *testing.T, mutate func(*server.Config)) *chatEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	b := broker.NewBroker(log, broker.WithQueueSize(cfg.BrokerQueueSize))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-b.Done()
	})

	srv := server.NewServer(cfg, b, log)
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown(2 * time.Second) })

	return &chatEnv{broker: b, srv: srv, ts: ts, wsURL: testutil.WebSocketURL(ts.URL)}
}

func (e *chatEnv) sessions(t *testing.T) int {
	t.Helper()
	stats, err := e.broker.Stats(context.Background())
	require.NoError(t, err)
	return stats.Sessions
}

func (e *chatEnv) waitSessions(t *testing.T, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return e.sessions(t) == want },
		testutil.DefaultWait, 10*time.Millisecond, "expected %d sessions", want)
}

func (e *chatEnv) members(t *testing.T, room string) []broker.SessionID {
	t.Helper()
	rooms, err := e.broker.Snapshot(context.Background())
	require.NoError(t, err)
	return rooms[room]
}

// register waits for a freshly dialled connection to be registered and
// returns the identifier the broker gave it. Connections must be opened one
// at a time for the lookup to be unambiguous.
func (e *chatEnv) register(t *testing.T, before []broker.SessionID) broker.SessionID {
	t.Helper()
	e.waitSessions(t, len(before)+1)
	added, _ := lo.Difference(e.members(t, broker.MainRoom), before)
	require.Len(t, added, 1)
	return added[0]
}

// connect dials a pumping client and returns it with its session identifier.
func (e *chatEnv) connect(t *testing.T) (*testutil.WSClient, broker.SessionID) {
	t.Helper()
	before := e.members(t, broker.MainRoom)
	c := testutil.Dial(t, e.wsURL)
	return c, e.register(t, before)
}
