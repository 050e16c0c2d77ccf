package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Tyrowin/roomchat/internal/broker"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testutil"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	env := startChat(t, nil)

	resp := testutil.MakeRequest(t, http.MethodGet, env.ts.URL+"/")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContentType(t, resp, "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "Room chat server is running!", string(body))
}

func TestWebSocketHandler_RejectsNonGet(t *testing.T) {
	env := startChat(t, nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		resp := testutil.MakeRequest(t, method, env.ts.URL+"/ws")
		testutil.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
	}
}

func TestWebSocketHandler_RejectsPlainGet(t *testing.T) {
	env := startChat(t, nil)

	resp := testutil.MakeRequest(t, http.MethodGet, env.ts.URL+"/ws")
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
	require.Equal(t, 0, env.sessions(t))
}

func TestWebSocketHandler_RejectsDisallowedOrigin(t *testing.T) {
	env := startChat(t, nil)

	for _, origin := range []string{"http://evil.example", ""} {
		_, resp, err := testutil.DialRaw(t, env.wsURL, origin)
		require.Error(t, err)
		require.NotNil(t, resp)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
	require.Equal(t, 0, env.sessions(t))
}

func TestRoomsHandler(t *testing.T) {
	env := startChat(t, nil)
	alice, aliceID := env.connect(t)
	env.connect(t)

	alice.Send("/join lobby")
	alice.WaitFor(server.JoinedReply(aliceID))

	resp := testutil.MakeRequest(t, http.MethodGet, env.ts.URL+"/rooms")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContentType(t, resp, "application/json")

	var got server.RoomsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, []server.RoomInfo{
		{Name: broker.MainRoom, Members: 1},
		{Name: "lobby", Members: 1},
	}, got.Rooms)
}

func TestStatsHandler(t *testing.T) {
	env := startChat(t, nil)
	env.connect(t)
	env.connect(t)

	resp := testutil.MakeRequest(t, http.MethodGet, env.ts.URL+"/stats")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContentType(t, resp, "application/json")

	var got server.StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, broker.Stats{Sessions: 2, Rooms: 1}, got.Stats)
	if got.Process != nil {
		require.Equal(t, int32(os.Getpid()), got.Process.PID)
		require.Positive(t, got.Process.Goroutines)
	}
}

func TestInspectionHandlers_BrokerStopped(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	b := broker.NewBroker(log)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = b.Run(ctx)

	srv := server.NewServer(testConfig(), b, log)
	mux := srv.SetupRoutes()

	for _, path := range []string{"/rooms", "/stats"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestInspectionHandlers_RejectNonGet(t *testing.T) {
	env := startChat(t, nil)

	for _, path := range []string{"/rooms", "/stats"} {
		resp := testutil.MakeRequest(t, http.MethodPost, env.ts.URL+path)
		testutil.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
	}
}

func TestTestPageHandler(t *testing.T) {
	env := startChat(t, nil)

	resp := testutil.MakeRequest(t, http.MethodGet, env.ts.URL+"/test")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContentType(t, resp, "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "location.host + '/ws'"))
}
