package websocket

import (
	"chat-rooms/domain/chat"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"chat-rooms/runtime"
	"chat-rooms/runtime/workers"
	"chat-rooms/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func testConfig() Config {
	return Config{
		AllowedOrigins: []string{"https://chat.example"},
		BufferSize:     64,
		MaxFrameSize:   4096,
		RatePerSecond:  1000,
		RateBurst:      1000,
	}
}

func startServer(t *testing.T, cfg Config) (*httptest.Server, *Server) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	chats := repositories.NewMemoryChatRepository()
	monitoring := observability.NewMonitoringManager(log)
	registry := runtime.NewRegistry(chats)
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, time.Second),
		registry, chats,
		runtime.NewBroadcaster(log, registry, monitoring, time.Second),
		runtime.NewDispatcher(log, registry, repositories.NewMemorySubscriptionRepository(), monitoring, 8),
		monitoring)
	service := services.NewChatService(orchestrator, services.Limits{MaxNameLength: 64, MaxMessageLength: 1000})

	server := NewServer(log, service, cfg)
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		httpServer.Close()
	})
	return httpServer, server
}

func dial(t *testing.T, httpServer *httptest.Server, header http.Header) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	payload := map[string]any{"event": event}
	if data != nil {
		payload["data"] = data
	}
	require.NoError(t, conn.WriteJSON(payload))
}

func expect(t *testing.T, conn *websocket.Conn, event string, into any) {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	require.Equal(t, event, f.Event, "payload: %s", string(f.Data))
	if into != nil {
		require.NoError(t, json.Unmarshal(f.Data, into))
	}
}

func TestServer_Team_Scenario_Over_The_Wire(t *testing.T) {
	req := require.New(t)
	httpServer, _ := startServer(t, testConfig())
	alice := dial(t, httpServer, nil)
	bob := dial(t, httpServer, nil)

	send(t, alice, EventSetUsername, "alice")
	var name string
	expect(t, alice, EventUsernameSet, &name)
	req.Equal("alice", name)
	send(t, bob, EventSetUsername, "bob")
	expect(t, bob, EventUsernameSet, nil)

	send(t, alice, EventCreateChat, "Team")
	var created chat.Summary
	expect(t, alice, EventChatCreated, &created)
	req.Equal("Team", created.Name)
	req.NotEmpty(created.ID)

	send(t, bob, EventGetChats, nil)
	var list []chat.Summary
	expect(t, bob, EventChatList, &list)
	req.Equal([]chat.Summary{created}, list)

	send(t, bob, EventJoinChat, created.ID)
	var joined ChatJoinedPayload
	expect(t, bob, EventChatJoined, &joined)
	req.Equal(created.ID, joined.ChatID)
	req.Equal("Team", joined.ChatName)
	req.Empty(joined.Messages)

	send(t, alice, EventSendMessage, SendMessagePayload{ChatID: created.ID.String(), Message: "hi"})
	var line string
	expect(t, alice, EventNewMessage, &line)
	req.Equal("alice: hi", line)
	expect(t, bob, EventNewMessage, &line)
	req.Equal("alice: hi", line)

	// A late joiner gets the history
	carol := dial(t, httpServer, nil)
	send(t, carol, EventSetUsername, "carol")
	expect(t, carol, EventUsernameSet, nil)
	send(t, carol, EventJoinChat, created.ID)
	expect(t, carol, EventChatJoined, &joined)
	req.Equal([]string{"alice: hi"}, joined.Messages)

	// removeChat detaches bob only
	send(t, bob, EventRemoveChat, created.ID)
	var removed string
	expect(t, bob, EventChatRemoved, &removed)
	req.Equal(created.ID.String(), removed)
	send(t, bob, EventSendMessage, SendMessagePayload{ChatID: created.ID.String(), Message: "still here?"})
	var reason string
	expect(t, bob, EventError, &reason)
	req.Equal("Join the chat before sending messages", reason)
}

func TestServer_Join_Unknown_Chat(t *testing.T) {
	req := require.New(t)
	httpServer, _ := startServer(t, testConfig())
	conn := dial(t, httpServer, nil)

	send(t, conn, EventSetUsername, "dave")
	expect(t, conn, EventUsernameSet, nil)
	send(t, conn, EventJoinChat, "no-such-chat")
	var reason string
	expect(t, conn, EventError, &reason)
	req.Equal("Chat not found", reason)
}

func TestServer_Malformed_Frame_Keeps_Connection(t *testing.T) {
	req := require.New(t)
	httpServer, _ := startServer(t, testConfig())
	conn := dial(t, httpServer, nil)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var reason string
	expect(t, conn, EventError, &reason)
	req.Equal("Malformed frame", reason)

	send(t, conn, EventSetUsername, "erin")
	expect(t, conn, EventUsernameSet, nil)
}

func TestServer_Rejects_Disallowed_Origin(t *testing.T) {
	req := require.New(t)
	httpServer, _ := startServer(t, testConfig())
	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	req.Error(err)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	conn := dial(t, httpServer, http.Header{"Origin": []string{"HTTPS://Chat.Example"}})
	send(t, conn, EventGetChats, nil)
	expect(t, conn, EventChatList, nil)
}

func TestServer_Oversized_Frame_Closes_Connection(t *testing.T) {
	req := require.New(t)
	cfg := testConfig()
	cfg.MaxFrameSize = 128
	httpServer, _ := startServer(t, cfg)
	conn := dial(t, httpServer, nil)

	send(t, conn, EventSetUsername, strings.Repeat("x", 512))
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.Error(err)
}

func TestServer_Rate_Limit(t *testing.T) {
	req := require.New(t)
	cfg := testConfig()
	cfg.RatePerSecond = 0.001
	cfg.RateBurst = 1
	httpServer, _ := startServer(t, cfg)
	conn := dial(t, httpServer, nil)

	send(t, conn, EventGetChats, nil)
	expect(t, conn, EventChatList, nil)
	send(t, conn, EventGetChats, nil)
	var reason string
	expect(t, conn, EventError, &reason)
	req.Equal("Too many messages, slow down", reason)
}

func TestServer_Shutdown_Closes_Clients(t *testing.T) {
	req := require.New(t)
	httpServer, server := startServer(t, testConfig())
	conn := dial(t, httpServer, nil)
	send(t, conn, EventGetChats, nil)
	expect(t, conn, EventChatList, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req.NoError(server.Shutdown(ctx))

	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := conn.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestServer_Rejects_Non_Get(t *testing.T) {
	req := require.New(t)
	httpServer, _ := startServer(t, testConfig())
	resp, err := http.Post(httpServer.URL, "application/json", strings.NewReader("{}"))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}
