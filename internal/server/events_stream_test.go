package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/fintrack/fintrack/internal/events"
	"github.com/fintrack/fintrack/internal/httpapi"
)

func startStream(t *testing.T) (*httptest.Server, *events.Manager) {
	bus := events.NewBus()
	manager := events.NewManager(bus, zerolog.Nop())
	srv := New(Config{Log: zerolog.Nop(), EventBus: bus, EventManager: manager, DevMode: true})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, manager
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server, query string, userID string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set(httpapi.UserHeader, userID)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws" + query
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readJSON(t *testing.T, ctx context.Context, conn *websocket.Conn) streamMessage {
	t.Helper()
	kind, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, kind)
	var msg streamMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestEventStream_FiltersByUser(t *testing.T) {
	ts, manager := startStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts, "", "7")
	assert.Equal(t, "connected", readJSON(t, ctx, conn).Type)

	manager.EmitForUser(8, events.AccountCreated, "accounts", map[string]interface{}{"account_id": 1})
	manager.EmitForUser(7, events.AccountCreated, "accounts", map[string]interface{}{"account_id": 2})
	manager.Emit(events.BackupCompleted, "reliability", map[string]interface{}{"key": "b.tar.gz"})

	first := readJSON(t, ctx, conn)
	assert.Equal(t, string(events.AccountCreated), first.Type)
	assert.Equal(t, int64(7), first.UserID)
	assert.EqualValues(t, 2, first.Data["account_id"])

	second := readJSON(t, ctx, conn)
	assert.Equal(t, string(events.BackupCompleted), second.Type)
	assert.Equal(t, int64(0), second.UserID)
}

func TestEventStream_TypeFilterAndMsgpack(t *testing.T) {
	ts, manager := startStream(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts, "?format=msgpack&types="+string(events.DepositOpened), "3")
	kind, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageBinary, kind)
	var hello streamMessage
	require.NoError(t, msgpack.Unmarshal(data, &hello))
	assert.Equal(t, "connected", hello.Type)

	manager.EmitForUser(3, events.AccountCreated, "accounts", nil)
	manager.EmitForUser(3, events.DepositOpened, "deposits", map[string]interface{}{"deposit_id": 11})

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	var msg streamMessage
	require.NoError(t, msgpack.Unmarshal(data, &msg))
	assert.Equal(t, string(events.DepositOpened), msg.Type)
	assert.EqualValues(t, 11, msg.Data["deposit_id"])
}

func TestEventStream_RequiresUser(t *testing.T) {
	ts, _ := startStream(t)
	resp, err := http.Get(ts.URL + "/api/events/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
