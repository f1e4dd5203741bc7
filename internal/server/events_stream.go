package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/fintrack/fintrack/internal/events"
	"github.com/fintrack/fintrack/internal/httpapi"
)

const (
	streamBuffer      = 100
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// streamMessage is one frame sent to a client
type streamMessage struct {
	Type      string                 `json:"type" msgpack:"type"`
	Module    string                 `json:"module,omitempty" msgpack:"module,omitempty"`
	UserID    int64                  `json:"user_id,omitempty" msgpack:"user_id,omitempty"`
	Timestamp time.Time              `json:"timestamp" msgpack:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// EventsStreamHandler pushes committed events to websocket clients. A client
// sees its own events and system events (user id 0), never another user's.
type EventsStreamHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsStreamHandler creates a new event stream handler
func NewEventsStreamHandler(eventBus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus: eventBus,
		log:      log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws?types=A,B&format=json|msgpack
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	if h.eventBus == nil {
		httpapi.WriteMessage(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	binary := r.URL.Query().Get("format") == "msgpack"
	types := events.AllEventTypes
	if filter := r.URL.Query().Get("types"); filter != "" {
		types = nil
		for _, t := range strings.Split(filter, ",") {
			types = append(types, events.EventType(strings.TrimSpace(t)))
		}
	}

	// the server's WriteTimeout would otherwise survive the hijack
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	eventChan := make(chan *events.Event, streamBuffer)
	handler := func(event *events.Event) {
		if event.UserID != 0 && event.UserID != userID {
			return
		}
		select {
		case eventChan <- event:
		default:
			h.log.Warn().Str("event_type", string(event.Type)).Int64("user_id", userID).Msg("Event channel full, dropping event")
		}
	}
	for _, t := range types {
		unsubscribe := h.eventBus.Subscribe(t, handler)
		defer unsubscribe()
	}

	// Client frames are ignored; the returned context ends when the client goes away
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Int64("user_id", userID).Bool("msgpack", binary).Int("types", len(types)).Msg("Client connected to event stream")

	if err := h.send(ctx, conn, binary, streamMessage{Type: "connected", Timestamp: time.Now().UTC()}); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Int64("user_id", userID).Msg("Client disconnected from event stream")
			return

		case event := <-eventChan:
			msg := streamMessage{
				Type:      string(event.Type),
				Module:    event.Module,
				UserID:    event.UserID,
				Timestamp: event.Timestamp,
				Data:      event.Data,
			}
			if err := h.send(ctx, conn, binary, msg); err != nil {
				h.log.Debug().Err(err).Msg("Failed to send event")
				return
			}

		case <-heartbeat.C:
			if err := h.send(ctx, conn, binary, streamMessage{Type: "heartbeat", Timestamp: time.Now().UTC()}); err != nil {
				return
			}
		}
	}
}

func (h *EventsStreamHandler) send(ctx context.Context, conn *websocket.Conn, binary bool, msg streamMessage) error {
	var (
		payload []byte
		err     error
		kind    = websocket.MessageText
	)
	if binary {
		payload, err = msgpack.Marshal(msg)
		kind = websocket.MessageBinary
	} else {
		payload, err = json.Marshal(msg)
	}
	if err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode event")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, kind, payload)
}
