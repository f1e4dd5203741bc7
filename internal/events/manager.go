package events

import (
	"time"

	"github.com/rs/zerolog"
)

// Manager stamps, logs and publishes events
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager. bus may be nil, in which case events are only logged.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Emit publishes a system-wide event
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	m.EmitForUser(0, eventType, module, data)
}

// EmitForUser publishes an event scoped to one user
func (m *Manager) EmitForUser(userID int64, eventType EventType, module string, data map[string]interface{}) {
	if m == nil {
		return
	}
	event := &Event{
		Type:      eventType,
		UserID:    userID,
		Module:    module,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	m.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		Int64("user_id", userID).
		Msg("Event emitted")

	if m.bus != nil {
		m.bus.Publish(event)
	}
}

// EmitTyped publishes typed event data
func (m *Manager) EmitTyped(userID int64, module string, data EventData) {
	m.EmitForUser(userID, data.EventType(), module, data.ToMap())
}

// EmitError publishes an ErrorOccurred event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.Emit(ErrorOccurred, module, map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	})
}
