package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/events"
)

// StatusMonitor periodically checks system health and emits SystemStatusChanged
// when the overall status or the set of unhealthy databases changes
type StatusMonitor struct {
	eventManager   *events.Manager
	systemHandlers *SystemHandlers
	log            zerolog.Logger

	lastStatus    string
	lastUnhealthy map[string]bool

	stopOnce sync.Once
	stop     chan struct{}
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(eventManager *events.Manager, systemHandlers *SystemHandlers, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		eventManager:   eventManager,
		systemHandlers: systemHandlers,
		log:            log.With().Str("component", "status_monitor").Logger(),
		lastUnhealthy:  make(map[string]bool),
		stop:           make(chan struct{}),
	}
}

// Start begins periodic status monitoring
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop ends monitoring; it is safe to call more than once
func (m *StatusMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.checkStatuses()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.checkStatuses()
		}
	}
}

// checkStatuses returns true when an event was emitted
func (m *StatusMonitor) checkStatuses() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snapshot := m.systemHandlers.GetSystemStatusSnapshot(ctx)
	unhealthy := make(map[string]bool)
	for _, db := range snapshot.Databases {
		if !db.Healthy {
			unhealthy[db.Name] = true
		}
	}

	if snapshot.Status == m.lastStatus && sameKeys(unhealthy, m.lastUnhealthy) {
		return false
	}
	m.lastStatus = snapshot.Status
	m.lastUnhealthy = unhealthy

	names := make([]string, 0, len(unhealthy))
	for name := range unhealthy {
		names = append(names, name)
	}
	if len(names) > 0 {
		m.log.Warn().Strs("databases", names).Msg("Databases unhealthy")
	}
	m.eventManager.Emit(events.SystemStatusChanged, "status_monitor", map[string]interface{}{
		"status":              snapshot.Status,
		"unhealthy_databases": names,
	})
	return true
}

func sameKeys(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
