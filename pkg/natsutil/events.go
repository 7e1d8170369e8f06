package natsutil

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
	"github.com/carverauto/dashgate/pkg/relay"
)

const (
	// MonitorStatusEventType is the CloudEvent type of a status change.
	MonitorStatusEventType = "com.carverauto.dashgate.monitor.status"

	defaultSubjectPrefix = "dashgate.monitors"
	defaultSource        = "dashgate"
)

// Publisher is the part of *nats.Conn used to emit events.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// StatusPublisher turns heartbeats from the relay into monitor status change
// CloudEvents. The first heartbeat seen for a monitor only records its status.
type StatusPublisher struct {
	pub    Publisher
	prefix string
	source string
	logger logger.Logger
	now    func() time.Time

	mu     sync.Mutex
	status map[int]int
	names  map[int]string
}

// NewStatusPublisher returns a publisher using subjects
// "<prefix>.<monitor id>.status". Empty prefix and source fall back to defaults.
func NewStatusPublisher(pub Publisher, prefix, source string, log logger.Logger) *StatusPublisher {
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}

	if source == "" {
		source = defaultSource
	}

	return &StatusPublisher{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "."),
		source: source,
		logger: log,
		now:    time.Now,
		status: make(map[int]int),
		names:  make(map[int]string),
	}
}

// Subscriber returns the callbacks to register with a relay.Hub.
func (p *StatusPublisher) Subscriber() relay.Subscriber {
	return relay.Subscriber{
		OnMonitorList: p.observeMonitors,
		OnHeartbeat:   p.observeHeartbeat,
	}
}

// Subject returns the NATS subject for monitorID.
func (p *StatusPublisher) Subject(monitorID int) string {
	return fmt.Sprintf("%s.%d.status", p.prefix, monitorID)
}

func (p *StatusPublisher) observeMonitors(monitors []models.Monitor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range monitors {
		p.names[m.ID] = m.Name
	}
}

func (p *StatusPublisher) observeHeartbeat(hb models.Heartbeat) {
	p.mu.Lock()
	previous, seen := p.status[hb.MonitorID]
	p.status[hb.MonitorID] = hb.Status
	name := p.names[hb.MonitorID]
	p.mu.Unlock()

	if !seen || previous == hb.Status {
		return
	}

	change := models.MonitorStatusChange{
		MonitorID:      hb.MonitorID,
		MonitorName:    name,
		PreviousStatus: previous,
		CurrentStatus:  hb.Status,
		Msg:            hb.Msg,
		Ping:           hb.Ping,
		Time:           hb.Time,
	}

	if err := p.publish(change); err != nil {
		p.logger.Error().Err(err).Int("monitor_id", hb.MonitorID).Msg("Failed to publish monitor status change")
		return
	}

	p.logger.Debug().
		Int("monitor_id", hb.MonitorID).
		Int("previous_status", previous).
		Int("current_status", hb.Status).
		Msg("Published monitor status change")
}

func (p *StatusPublisher) publish(change models.MonitorStatusChange) error {
	now := p.now().UTC()
	subject := p.Subject(change.MonitorID)

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          p.source,
		Type:            MonitorStatusEventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &now,
		Data:            change,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal monitor status event: %w", err)
	}

	if err := p.pub.Publish(subject, eventBytes); err != nil {
		return fmt.Errorf("failed to publish monitor status event: %w", err)
	}

	return nil
}
