package natsutil

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/dashgate/pkg/logger"
	"github.com/carverauto/dashgate/pkg/models"
)

var errTestFixture = errors.New("fixture error")

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.msgs = append(f.msgs, published{subject: subject, data: data})

	return nil
}

func TestStatusPublisherEmitsOnlyOnChange(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	p := NewStatusPublisher(pub, "", "", logger.NewTestLogger())
	p.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	sub := p.Subscriber()
	sub.OnMonitorList([]models.Monitor{{ID: 3, Name: "nas"}})

	sub.OnHeartbeat(models.Heartbeat{MonitorID: 3, Status: models.StatusUp})
	sub.OnHeartbeat(models.Heartbeat{MonitorID: 3, Status: models.StatusUp})
	sub.OnHeartbeat(models.Heartbeat{MonitorID: 3, Status: models.StatusDown, Msg: "timeout", Time: "2025-06-01 11:59:58"})
	sub.OnHeartbeat(models.Heartbeat{MonitorID: 4, Status: models.StatusDown})

	if len(pub.msgs) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.msgs))
	}

	msg := pub.msgs[0]
	if msg.subject != "dashgate.monitors.3.status" {
		t.Fatalf("subject = %q", msg.subject)
	}

	var event struct {
		SpecVersion string                     `json:"specversion"`
		ID          string                     `json:"id"`
		Type        string                     `json:"type"`
		Source      string                     `json:"source"`
		Subject     string                     `json:"subject"`
		Time        time.Time                  `json:"time"`
		Data        models.MonitorStatusChange `json:"data"`
	}

	if err := json.Unmarshal(msg.data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}

	if event.SpecVersion != "1.0" || event.Type != MonitorStatusEventType || event.Source != "dashgate" {
		t.Fatalf("unexpected envelope: %+v", event)
	}

	if event.ID == "" {
		t.Fatal("event id is empty")
	}

	want := models.MonitorStatusChange{
		MonitorID:      3,
		MonitorName:    "nas",
		PreviousStatus: models.StatusUp,
		CurrentStatus:  models.StatusDown,
		Msg:            "timeout",
		Time:           "2025-06-01 11:59:58",
	}

	if event.Data != want {
		t.Fatalf("data = %+v, want %+v", event.Data, want)
	}
}

func TestStatusPublisherSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"default prefix", "", "dashgate.monitors.7.status"},
		{"custom prefix", "home.kuma", "home.kuma.7.status"},
		{"trailing dot", "home.kuma.", "home.kuma.7.status"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := NewStatusPublisher(&fakePublisher{}, tc.prefix, "", logger.NewTestLogger())
			if got := p.Subject(7); got != tc.want {
				t.Fatalf("Subject(7) = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStatusPublisherPublishError(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errTestFixture}
	p := NewStatusPublisher(pub, "", "", logger.NewTestLogger())

	p.observeHeartbeat(models.Heartbeat{MonitorID: 1, Status: models.StatusUp})
	p.observeHeartbeat(models.Heartbeat{MonitorID: 1, Status: models.StatusDown})

	if err := p.publish(models.MonitorStatusChange{MonitorID: 1}); !errors.Is(err, errTestFixture) {
		t.Fatalf("publish error = %v, want %v", err, errTestFixture)
	}

	pub.err = nil
	p.observeHeartbeat(models.Heartbeat{MonitorID: 1, Status: models.StatusDown})

	if len(pub.msgs) != 0 {
		t.Fatalf("expected no events for an unchanged status, got %d", len(pub.msgs))
	}
}
