// Package events publishes build lifecycle events to NATS so downstream
// consumers (deploy hooks, dashboards) can react to navigation rebuilds.
// Publishing is optional; a no-op publisher is used when NATS is not
// configured.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// BuildEvent is the payload published for every build lifecycle transition.
type BuildEvent struct {
	BuildID     string    `json:"build_id"`
	Type        string    `json:"type"` // started|completed|failed|skipped
	Fingerprint string    `json:"fingerprint,omitempty"`
	OutputDir   string    `json:"output_dir,omitempty"`
	Pages       int       `json:"pages,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher emits build events.
type Publisher interface {
	Publish(ev BuildEvent) error
	Close()
}

// NoopPublisher drops all events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(BuildEvent) error { return nil }
func (NoopPublisher) Close()                   {}

// NATSPublisher publishes build events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS. The subject defaults to "docnav.builds".
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = "docnav.builds"
	}
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends one event. Marshalling failures are programmer errors and
// returned; transport failures are returned for the caller to log.
func (p *NATSPublisher) Publish(ev BuildEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}
	return nil
}

// Close flushes and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Flush()
	p.conn.Close()
}
