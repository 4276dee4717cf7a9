// Package events publishes trip lifecycle events to NATS so downstream
// systems (billing, reporting) can react without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// NATSPublisher implements ports.EventPublisher over a NATS connection. A
// nil connection disables publishing without erroring, so the service runs
// the same with or without a broker configured.
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect dials the broker and returns a publisher. Reconnect handling is
// left to the nats client's own retry machinery.
func Connect(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("field-dispatch-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect %q: %w", url, err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// NewPublisher wraps an existing connection. nil is allowed and produces a
// publisher that silently drops every event.
func NewPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish marshals the payload and delivers it to the subject. Delivery is
// fire-and-forget; the caller has already persisted whatever the event
// describes.
func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	if p == nil || p.conn == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal %s payload: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection so buffered publishes flush before shutdown.
func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		log.Printf("events: drain failed: %v", err)
		p.conn.Close()
	}
}
