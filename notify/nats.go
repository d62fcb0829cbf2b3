package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// Publisher is the part of *nats.Conn the reporter needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSReporter publishes events as JSON on a subject
type NATSReporter struct {
	pub     Publisher
	subject string
	conn    *nats.Conn
}

// NewNATSReporter connects to url and publishes on subject
func NewNATSReporter(url, subject string) (*NATSReporter, error) {
	conn, err := nats.Connect(url, nats.Name("orderdesk"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("✓ Connected to NATS at %s (subject=%s)", url, subject)
	return &NATSReporter{pub: conn, subject: subject, conn: conn}, nil
}

// NewNATSReporterWithPublisher wraps an existing publisher
func NewNATSReporterWithPublisher(pub Publisher, subject string) *NATSReporter {
	return &NATSReporter{pub: pub, subject: subject}
}

func (r *NATSReporter) Report(_ context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ NATSReporter: failed to marshal event: %v", err)
		return
	}
	if err := r.pub.Publish(r.subject, data); err != nil {
		log.Printf("❌ NATSReporter: failed to publish to %s: %v", r.subject, err)
	}
}

// Close drains the connection if the reporter owns one
func (r *NATSReporter) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Drain()
}
