package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn the sender needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

type natsEnvelope struct {
	Kind        string         `json:"kind"`
	RecipientID uint           `json:"recipient_id"`
	Email       string         `json:"email"`
	Subject     string         `json:"subject"`
	Body        string         `json:"body"`
	Data        map[string]any `json:"data,omitempty"`
}

// NATSSender publishes every message on <prefix>.<kind> for downstream
// consumers. Binary attachments are not forwarded.
type NATSSender struct {
	pub    Publisher
	prefix string
}

func NewNATSSender(pub Publisher, prefix string) *NATSSender {
	if prefix == "" {
		prefix = "fest.notifications"
	}

	return &NATSSender{pub: pub, prefix: prefix}
}

// ConnectNATS dials the broker with the client name used across the service.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("felicity-event-management"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats.Connect -> %w", err)
	}

	return nc, nil
}

func (s *NATSSender) Name() string { return "nats" }

func (s *NATSSender) Send(_ context.Context, msg Message) error {
	data := make(map[string]any, len(msg.Data))
	for k, v := range msg.Data {
		if k == "qr_png" {
			continue
		}
		data[k] = v
	}

	payload, err := json.Marshal(natsEnvelope{
		Kind:        string(msg.Kind),
		RecipientID: msg.Recipient.ID,
		Email:       msg.Recipient.Email,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = s.pub.Publish(s.prefix+"."+string(msg.Kind), payload); err != nil {
		return fmt.Errorf("s.pub.Publish -> %w", err)
	}

	return nil
}
