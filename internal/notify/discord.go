package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

// DiscordSender announces published events on the organizer's webhook.
type DiscordSender struct {
	client *http.Client
}

func NewDiscordSender(client *http.Client) *DiscordSender {
	if client == nil {
		client = http.DefaultClient
	}

	return &DiscordSender{client: client}
}

func (s *DiscordSender) Name() string { return "discord" }

func (s *DiscordSender) Send(ctx context.Context, msg Message) error {
	if msg.Kind != domain.NotifyEventPublished || msg.Recipient.DiscordWebhook == "" {
		return nil
	}

	content := fmt.Sprintf("**%v** has been published!", msg.Data["event_name"])
	if desc, ok := msg.Data["description"].(string); ok && desc != "" {
		content += "\n" + desc
	}
	if start, ok := msg.Data["start_date"].(string); ok {
		content += "\nStarts: " + start
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, msg.Recipient.DiscordWebhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("s.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("discord webhook returned %s", resp.Status)
	}

	return nil
}
