package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nityanand123gupta/felicity-event-management/internal/config"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

type emailRequest struct {
	From        emailAddress      `json:"from"`
	To          []emailRecipient  `json:"to"`
	Subject     string            `json:"subject"`
	HTMLBody    string            `json:"htmlbody"`
	Attachments []emailAttachment `json:"attachments,omitempty"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type emailRecipient struct {
	Email emailAddress `json:"email_address"`
}

type emailAttachment struct {
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
}

// EmailSender posts messages to a transactional e-mail HTTP API.
type EmailSender struct {
	conf   config.EmailConfig
	client *http.Client
}

// NewEmailSender returns nil when the API is not configured.
func NewEmailSender(conf config.EmailConfig, client *http.Client) *EmailSender {
	if conf.APIURL == "" || conf.APIKey == "" || conf.From == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &EmailSender{conf: conf, client: client}
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if msg.Kind == domain.NotifyEventPublished || msg.Recipient.Email == "" {
		return nil
	}

	payload := emailRequest{
		From: emailAddress{Address: s.conf.From},
		To: []emailRecipient{
			{Email: emailAddress{Address: msg.Recipient.Email, Name: msg.Recipient.Name}},
		},
		Subject:  msg.Subject,
		HTMLBody: "<p>" + msg.Body + "</p>",
	}
	if png := msg.QRCode(); len(png) > 0 {
		payload.Attachments = append(payload.Attachments, emailAttachment{
			Content:  base64.StdEncoding.EncodeToString(png),
			MimeType: "image/png",
			Name:     "ticket.png",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.conf.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", s.conf.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("s.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("email API returned %s", resp.Status)
	}

	return nil
}
