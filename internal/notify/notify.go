// Package notify delivers participant and organizer notifications outside the
// request path. Delivery failures are logged and never reach the caller.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Message is one rendered notification for a single recipient.
type Message struct {
	Kind      domain.NotificationKind
	Recipient domain.User
	Subject   string
	Body      string
	Data      map[string]any
}

// QRCode returns the ticket image attached to the message, if any.
func (m Message) QRCode() []byte {
	png, _ := m.Data["qr_png"].([]byte)
	return png
}

type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type Dispatcher struct {
	users   UserFinder
	senders []Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(users UserFinder, timeout time.Duration, senders ...Sender) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Dispatcher{
		users:   users,
		senders: senders,
		timeout: timeout,
	}
}

// Notify renders the message and hands it to every sender in the background.
func (d *Dispatcher) Notify(ctx context.Context, recipientID uint, kind domain.NotificationKind, data map[string]any) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		d.dispatch(ctx, recipientID, kind, data)
	}()
}

// Wait blocks until every notification started so far has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, recipientID uint, kind domain.NotificationKind, data map[string]any) {
	user, err := d.users.FindByID(ctx, recipientID)
	if err != nil {
		zap.L().Warn("notification recipient lookup failed",
			zap.String("kind", string(kind)),
			zap.Uint("recipient_id", recipientID),
			zap.Error(err),
		)
		return
	}

	subject, body := render(kind, user, data)
	msg := Message{
		Kind:      kind,
		Recipient: user,
		Subject:   subject,
		Body:      body,
		Data:      data,
	}

	for _, s := range d.senders {
		if err = s.Send(ctx, msg); err != nil {
			zap.L().Warn("notification delivery failed",
				zap.String("sender", s.Name()),
				zap.String("kind", string(kind)),
				zap.Uint("recipient_id", recipientID),
				zap.Error(err),
			)
		}
	}
}

func render(kind domain.NotificationKind, user domain.User, data map[string]any) (string, string) {
	eventName := data["event_name"]

	switch kind {
	case domain.NotifyRegistrationConfirmed:
		return fmt.Sprintf("Registration confirmed: %v", eventName),
			fmt.Sprintf("Hi %s, you are registered for %v. Your ticket id is %v.", user.Name, eventName, data["ticket_id"])
	case domain.NotifyOrderPlaced:
		return fmt.Sprintf("Order received: %v", eventName),
			fmt.Sprintf("Hi %s, your order for %v (%v) is awaiting payment approval.", user.Name, eventName, data["variant"])
	case domain.NotifyOrderApproved:
		return fmt.Sprintf("Order approved: %v", eventName),
			fmt.Sprintf("Hi %s, your payment for %v was approved. Your ticket id is %v.", user.Name, eventName, data["ticket_id"])
	case domain.NotifyOrderRejected:
		return fmt.Sprintf("Order rejected: %v", eventName),
			fmt.Sprintf("Hi %s, your payment for %v was rejected.", user.Name, eventName)
	case domain.NotifyEventPublished:
		return fmt.Sprintf("New event: %v", eventName),
			fmt.Sprintf("%v is now open for registration.", eventName)
	}

	return string(kind), fmt.Sprintf("%v", data)
}
