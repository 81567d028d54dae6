package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
)

const (
	workflowOrder   = "order"
	workflowApprove = "approve"
	workflowReject  = "reject"
)

// Upload is a payment proof as received from the client.
type Upload struct {
	Filename string
	Body     io.Reader
}

type MerchandiseService struct {
	tx       Transactor
	status   statusKeeper
	regs     RegistrationStore
	ledger   Ledger
	files    FileStore
	tickets  TicketIssuer
	renderer TicketRenderer
	notifier Notifier
	rec      Recorder
	clock    domain.Clock
}

func NewMerchandiseService(
	tx Transactor,
	events EventStore,
	regs RegistrationStore,
	ledger Ledger,
	files FileStore,
	tickets TicketIssuer,
	renderer TicketRenderer,
	notifier Notifier,
	rec Recorder,
	clock domain.Clock,
) *MerchandiseService {
	if rec == nil {
		rec = nopRecorder{}
	}

	return &MerchandiseService{
		tx:       tx,
		status:   statusKeeper{events: events, clock: clock},
		regs:     regs,
		ledger:   ledger,
		files:    files,
		tickets:  tickets,
		renderer: renderer,
		notifier: notifier,
		rec:      rec,
		clock:    clock,
	}
}

// PlaceOrder stores the payment proof and records a pending order. Neither a
// registration slot nor stock is taken until the organizer approves.
func (s *MerchandiseService) PlaceOrder(ctx context.Context, participantID, eventID uint, key domain.VariantKey, proof Upload) (domain.Registration, error) {
	order, event, err := s.placeOrder(ctx, participantID, eventID, key, proof)
	s.rec.Workflow(workflowOrder, err)
	if err != nil {
		return domain.Registration{}, err
	}

	s.notifier.Notify(context.WithoutCancel(ctx), participantID, domain.NotifyOrderPlaced, map[string]any{
		"event_id":   event.ID,
		"event_name": event.Name,
		"variant":    key.String(),
	})

	return order, nil
}

func (s *MerchandiseService) placeOrder(ctx context.Context, participantID, eventID uint, key domain.VariantKey, proof Upload) (domain.Registration, domain.Event, error) {
	if key.IsZero() {
		return domain.Registration{}, domain.Event{}, domain.Invalid("variant size and color are required")
	}
	if proof.Body == nil {
		return domain.Registration{}, domain.Event{}, domain.Invalid("payment proof image is required")
	}

	// Checked once before the upload so a refused order stores nothing, and
	// again under the row lock below.
	event, err := s.status.load(ctx, eventID)
	if err != nil {
		return domain.Registration{}, domain.Event{}, err
	}
	if err = s.checkOrder(ctx, event, participantID, key); err != nil {
		return domain.Registration{}, domain.Event{}, err
	}

	name := fmt.Sprintf("event-%d/participant-%d-%s", eventID, participantID, path.Base(proof.Filename))
	proofURL, err := s.files.Save(ctx, name, proof.Body)
	if err != nil {
		logDependency(workflowOrder, 0, err)
		return domain.Registration{}, domain.Event{}, fmt.Errorf("s.files.Save -> %w", domain.ErrDependency)
	}

	var order domain.Registration
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		// The row lock serializes the purchase-limit check per event.
		event, err = s.status.loadForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err = s.checkOrder(ctx, event, participantID, key); err != nil {
			return err
		}

		order, err = s.regs.Create(ctx, domain.Registration{
			EventID:         event.ID,
			ParticipantID:   participantID,
			Variant:         &key,
			PaymentStatus:   domain.PaymentPending,
			PaymentProofURL: proofURL,
			Status:          domain.RegistrationRegistered,
			CreatedAt:       s.clock.Now(),
		})
		if err != nil {
			return fmt.Errorf("s.regs.Create -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Registration{}, domain.Event{}, err
	}

	return order, event, nil
}

// checkOrder holds the order preconditions: an open merchandise event, a
// variant in stock and room under the participant's purchase limit.
func (s *MerchandiseService) checkOrder(ctx context.Context, event domain.Event, participantID uint, key domain.VariantKey) error {
	if event.Type != domain.EventTypeMerchandise {
		return domain.ErrWrongEventType
	}
	if event.Status != domain.StatusPublished {
		return domain.ErrEventNotOpen
	}
	if s.clock.Now().After(event.RegistrationDeadline) {
		return domain.ErrDeadlinePassed
	}

	variant, ok := event.FindVariant(key)
	if !ok {
		return domain.ErrVariantNotFound
	}
	if variant.Stock <= 0 {
		return capacityErr(s.rec, "variant_stock", domain.ErrVariantSoldOut)
	}

	active, err := s.regs.CountActiveOrders(ctx, event.ID, participantID)
	if err != nil {
		return fmt.Errorf("s.regs.CountActiveOrders -> %w", err)
	}
	if active >= event.Merchandise.PurchaseLimitPerUser {
		return capacityErr(s.rec, "purchase_limit", domain.ErrPurchaseLimitHit)
	}

	return nil
}

// Approve confirms a pending order. The registration slot, the unit of stock
// and the ticket are taken in one transaction; if any of them fails the order
// stays pending.
func (s *MerchandiseService) Approve(ctx context.Context, organizerID, registrationID uint) (domain.Registration, error) {
	var (
		order domain.Registration
		event domain.Event
	)

	s.status.syncRegistration(ctx, s.regs, registrationID)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, event, err = s.loadOrder(ctx, organizerID, registrationID)
		if err != nil {
			return err
		}

		next, err := order.Next(domain.ActionApprove)
		if err != nil {
			return err
		}
		if event.Status != domain.StatusPublished && event.Status != domain.StatusOngoing {
			return domain.ErrEventNotActive
		}
		if order.Variant == nil {
			return domain.ErrVariantNotFound
		}
		if _, ok := event.FindVariant(*order.Variant); !ok {
			return domain.ErrVariantNotFound
		}

		if err = s.ledger.TryReserve(ctx, event.ID); err != nil {
			return capacityErr(s.rec, "registration_limit", fmt.Errorf("s.ledger.TryReserve -> %w", err))
		}
		if err = s.ledger.CommitStock(ctx, event.ID, *order.Variant); err != nil {
			return capacityErr(s.rec, "variant_stock", fmt.Errorf("s.ledger.CommitStock -> %w", err))
		}

		ticketID := s.tickets.NewTicketID()
		err = s.regs.Transition(ctx, order.ID, order.State(), next, ticketID)
		if errors.Is(err, repository.ErrStaleRegistration) {
			return domain.ErrOrderProcessed
		}
		if err != nil {
			return fmt.Errorf("s.regs.Transition -> %w", err)
		}

		order.Status, order.PaymentStatus, order.TicketID = next.Status, next.Payment, ticketID

		return nil
	})
	s.rec.Workflow(workflowApprove, err)
	if err != nil {
		return domain.Registration{}, err
	}

	sendTicket(ctx, s.renderer, s.notifier, order, event, domain.NotifyOrderApproved)

	return order, nil
}

// Reject closes a pending order. Nothing was reserved for it, so nothing is
// given back.
func (s *MerchandiseService) Reject(ctx context.Context, organizerID, registrationID uint) (domain.Registration, error) {
	var (
		order domain.Registration
		event domain.Event
	)

	s.status.syncRegistration(ctx, s.regs, registrationID)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, event, err = s.loadOrder(ctx, organizerID, registrationID)
		if err != nil {
			return err
		}

		next, err := order.Next(domain.ActionReject)
		if err != nil {
			return err
		}

		err = s.regs.Transition(ctx, order.ID, order.State(), next, "")
		if errors.Is(err, repository.ErrStaleRegistration) {
			return domain.ErrOrderProcessed
		}
		if err != nil {
			return fmt.Errorf("s.regs.Transition -> %w", err)
		}

		order.Status, order.PaymentStatus = next.Status, next.Payment

		return nil
	})
	s.rec.Workflow(workflowReject, err)
	if err != nil {
		return domain.Registration{}, err
	}

	s.notifier.Notify(context.WithoutCancel(ctx), order.ParticipantID, domain.NotifyOrderRejected, map[string]any{
		"event_id":   event.ID,
		"event_name": event.Name,
	})

	return order, nil
}

// loadOrder resolves a merchandise order and checks that organizerID owns its
// event.
func (s *MerchandiseService) loadOrder(ctx context.Context, organizerID, registrationID uint) (domain.Registration, domain.Event, error) {
	order, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return domain.Registration{}, domain.Event{}, fmt.Errorf("s.regs.FindByID -> %w", err)
	}

	event, err := s.status.load(ctx, order.EventID)
	if err != nil {
		return domain.Registration{}, domain.Event{}, err
	}
	if !event.OwnedBy(organizerID) {
		return domain.Registration{}, domain.Event{}, domain.ErrNotEventOwner
	}
	if event.Type != domain.EventTypeMerchandise {
		return domain.Registration{}, domain.Event{}, domain.ErrWrongEventType
	}

	return order, event, nil
}
