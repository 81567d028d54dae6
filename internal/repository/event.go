package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository/dao"
)

var (
	ErrEventNotFound   = dao.ErrEventNotFound
	ErrVariantNotFound = dao.ErrVariantNotFound
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindByIDForUpdate(ctx context.Context, id uint) (dao.Event, error)
	Find(ctx context.Context, filter dao.EventFilter) ([]dao.Event, error)
	UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	ReplaceVariants(ctx context.Context, eventID uint, variants []dao.Variant) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

// EventQuery narrows a listing. Zero values mean "any".
type EventQuery struct {
	Statuses    []domain.EventStatus
	Type        domain.EventType
	Search      string
	Tag         string
	OrganizerID uint
	Eligibility string
	StartFrom   time.Time
	StartTo     time.Time
	IDs         []uint
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	model, err := r.domainToDao(event)
	if err != nil {
		return domain.Event{}, err
	}

	created, err := r.dao.Insert(ctx, model)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created)
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found)
}

func (r *EventRepository) FindByIDForUpdate(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByIDForUpdate(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByIDForUpdate -> %w", err)
	}

	return r.daoToDomain(found)
}

func (r *EventRepository) Find(ctx context.Context, query EventQuery) ([]domain.Event, error) {
	filter := dao.EventFilter{
		Type:        string(query.Type),
		Search:      query.Search,
		Tag:         query.Tag,
		OrganizerID: query.OrganizerID,
		Eligibility: query.Eligibility,
		StartFrom:   query.StartFrom,
		StartTo:     query.StartTo,
		IDs:         query.IDs,
	}
	for _, s := range query.Statuses {
		filter.Statuses = append(filter.Statuses, string(s))
	}

	found, err := r.dao.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Find -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		event, err := r.daoToDomain(e)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.EventStatus) (bool, error) {
	updated, err := r.dao.UpdateStatus(ctx, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return updated, nil
}

// Save writes every editable field of the event. Counters are left alone and
// variants are only rewritten when replaceVariants is set.
func (r *EventRepository) Save(ctx context.Context, event domain.Event, replaceVariants bool) error {
	model, err := r.domainToDao(event)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"name":                    model.Name,
		"description":             model.Description,
		"eligibility":             model.Eligibility,
		"registration_deadline":   model.RegistrationDeadline,
		"start_date":              model.StartDate,
		"end_date":                model.EndDate,
		"registration_limit":      model.RegistrationLimit,
		"registration_fee":        model.RegistrationFee,
		"tags":                    model.Tags,
		"status":                  model.Status,
		"form_fields":             model.FormFields,
		"purchase_limit_per_user": model.PurchaseLimitPerUser,
	}
	if err = r.dao.Update(ctx, event.ID, fields); err != nil {
		return fmt.Errorf("r.dao.Update -> %w", err)
	}

	if replaceVariants {
		if err = r.dao.ReplaceVariants(ctx, event.ID, model.Variants); err != nil {
			return fmt.Errorf("r.dao.ReplaceVariants -> %w", err)
		}
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) (bool, error) {
	deleted, err := r.dao.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return deleted, nil
}

func (r *EventRepository) domainToDao(e domain.Event) (dao.Event, error) {
	tags, err := json.Marshal(domain.NormalizeTags(e.Tags))
	if err != nil {
		return dao.Event{}, fmt.Errorf("json.Marshal(tags) -> %w", err)
	}

	fields := []domain.FormField{}
	if e.FormFields != nil {
		fields = e.FormFields
	}
	formFields, err := json.Marshal(fields)
	if err != nil {
		return dao.Event{}, fmt.Errorf("json.Marshal(form_fields) -> %w", err)
	}

	variants := make([]dao.Variant, 0, len(e.Merchandise.Variants))
	for _, v := range e.Merchandise.Variants {
		variants = append(variants, dao.Variant{
			EventID: e.ID,
			Size:    v.Size,
			Color:   v.Color,
			Stock:   v.Stock,
		})
	}

	return dao.Event{
		ID:                   e.ID,
		OrganizerID:          e.OrganizerID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 string(e.Type),
		Eligibility:          e.Eligibility,
		RegistrationDeadline: e.RegistrationDeadline,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationLimit:    e.RegistrationLimit,
		RegistrationFee:      e.RegistrationFee,
		TotalRegistrations:   e.TotalRegistrations,
		Tags:                 tags,
		Status:               string(e.Status),
		FormFields:           formFields,
		PurchaseLimitPerUser: e.Merchandise.PurchaseLimitPerUser,
		Variants:             variants,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}, nil
}

func (r *EventRepository) daoToDomain(e dao.Event) (domain.Event, error) {
	var tags []string
	if len(e.Tags) > 0 {
		if err := json.Unmarshal(e.Tags, &tags); err != nil {
			return domain.Event{}, fmt.Errorf("json.Unmarshal(tags) -> %w", err)
		}
	}

	var fields []domain.FormField
	if len(e.FormFields) > 0 {
		if err := json.Unmarshal(e.FormFields, &fields); err != nil {
			return domain.Event{}, fmt.Errorf("json.Unmarshal(form_fields) -> %w", err)
		}
	}

	variants := make([]domain.Variant, 0, len(e.Variants))
	for _, v := range e.Variants {
		variants = append(variants, domain.Variant{
			Size:  v.Size,
			Color: v.Color,
			Stock: v.Stock,
		})
	}

	event := domain.Event{
		ID:                   e.ID,
		OrganizerID:          e.OrganizerID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 domain.EventType(e.Type),
		Eligibility:          e.Eligibility,
		RegistrationDeadline: e.RegistrationDeadline.UTC(),
		StartDate:            e.StartDate.UTC(),
		EndDate:              e.EndDate.UTC(),
		RegistrationLimit:    e.RegistrationLimit,
		RegistrationFee:      e.RegistrationFee,
		Tags:                 tags,
		Status:               domain.EventStatus(e.Status),
		FormFields:           fields,
		TotalRegistrations:   e.TotalRegistrations,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
	if event.Type == domain.EventTypeMerchandise {
		event.Merchandise = domain.MerchandiseDetails{
			PurchaseLimitPerUser: e.PurchaseLimitPerUser,
			Variants:             variants,
		}
	}

	return event, nil
}
