package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Event struct {
	ID          uint   `gorm:"primaryKey"`
	OrganizerID uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Type        string `gorm:"not null;index"` // "normal" or "merchandise"
	Eligibility string

	RegistrationDeadline time.Time `gorm:"not null"`
	StartDate            time.Time `gorm:"not null"`
	EndDate              time.Time `gorm:"not null"`

	RegistrationLimit  int `gorm:"not null;check:chk_events_limit,registration_limit >= 1"`
	RegistrationFee    int `gorm:"not null;default:0"`
	TotalRegistrations int `gorm:"not null;default:0;check:chk_events_capacity,total_registrations >= 0 AND total_registrations <= registration_limit"`

	Tags                 datatypes.JSON
	Status               string `gorm:"not null;index"`
	FormFields           datatypes.JSON
	PurchaseLimitPerUser int       `gorm:"not null;default:1"`
	Variants             []Variant `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant is one merchandise SKU. (event_id, size, color) is its key.
type Variant struct {
	ID      uint   `gorm:"primaryKey"`
	EventID uint   `gorm:"not null;uniqueIndex:idx_variants_key"`
	Size    string `gorm:"not null;uniqueIndex:idx_variants_key"`
	Color   string `gorm:"not null;uniqueIndex:idx_variants_key"`
	Stock   int    `gorm:"not null;check:chk_variants_stock,stock >= 0"`
}

type EventFilter struct {
	Statuses    []string
	Type        string
	Search      string
	Tag         string
	OrganizerID uint
	Eligibility string
	StartFrom   time.Time
	StartTo     time.Time
	// IDs restricts the result to these events when non-nil.
	IDs []uint
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := conn(ctx, d.db).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := conn(ctx, d.db).Preload("Variants").First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// FindByIDForUpdate row-locks the event for the rest of the transaction on
// stores that support it.
func (d *EventDAO) FindByIDForUpdate(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := conn(ctx, d.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	var variants []Variant
	if err := conn(ctx, d.db).Where("event_id = ?", id).Order("id").Find(&variants).Error; err != nil {
		return Event{}, err
	}
	event.Variants = variants

	return event, nil
}

func (d *EventDAO) Find(ctx context.Context, filter EventFilter) ([]Event, error) {
	var events []Event

	q := conn(ctx, d.db).Preload("Variants").Order("start_date")
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.OrganizerID != 0 {
		q = q.Where("organizer_id = ?", filter.OrganizerID)
	}
	if filter.IDs != nil {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.Eligibility != "" {
		q = q.Where("LOWER(eligibility) = ?", strings.ToLower(filter.Eligibility))
	}
	if !filter.StartFrom.IsZero() {
		q = q.Where("start_date >= ?", filter.StartFrom)
	}
	if !filter.StartTo.IsZero() {
		q = q.Where("start_date <= ?", filter.StartTo)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		organizers := d.db.Model(&User{}).Select("id").Where("LOWER(name) LIKE ?", like)
		q = q.Where("(LOWER(name) LIKE ? OR organizer_id IN (?))", like, organizers)
	}
	if filter.Tag != "" {
		q = q.Where("CAST(tags AS TEXT) LIKE ?", `%"`+strings.ToLower(filter.Tag)+`"%`)
	}

	result := q.Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// UpdateStatus moves the event from one status to another. It is a no-op when
// a concurrent request already moved it.
func (d *EventDAO) UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	result := conn(ctx, d.db).Model(&Event{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Update writes the given columns. Capacity counters are never part of it.
func (d *EventDAO) Update(ctx context.Context, id uint, fields map[string]any) error {
	delete(fields, "total_registrations")

	result := conn(ctx, d.db).Model(&Event{ID: id}).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

func (d *EventDAO) ReplaceVariants(ctx context.Context, eventID uint, variants []Variant) error {
	db := conn(ctx, d.db)

	if err := db.Where("event_id = ?", eventID).Delete(&Variant{}).Error; err != nil {
		return err
	}
	if len(variants) == 0 {
		return nil
	}
	for i := range variants {
		variants[i].ID = 0
		variants[i].EventID = eventID
	}

	return db.Create(&variants).Error
}

// Delete removes a draft event that nobody has registered for.
func (d *EventDAO) Delete(ctx context.Context, id uint) (bool, error) {
	db := conn(ctx, d.db)

	if err := db.Where("event_id = ?", id).Delete(&Variant{}).Error; err != nil {
		return false, err
	}

	result := db.Where("id = ? AND status = ? AND total_registrations = 0", id, "draft").Delete(&Event{})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
