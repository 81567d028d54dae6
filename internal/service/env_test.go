package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nityanand123gupta/felicity-event-management/internal/db"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository/dao"
	"github.com/nityanand123gupta/felicity-event-management/internal/ticket"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

type sentNotification struct {
	RecipientID uint
	Kind        domain.NotificationKind
	Data        map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID uint, kind domain.NotificationKind, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentNotification{RecipientID: recipientID, Kind: kind, Data: data})
}

func (n *recordingNotifier) kinds() []domain.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]domain.NotificationKind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}

	return out
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(domain.TicketPayload) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	return []byte("png"), nil
}

type memoryFiles struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (f *memoryFiles) Save(_ context.Context, name string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[name] = data

	return "https://files.test/" + name, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	denied   map[string]int
}

func (r *countingRecorder) Workflow(workflow string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	r.outcomes[workflow+"/"+outcome]++
}

func (r *countingRecorder) CapacityDenied(counter string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.denied == nil {
		r.denied = make(map[string]int)
	}
	r.denied[counter]++
}

type recordingFeed struct {
	mu    sync.Mutex
	marks []domain.AttendanceMark
}

func (f *recordingFeed) Publish(mark domain.AttendanceMark) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.marks = append(f.marks, mark)
}

var epoch = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

// testEnv wires every service onto one in-memory database.
type testEnv struct {
	db       *gorm.DB
	clock    *fakeClock
	notifier *recordingNotifier
	files    *memoryFiles
	rec      *countingRecorder
	feed     *recordingFeed

	users  *repository.UserRepository
	events *repository.EventRepository
	regs   *repository.RegistrationRepository
	ledger *repository.CapacityLedger

	auth         *AuthService
	user         *UserService
	event        *EventService
	registration *RegistrationService
	merchandise  *MerchandiseService
	attendance   *AttendanceService
	analytics    *AnalyticsService
	export       *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, dao.InitTables(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		db:       gdb,
		clock:    &fakeClock{now: epoch},
		notifier: &recordingNotifier{},
		files:    &memoryFiles{},
		rec:      &countingRecorder{},
		feed:     &recordingFeed{},
		users:    repository.NewUserRepository(dao.NewUserDAO(gdb)),
		events:   repository.NewEventRepository(dao.NewEventDAO(gdb)),
		regs:     repository.NewRegistrationRepository(dao.NewRegistrationDAO(gdb)),
		ledger:   repository.NewCapacityLedger(dao.NewLedgerDAO(gdb)),
	}

	tx := dao.NewTransactor(gdb)
	tickets := ticket.NewIssuer(ticket.DefaultPrefix)
	renderer := stubRenderer{}

	env.auth = NewAuthService(env.users)
	env.user = NewUserService(env.users)
	env.event = NewEventService(tx, env.events, env.regs, env.notifier, env.clock)
	env.registration = NewRegistrationService(tx, env.events, env.regs, env.ledger, tickets, renderer, env.notifier, env.rec, env.clock)
	env.merchandise = NewMerchandiseService(tx, env.events, env.regs, env.ledger, env.files, tickets, renderer, env.notifier, env.rec, env.clock)
	env.attendance = NewAttendanceService(tx, env.events, env.regs, env.feed, env.rec, env.clock)
	env.analytics = NewAnalyticsService(env.events, env.regs, env.users, env.clock)
	env.export = NewExportService(env.events, env.regs, env.users, env.clock)

	return env
}

func (e *testEnv) signup(t *testing.T, email string, role domain.Role) domain.User {
	t.Helper()

	u, err := e.auth.Signup(context.Background(), domain.User{
		Email:    email,
		Password: "secret123",
		Name:     email,
		Role:     role,
	})
	require.NoError(t, err)

	return u
}

// Schedule used by every fixture: registration closes a day before the event,
// which starts two days after epoch and lasts eight hours.
var (
	fixtureDeadline = epoch.Add(24 * time.Hour)
	fixtureStart    = epoch.Add(48 * time.Hour)
	fixtureEnd      = fixtureStart.Add(8 * time.Hour)
)

func normalEvent(limit int) domain.Event {
	return domain.Event{
		Name:                 "Hackathon",
		Description:          "24 hours of code",
		Type:                 domain.EventTypeNormal,
		Eligibility:          "all",
		RegistrationDeadline: fixtureDeadline,
		StartDate:            fixtureStart,
		EndDate:              fixtureEnd,
		RegistrationLimit:    limit,
		RegistrationFee:      100,
		Tags:                 []string{"Tech"},
		FormFields: []domain.FormField{
			{Label: "Team", FieldType: domain.FieldText, Required: true},
		},
	}
}

func merchEvent(limit, purchaseLimit int, variants ...domain.Variant) domain.Event {
	return domain.Event{
		Name:                 "Fest T-shirt",
		Type:                 domain.EventTypeMerchandise,
		RegistrationDeadline: fixtureDeadline,
		StartDate:            fixtureStart,
		EndDate:              fixtureEnd,
		RegistrationLimit:    limit,
		RegistrationFee:      250,
		Merchandise: domain.MerchandiseDetails{
			PurchaseLimitPerUser: purchaseLimit,
			Variants:             variants,
		},
	}
}

// publishedEvent creates and publishes an event owned by organizer.
func (e *testEnv) publishedEvent(t *testing.T, organizer domain.User, event domain.Event) domain.Event {
	t.Helper()
	ctx := context.Background()

	created, err := e.event.Create(ctx, organizer.ID, event)
	require.NoError(t, err)

	published, err := e.event.Publish(ctx, organizer.ID, created.ID)
	require.NoError(t, err)

	return published
}

func (e *testEnv) reload(t *testing.T, eventID uint) domain.Event {
	t.Helper()

	event, err := e.events.FindByID(context.Background(), eventID)
	require.NoError(t, err)

	return event
}

var errBoom = errors.New("boom")

var teamAnswer = domain.FormResponses{"Team": "rockets"}
