package api

import (
	"context"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/nityanand123gupta/felicity-event-management/docs"
	v1 "github.com/nityanand123gupta/felicity-event-management/internal/api/handler/v1"
	"github.com/nityanand123gupta/felicity-event-management/internal/api/middleware"
	"github.com/nityanand123gupta/felicity-event-management/internal/config"
	"github.com/nityanand123gupta/felicity-event-management/internal/domain"
	"github.com/nityanand123gupta/felicity-event-management/internal/filestore"
	"github.com/nityanand123gupta/felicity-event-management/internal/metrics"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository/dao"
	"github.com/nityanand123gupta/felicity-event-management/internal/service"
	"github.com/nityanand123gupta/felicity-event-management/internal/ticket"
)

// Dependencies are the collaborators that live outside the database.
type Dependencies struct {
	Notifier service.Notifier
	Files    filestore.Store
	Metrics  *metrics.Metrics
	Clock    domain.Clock
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Feed   *v1.LiveFeed

	deps Dependencies
}

type repositories struct {
	tx     *dao.Transactor
	users  *repository.UserRepository
	events *repository.EventRepository
	regs   *repository.RegistrationRepository
	ledger *repository.CapacityLedger
}

type handlers struct {
	auth         *v1.AuthHandler
	user         *v1.UserHandler
	event        *v1.EventHandler
	registration *v1.RegistrationHandler
	merchandise  *v1.MerchandiseHandler
	attendance   *v1.AttendanceHandler
	live         *v1.LiveHandler
	analytics    *v1.AnalyticsHandler
	export       *v1.ExportHandler
}

// NewServer wires the services onto db. The live check-in hub runs until ctx
// is cancelled.
func NewServer(ctx context.Context, conf *config.AppConfig, db *gorm.DB, deps Dependencies) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Server{
		Config: conf,
		Router: engine,
		Feed:   v1.NewLiveFeed(),
		deps:   deps,
	}
	go s.Feed.Run(ctx)

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(s.initRepositories(db)))

	return s
}

func (s *Server) initRepositories(db *gorm.DB) repositories {
	return repositories{
		tx:     dao.NewTransactor(db),
		users:  repository.NewUserRepository(dao.NewUserDAO(db)),
		events: repository.NewEventRepository(dao.NewEventDAO(db)),
		regs:   repository.NewRegistrationRepository(dao.NewRegistrationDAO(db)),
		ledger: repository.NewCapacityLedger(dao.NewLedgerDAO(db)),
	}
}

func (s *Server) initHandlers(r repositories) handlers {
	clock := s.deps.Clock
	tickets := ticket.NewIssuer(s.Config.Ticket.Prefix)
	renderer := ticket.NewRenderer(0)

	uSvc := service.NewUserService(r.users)
	eventSvc := service.NewEventService(r.tx, r.events, r.regs, s.deps.Notifier, clock)
	regSvc := service.NewRegistrationService(r.tx, r.events, r.regs, r.ledger, tickets, renderer, s.deps.Notifier, s.deps.Metrics, clock)
	merchSvc := service.NewMerchandiseService(r.tx, r.events, r.regs, r.ledger, s.deps.Files, tickets, renderer, s.deps.Notifier, s.deps.Metrics, clock)
	attendanceSvc := service.NewAttendanceService(r.tx, r.events, r.regs, s.Feed, s.deps.Metrics, clock)

	return handlers{
		auth:         v1.NewAuthHandler(s.Config.API, service.NewAuthService(r.users)),
		user:         v1.NewUserHandler(uSvc),
		event:        v1.NewEventHandler(eventSvc, uSvc),
		registration: v1.NewRegistrationHandler(regSvc, uSvc),
		merchandise:  v1.NewMerchandiseHandler(merchSvc),
		attendance:   v1.NewAttendanceHandler(attendanceSvc),
		live:         v1.NewLiveHandler(s.Feed, eventSvc, uSvc),
		analytics:    v1.NewAnalyticsHandler(service.NewAnalyticsService(r.events, r.regs, r.users, clock)),
		export:       v1.NewExportHandler(service.NewExportService(r.events, r.regs, r.users, clock)),
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(middleware.AccessLog())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	s.Router.Use(s.deps.Metrics.Middleware())
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", h.auth.HandleSignup)
		auth.POST("/auth/login", h.auth.HandleLogin)
	}

	authenticated := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authenticated.GET("/users/me", h.user.HandleGetMe)
		authenticated.PATCH("/users/me", h.user.HandleUpdateMe)

		authenticated.GET("/events", h.event.HandleListEvents)
		authenticated.GET("/events/:eventID", h.event.HandleGetEvent)
		authenticated.GET("/registrations/:registrationID/ticket", h.registration.HandleTicket)
	}

	participant := authenticated.Group("", middleware.RequireRole(domain.RoleParticipant))
	{
		participant.POST("/events/:eventID/register", h.registration.HandleRegister)
		participant.POST("/events/:eventID/orders", h.merchandise.HandlePlaceOrder)
		participant.GET("/events/:eventID/calendar", h.export.HandleCalendarExport)
		participant.GET("/registrations/me", h.registration.HandleMyRegistrations)
		participant.POST("/registrations/:registrationID/cancel", h.registration.HandleCancel)
	}

	organizer := authenticated.Group("", middleware.RequireRole(domain.RoleOrganizer))
	{
		organizer.POST("/events", h.event.HandleCreateEvent)
		organizer.PATCH("/events/:eventID", h.event.HandleUpdateEvent)
		organizer.DELETE("/events/:eventID", h.event.HandleDeleteEvent)
		organizer.POST("/events/:eventID/publish", h.event.HandlePublishEvent)
		organizer.GET("/organizer/events", h.event.HandleMyEvents)
		organizer.GET("/organizer/dashboard", h.analytics.HandleOrganizerDashboard)

		organizer.GET("/events/:eventID/registrations", h.registration.HandleEventRegistrations)
		organizer.POST("/registrations/:registrationID/approve", h.merchandise.HandleApproveOrder)
		organizer.POST("/registrations/:registrationID/reject", h.merchandise.HandleRejectOrder)

		organizer.POST("/events/:eventID/attendance/scan", h.attendance.HandleScan)
		organizer.POST("/events/:eventID/attendance/manual", h.attendance.HandleManualAttendance)
		organizer.GET("/events/:eventID/attendance/live", h.live.HandleLiveAttendance)
		organizer.GET("/events/:eventID/attendance/export", h.export.HandleAttendanceExport)
		organizer.GET("/events/:eventID/analytics", h.analytics.HandleEventAnalytics)
	}

	admin := authenticated.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/analytics", h.analytics.HandlePlatformAnalytics)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	if local, ok := s.deps.Files.(*filestore.Local); ok {
		s.Router.Static("/uploads", local.Dir())
	}

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Felicity event management API"
	docs.SwaggerInfo.Description = "Event lifecycle, registrations, merchandise orders and attendance for fest and club events."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
