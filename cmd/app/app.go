package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nityanand123gupta/felicity-event-management/internal/api"
	"github.com/nityanand123gupta/felicity-event-management/internal/config"
	"github.com/nityanand123gupta/felicity-event-management/internal/db"
	"github.com/nityanand123gupta/felicity-event-management/internal/filestore"
	"github.com/nityanand123gupta/felicity-event-management/internal/logger"
	"github.com/nityanand123gupta/felicity-event-management/internal/metrics"
	"github.com/nityanand123gupta/felicity-event-management/internal/notify"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository"
	"github.com/nityanand123gupta/felicity-event-management/internal/repository/dao"
	"github.com/nityanand123gupta/felicity-event-management/internal/service"
)

const (
	DefaultConfigPath = "./cmd/app/config.yml"
	shutdownTimeout   = 15 * time.Second
)

func Start(configPath string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	config.Watch(configPath, func(c *config.AppConfig) {
		if err := logger.SetLevel(c.Log.Level); err != nil {
			zap.L().Warn("ignoring log level from reloaded config", zap.Error(err))
			return
		}
		zap.L().Info("log level reloaded", zap.Stringer("level", logger.Level()))
	})

	gdb, err := openDB(conf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher, nc, err := newNotifier(conf.Notifier, gdb)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier -> %w", err)
	}
	defer func() {
		dispatcher.Wait()
		if nc != nil {
			_ = nc.Drain()
		}
	}()

	files, err := filestore.New(conf.FileStore)
	if err != nil {
		return fmt.Errorf("failed to initialize file store -> %w", err)
	}

	s := api.NewServer(ctx, conf, gdb, api.Dependencies{
		Notifier: dispatcher,
		Files:    files,
		Metrics:  metrics.New(),
	})

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down the server -> %w", err)
		}
	}

	return nil
}

// Migrate creates or updates the schema and exits.
func Migrate(configPath string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	if _, err = openDB(conf); err != nil {
		return err
	}
	zap.L().Info("schema is up to date")

	return nil
}

func openDB(conf *config.AppConfig) (*gorm.DB, error) {
	gdb, err := db.Open(conf, os.Getenv("DATABASE_URL"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(gdb); err != nil {
		return nil, fmt.Errorf("failed to initialize tables -> %w", err)
	}

	auth := service.NewAuthService(repository.NewUserRepository(dao.NewUserDAO(gdb)))
	created, err := auth.EnsureAdmin(context.Background(), conf.Admin.Email, conf.Admin.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to set up admin account -> %w", err)
	}
	if created {
		zap.L().Info("admin account created", zap.String("email", conf.Admin.Email))
	}

	return gdb, nil
}

func newNotifier(conf *config.NotifierConfig, gdb *gorm.DB) (*notify.Dispatcher, *nats.Conn, error) {
	var (
		senders []notify.Sender
		nc      *nats.Conn
	)

	if email := notify.NewEmailSender(conf.Email, &http.Client{Timeout: conf.Timeout}); email != nil {
		senders = append(senders, email)
	}
	if conf.Discord.Enabled {
		senders = append(senders, notify.NewDiscordSender(&http.Client{Timeout: conf.Timeout}))
	}
	if conf.NATS.URL != "" {
		var err error
		nc, err = notify.ConnectNATS(conf.NATS.URL)
		if err != nil {
			return nil, nil, err
		}
		senders = append(senders, notify.NewNATSSender(nc, conf.NATS.SubjectPrefix))
	}
	if len(senders) == 0 {
		senders = append(senders, notify.LogSender{})
	}

	users := repository.NewUserRepository(dao.NewUserDAO(gdb))

	return notify.NewDispatcher(users, conf.Timeout, senders...), nc, nil
}
