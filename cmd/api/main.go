package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpadp "microlend-backend/internal/adapter/http"
	idemp "microlend-backend/internal/adapter/middleware"
	notifyadp "microlend-backend/internal/adapter/notify"
	"microlend-backend/internal/adapter/repository/mysql"
	"microlend-backend/internal/config"
	"microlend-backend/internal/domain/notify"
	"microlend-backend/internal/infrastructure/cache"
	"microlend-backend/internal/infrastructure/db"
	"microlend-backend/internal/infrastructure/docstore"
	"microlend-backend/internal/infrastructure/logger"
	"microlend-backend/internal/infrastructure/tracing"
	appuc "microlend-backend/internal/usecase/application"
	loanuc "microlend-backend/internal/usecase/loan"
	payuc "microlend-backend/internal/usecase/payment"
	"microlend-backend/internal/usecase/reminder"
	"microlend-backend/internal/usecase/support"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "microlend-backend", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gdb, notifyadp.Models()...); err != nil {
			return err
		}
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var activity notify.ActivityLogger = notifyadp.NewLogActivity(log)
	if cfg.MongoURI != "" {
		m, err := docstore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close(context.Background()) }()
		activity = notifyadp.NewMongoActivity(m)
	}
	inbox := notifyadp.NewInApp(gdb)
	fx := support.NewEffects(notifyadp.NewSMSOutbox(rdb, cfg.SMSQueueKey), inbox, activity, log)

	repos := mysql.NewRepos(gdb)
	tx := mysql.NewGormUoW(gdb)
	loans := loanuc.NewUsecase(repos, tx, fx, log)
	apps := appuc.NewUsecase(repos, tx, fx, log)
	pays := payuc.NewUsecase(repos, tx, fx, log)

	poller := reminder.NewPoller(repos, loans, cache.NewMarker(rdb, "reminder:"), fx, log,
		cfg.ReminderInterval, cfg.ReminderLeadDays)
	go poller.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Ping: sqlDB.PingContext},
			httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Applications:  httpadp.NewApplicationHandler(apps, loans),
		Loans:         httpadp.NewLoanHandler(loans),
		Payments:      httpadp.NewPaymentHandler(pays),
		Notifications: httpadp.NewNotificationHandler(inbox),
	}, idemp.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, log))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
