// Command sweep runs the time-based circulation sweep daemon. On a fixed
// interval it ages loans through due-soon, overdue, lost, and suspended
// stages, expires ready holds past their pickup window, and flags room
// reservations nearing or past their end time.
//
// The daemon exits cleanly on SIGINT/SIGTERM. Exit codes: 0 = success,
// 1 = startup error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/copies"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/events"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/fines"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/holds"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/items"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/loans"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/notifications"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/policies"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/requests"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/reservations"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/users"
	"github.com/openshelf/openshelf-backend/internal/app"
	"github.com/openshelf/openshelf-backend/internal/config"
	"github.com/openshelf/openshelf-backend/internal/service/circulation"
	"github.com/openshelf/openshelf-backend/internal/service/notify"
	"github.com/openshelf/openshelf-backend/internal/service/policy"
	"github.com/openshelf/openshelf-backend/internal/service/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	caps, err := postgres.DetectCapabilities(connectCtx, pool)
	if err != nil {
		logger.Error("detect schema capabilities", slog.String("error", err.Error()))
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()
	txManager := postgres.NewTxManager(pool)

	copyRepo := copies.New(pool)
	holdRepo := holds.New(pool)
	itemRepo := items.New(pool)
	loanRepo := loans.New(pool, caps)
	userRepo := users.New(pool)
	requestRepo := requests.New(pool)
	eventRepo := events.New(pool)
	fineRepo := fines.New(pool)
	reservationRepo := reservations.New(pool)
	notificationRepo := notifications.New(pool)
	policyRepo := policies.New(pool)

	notifier := notify.NewGateway(logger, notificationRepo)
	resolver := policy.NewResolver(logger, itemRepo, policyRepo, clock, cfg.Circulation)
	circSvc := circulation.NewService(
		logger, txManager,
		copyRepo, holdRepo, itemRepo, loanRepo, userRepo, requestRepo, eventRepo,
		resolver, notifier, clock, cfg.Circulation,
	)
	engine := sweep.NewEngine(
		logger, txManager,
		loanRepo, copyRepo, fineRepo, reservationRepo, circSvc,
		notifier, clock, cfg.Sweep, cfg.Circulation,
	)

	logger.Info("sweep daemon started",
		slog.Duration("interval", cfg.Sweep.Interval),
	)

	engine.RunLoop(ctx)

	logger.Info("sweep daemon stopped")
}
