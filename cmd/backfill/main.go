// Command backfill walks every available copy whose item has queued holds
// and promotes the head of each queue to ready. It repairs gaps left by
// crashed transactions or by holds placed while no sweep daemon was running,
// and is intended to be invoked by an external cron job or by an operator
// after an incident.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/copies"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/events"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/holds"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/items"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/loans"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/notifications"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/policies"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/requests"
	"github.com/openshelf/openshelf-backend/internal/adapter/postgres/users"
	"github.com/openshelf/openshelf-backend/internal/app"
	"github.com/openshelf/openshelf-backend/internal/config"
	"github.com/openshelf/openshelf-backend/internal/service/circulation"
	"github.com/openshelf/openshelf-backend/internal/service/notify"
	"github.com/openshelf/openshelf-backend/internal/service/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	caps, err := postgres.DetectCapabilities(ctx, pool)
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
	notificationRepo := notifications.New(pool)
	policyRepo := policies.New(pool)

	notifier := notify.NewGateway(logger, notificationRepo)
	resolver := policy.NewResolver(logger, itemRepo, policyRepo, clock, cfg.Circulation)
	circSvc := circulation.NewService(
		logger, txManager,
		copyRepo, holdRepo, itemRepo, loanRepo, userRepo, requestRepo, eventRepo,
		resolver, notifier, clock, cfg.Circulation,
	)

	promoted, err := circSvc.AssignAvailableCopies(ctx)
	if err != nil {
		logger.Error("backfill failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("backfill completed", slog.Int("promoted", promoted))
}
