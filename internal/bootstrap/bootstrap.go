// Package bootstrap wires the repositories and services shared by the API
// server and the paperctl CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go-paper-orders/internal/config"
	"go-paper-orders/internal/handler"
	"go-paper-orders/internal/llm"
	"go-paper-orders/internal/repository"
	"go-paper-orders/internal/resolver"
	"go-paper-orders/internal/service"
	"go-paper-orders/internal/ws"
	"go-paper-orders/pkg/database"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	DB    *gorm.DB
	Hub   *ws.Hub
	Redis *redis.Client

	Quotes      service.QuoteService
	Fulfillment service.FulfillmentService
	Reports     service.ReportService
	Workflow    service.WorkflowService
	Seeder      service.SeedService
}

// New connects and migrates the database, then builds the service graph.
// A nil hub disables live events.
func New(ctx context.Context, cfg *config.Config, hub *ws.Hub, log *zap.Logger) (*App, error) {
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == config.DriverSQLite {
		dsn = cfg.SQLitePath
	}
	db, err := database.ConnectDB(database.Options{Driver: cfg.DBDriver, DSN: dsn, Debug: cfg.Debug}, log)
	if err != nil {
		return nil, err
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	catalog := repository.NewCatalogRepo(db)
	inventory := repository.NewInventoryRepo(db)
	ledger := repository.NewLedgerRepo(db)
	history := repository.NewQuoteRepo(db)

	a := &App{DB: db, Hub: hub}
	a.Seeder = service.NewSeedService(db, catalog, inventory, ledger, log)
	if err := catalog.SeedDefaults(ctx); err != nil {
		return nil, err
	}

	items, err := catalog.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}

	var (
		decider service.Decider
		advisor service.DiscountAdvisor
	)
	capability, err := llm.NewCapability(ctx, cfg, log)
	switch {
	case errors.Is(err, llm.ErrDisabled):
	case err != nil:
		return nil, err
	default:
		if cfg.DecisionMode == config.DecisionModel {
			decider = service.NewModelDecider(capability, ledger, history, cfg.LLMTimeout, cfg.LLMMaxSteps, log)
		}
		if cfg.DiscountMode == config.DiscountModel {
			advisor = service.NewModelDiscountAdvisor(capability, history, cfg.LLMTimeout, cfg.LLMMaxSteps, log)
		}
	}

	var guard repository.RequestGuard = repository.NoopRequestGuard{}
	if cfg.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		guard = repository.NewRedisRequestGuard(a.Redis, cfg.RedisTTL)
	}

	a.Quotes = service.NewQuoteService(catalog, inventory, ledger, history, advisor, log)
	a.Fulfillment = service.NewFulfillmentService(db, ledger, inventory, hub, log)
	a.Reports = service.NewReportService(ledger, catalog, inventory)
	a.Workflow = service.NewWorkflowService(resolver.New(names), a.Quotes, decider, a.Fulfillment, a.Reports, guard, log)

	log.Info("services ready",
		zap.String("db", cfg.DBDriver),
		zap.String("llm", cfg.LLMProvider),
		zap.String("decision", cfg.DecisionMode),
		zap.String("discount", cfg.DiscountMode),
		zap.Bool("idempotency", cfg.RedisAddr != ""),
	)
	return a, nil
}

// Seed stocks an empty database from the SEED_* settings.
func (a *App) Seed(ctx context.Context, cfg *config.Config) (*service.SeedResult, error) {
	cash, err := decimal.NewFromString(cfg.InitialCash)
	if err != nil {
		return nil, fmt.Errorf("%w: INITIAL_CASH %q", config.ErrInvalidConfig, cfg.InitialCash)
	}
	return a.Seeder.Seed(ctx, service.SeedOptions{
		Coverage:    cfg.SeedCoverage,
		Seed:        cfg.SeedRandom,
		InitialCash: cash,
		StartDate:   cfg.StartDate,
	})
}

func (a *App) Handlers(log *zap.Logger) handler.Handlers {
	return handler.Handlers{
		Requests:  handler.NewRequestHandler(a.Workflow, log),
		Inventory: handler.NewInventoryHandler(a.Reports, a.Fulfillment),
		Dashboard: handler.NewDashboardHandler(a.Reports),
		Quotes:    handler.NewQuoteHandler(a.Quotes),
	}
}

func (a *App) Close() error {
	if a.Redis != nil {
		a.Redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
