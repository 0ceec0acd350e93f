package service

import (
	"context"
	"sync"
	"testing"

	"go-paper-orders/internal/llm"
	"go-paper-orders/internal/model"
	"go-paper-orders/internal/repository"
	"go-paper-orders/internal/resolver"
	"go-paper-orders/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const openingDate = "2025-01-01"

type fixture struct {
	db          *gorm.DB
	catalog     repository.CatalogRepository
	inventory   repository.InventoryRepository
	ledger      repository.LedgerRepository
	history     repository.QuoteHistoryRepository
	quotes      QuoteService
	fulfillment FulfillmentService
	reports     ReportService
	resolver    *resolver.Resolver
}

// newFixture stocks 500 sheets of A4 paper (min level 100) bought for $25
// out of initialCash.
func newFixture(t *testing.T, initialCash string) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(":memory:", false, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		db:        db,
		catalog:   repository.NewCatalogRepo(db),
		inventory: repository.NewInventoryRepo(db),
		ledger:    repository.NewLedgerRepo(db),
		history:   repository.NewQuoteRepo(db),
	}
	require.NoError(t, f.catalog.SeedDefaults(ctx))
	require.NoError(t, f.inventory.Create(ctx, &model.InventoryItem{ItemName: "A4 paper", MinStockLevel: 100, SeedStock: 500}))
	_, err = f.ledger.Record(ctx, model.NewCashTransaction(model.KindSale, decimal.RequireFromString(initialCash), openingDate))
	require.NoError(t, err)
	_, err = f.ledger.Record(ctx, model.NewItemTransaction("A4 paper", model.KindStockOrder, 500, decimal.NewFromInt(25), openingDate))
	require.NoError(t, err)

	names := make([]string, len(model.DefaultCatalog))
	for i, item := range model.DefaultCatalog {
		names[i] = item.Name
	}
	f.resolver = resolver.New(names)
	f.quotes = NewQuoteService(f.catalog, f.inventory, f.ledger, f.history, HistoryDiscountAdvisor{}, zap.NewNop())
	f.fulfillment = NewFulfillmentService(db, f.ledger, f.inventory, nil, zap.NewNop())
	f.reports = NewReportService(f.ledger, f.catalog, f.inventory)
	return f
}

func (f *fixture) workflow(guard repository.RequestGuard, decider Decider) WorkflowService {
	return NewWorkflowService(f.resolver, f.quotes, decider, f.fulfillment, f.reports, guard, zap.NewNop())
}

func (f *fixture) cash(t *testing.T, asOf string) decimal.Decimal {
	t.Helper()
	cash, err := f.ledger.CashAsOf(context.Background(), asOf)
	require.NoError(t, err)
	return cash
}

func (f *fixture) stock(t *testing.T, item, asOf string) int {
	t.Helper()
	n, err := f.ledger.StockAsOf(context.Background(), item, asOf)
	require.NoError(t, err)
	return n
}

func (f *fixture) count(t *testing.T, kind model.TransactionKind) int {
	t.Helper()
	all, err := f.ledger.FindAll(context.Background())
	require.NoError(t, err)
	n := 0
	for _, tx := range all {
		if tx.Kind == kind {
			n++
		}
	}
	return n
}

// scriptedCapability replays canned responses.
type scriptedCapability struct {
	mu        sync.Mutex
	responses []llm.Response
	calls     int
}

func (s *scriptedCapability) Invoke(_ context.Context, _ llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.responses) {
		return llm.Response{}, llm.ErrMalformedResponse
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

type blockingCapability struct{}

func (blockingCapability) Invoke(ctx context.Context, _ llm.Request) (llm.Response, error) {
	<-ctx.Done()
	return llm.Response{}, ctx.Err()
}

type fixedGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *fixedGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *fixedGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, key)
	return nil
}

type timeoutAdvisor struct{}

func (timeoutAdvisor) Advise(context.Context, DiscountInput) (float64, error) {
	return 0, llm.ErrTimeout
}
