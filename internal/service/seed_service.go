package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"
	"go-paper-orders/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SeedOptions struct {
	Coverage    float64
	Seed        int64
	InitialCash decimal.Decimal
	StartDate   string
}

type SeedResult struct {
	Skipped     bool            `json:"skipped"`
	Items       []string        `json:"items"`
	InitialCash decimal.Decimal `json:"initial_cash"`
	CashAfter   decimal.Decimal `json:"cash_after"`
}

type SeedService interface {
	Seed(ctx context.Context, opts SeedOptions) (*SeedResult, error)
}

type seedService struct {
	db        *gorm.DB
	catalog   repository.CatalogRepository
	inventory repository.InventoryRepository
	ledger    repository.LedgerRepository
	log       *zap.Logger
}

func NewSeedService(db *gorm.DB, catalog repository.CatalogRepository, inventory repository.InventoryRepository, ledger repository.LedgerRepository, log *zap.Logger) SeedService {
	return &seedService{db: db, catalog: catalog, inventory: inventory, ledger: ledger, log: log.Named("seed")}
}

// Seed loads the catalog, stocks a deterministic sample of it and records
// the opening cash. It does nothing to the ledger once inventory exists.
func (s *seedService) Seed(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	if _, err := pricing.ParseDate(opts.StartDate); err != nil {
		return nil, err
	}
	if err := s.catalog.SeedDefaults(ctx); err != nil {
		return nil, err
	}

	n, err := s.inventory.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.log.Info("inventory already seeded", zap.Int64("items", n))
		return &SeedResult{Skipped: true}, nil
	}

	catalog, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	picked := sample(rng, len(catalog), int(float64(len(catalog))*opts.Coverage))

	result := &SeedResult{InitialCash: opts.InitialCash}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		inventory := s.inventory.WithTx(tx)

		if _, err := ledger.Record(ctx, model.NewCashTransaction(model.KindSale, opts.InitialCash, opts.StartDate)); err != nil {
			return err
		}
		for _, i := range picked {
			item := catalog[i]
			stock := 200 + rng.Intn(600)
			inv := &model.InventoryItem{ItemName: item.Name, MinStockLevel: 50 + rng.Intn(100), SeedStock: stock}
			if err := inventory.Create(ctx, inv); err != nil {
				return fmt.Errorf("failed to stock %q: %w", item.Name, err)
			}
			price := item.UnitPrice.Mul(decimal.NewFromInt(int64(stock)))
			if _, err := ledger.Record(ctx, model.NewItemTransaction(item.Name, model.KindStockOrder, stock, price, opts.StartDate)); err != nil {
				return err
			}
			result.Items = append(result.Items, item.Name)
		}

		cash, err := ledger.CashAsOf(ctx, opts.StartDate)
		result.CashAfter = cash
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("seeded inventory",
		zap.Int("items", len(result.Items)),
		zap.String("cash", result.CashAfter.StringFixed(2)),
	)
	return result, nil
}

// sample picks k distinct indices out of n, returned in catalog order.
func sample(rng *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	picked := rng.Perm(n)[:k]
	sort.Ints(picked)
	return picked
}
