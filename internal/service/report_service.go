package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"
	"go-paper-orders/internal/repository"

	"github.com/shopspring/decimal"
)

const topSellerCount = 5

// ItemValuation is one stocked item in the financial report.
type ItemValuation struct {
	ItemName  string          `json:"item_name"`
	Stock     int             `json:"stock"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

type FinancialReport struct {
	AsOfDate           string                 `json:"as_of_date"`
	CashBalance        decimal.Decimal        `json:"cash_balance"`
	InventoryValue     decimal.Decimal        `json:"inventory_value"`
	TotalAssets        decimal.Decimal        `json:"total_assets"`
	InventorySummary   []ItemValuation        `json:"inventory_summary"`
	TopSellingProducts []repository.ItemSales `json:"top_selling_products"`
}

// StockLevel is the derived stock of one item on a date.
type StockLevel struct {
	ItemName      string `json:"item_name"`
	Stock         int    `json:"stock"`
	MinStockLevel int    `json:"min_stock_level"`
	AsOfDate      string `json:"as_of_date"`
}

type ReportService interface {
	FinancialReport(ctx context.Context, asOf string) (*FinancialReport, error)
	InventorySnapshot(ctx context.Context, asOf string) ([]StockLevel, error)
	ItemStock(ctx context.Context, name, asOf string) (*StockLevel, error)
	StockMovement(ctx context.Context, days int, asOf string) ([]repository.StockMovementData, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Transaction(ctx context.Context, id uint) (*model.Transaction, error)
}

type reportService struct {
	ledger    repository.LedgerRepository
	catalog   repository.CatalogRepository
	inventory repository.InventoryRepository
}

func NewReportService(ledger repository.LedgerRepository, catalog repository.CatalogRepository, inventory repository.InventoryRepository) ReportService {
	return &reportService{ledger: ledger, catalog: catalog, inventory: inventory}
}

func (s *reportService) FinancialReport(ctx context.Context, asOf string) (*FinancialReport, error) {
	cash, err := s.ledger.CashAsOf(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("cash as of %s: %w", asOf, err)
	}
	stock, err := s.ledger.StockByItem(ctx, asOf)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &FinancialReport{
		AsOfDate:         asOf,
		CashBalance:      cash,
		InventoryValue:   decimal.Zero,
		InventorySummary: []ItemValuation{},
	}
	for _, item := range catalog {
		units, ok := stock[item.Name]
		if !ok || units == 0 {
			continue
		}
		value := item.UnitPrice.Mul(decimal.NewFromInt(int64(units)))
		report.InventoryValue = report.InventoryValue.Add(value)
		report.InventorySummary = append(report.InventorySummary, ItemValuation{
			ItemName:  item.Name,
			Stock:     units,
			UnitPrice: item.UnitPrice,
			Value:     value,
		})
	}
	report.TotalAssets = report.CashBalance.Add(report.InventoryValue)

	sales, err := s.ledger.SalesByItem(ctx, asOf)
	if err != nil {
		return nil, err
	}
	report.TopSellingProducts = topSellers(sales, topSellerCount)
	return report, nil
}

// topSellers orders by revenue, ties broken by item name.
func topSellers(sales []repository.ItemSales, n int) []repository.ItemSales {
	out := append([]repository.ItemSales(nil), sales...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ItemName < out[j].ItemName
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// InventorySnapshot lists items with positive stock, by name.
func (s *reportService) InventorySnapshot(ctx context.Context, asOf string) ([]StockLevel, error) {
	stock, err := s.ledger.PositiveStock(ctx, asOf)
	if err != nil {
		return nil, err
	}
	records, err := s.inventory.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	minLevels := make(map[string]int, len(records))
	for _, r := range records {
		minLevels[r.ItemName] = r.MinStockLevel
	}

	levels := make([]StockLevel, 0, len(stock))
	for name, units := range stock {
		levels = append(levels, StockLevel{ItemName: name, Stock: units, MinStockLevel: minLevels[name], AsOfDate: asOf})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ItemName < levels[j].ItemName })
	return levels, nil
}

func (s *reportService) ItemStock(ctx context.Context, name, asOf string) (*StockLevel, error) {
	item, err := s.catalog.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	units, err := s.ledger.StockAsOf(ctx, item.Name, asOf)
	if err != nil {
		return nil, err
	}
	level := &StockLevel{ItemName: item.Name, Stock: units, AsOfDate: asOf}
	inv, err := s.inventory.FindByItemName(ctx, item.Name)
	switch {
	case err == nil:
		level.MinStockLevel = inv.MinStockLevel
	case !errors.Is(err, repository.ErrNotStocked):
		return nil, err
	}
	return level, nil
}

// StockMovement covers the days up to and including asOf.
func (s *reportService) StockMovement(ctx context.Context, days int, asOf string) ([]repository.StockMovementData, error) {
	end, err := pricing.ParseDate(asOf)
	if err != nil {
		return nil, err
	}
	start := end.AddDate(0, 0, -days)
	return s.ledger.GetStockMovement(ctx, pricing.FormatDate(start), pricing.FormatDate(end))
}

func (s *reportService) Transactions(ctx context.Context) ([]model.Transaction, error) {
	return s.ledger.FindAll(ctx)
}

func (s *reportService) Transaction(ctx context.Context, id uint) (*model.Transaction, error) {
	return s.ledger.FindByID(ctx, id)
}
