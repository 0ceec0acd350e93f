package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidTransactionKind = errors.New("invalid transaction kind")
	ErrUnpairedItemUnits      = errors.New("item name and units must be set together")
	ErrTransactionNotFound    = errors.New("transaction not found")
)

// LedgerRepository is the append-only transaction log. Stock and cash are
// always aggregated from it, bounded by an inclusive as-of date.
type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository
	Record(ctx context.Context, t *model.Transaction) (uint, error)
	StockAsOf(ctx context.Context, itemName, asOf string) (int, error)
	MinStockFrom(ctx context.Context, itemName, from string) (int, error)
	CashAsOf(ctx context.Context, asOf string) (decimal.Decimal, error)
	StockByItem(ctx context.Context, asOf string) (map[string]int, error)
	PositiveStock(ctx context.Context, asOf string) (map[string]int, error)
	SalesByItem(ctx context.Context, asOf string) ([]ItemSales, error)
	GetStockMovement(ctx context.Context, from, to string) ([]StockMovementData, error)
	FindAll(ctx context.Context) ([]model.Transaction, error)
	FindByID(ctx context.Context, id uint) (*model.Transaction, error)
}

// StockMovementData is one day of inbound and outbound units.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// ItemSales is the sales total of one item.
type ItemSales struct {
	ItemName string          `json:"item_name"`
	Units    int             `json:"units"`
	Revenue  decimal.Decimal `json:"revenue"`
}

const stockDelta = `COALESCE(SUM(CASE
	WHEN transaction_type = 'stock_orders' THEN units
	WHEN transaction_type = 'sales' THEN -units
	ELSE 0 END), 0)`

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

var _ LedgerRepository = (*ledgerRepo)(nil)

func (r *ledgerRepo) WithTx(tx *gorm.DB) LedgerRepository {
	return &ledgerRepo{tx}
}

// Record appends t and returns its id. It does not look at stock or cash.
func (r *ledgerRepo) Record(ctx context.Context, t *model.Transaction) (uint, error) {
	if !t.Kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTransactionKind, t.Kind)
	}
	if (t.ItemName == nil) != (t.Units == nil) {
		return 0, ErrUnpairedItemUnits
	}
	date, err := pricing.ParseDate(t.TransactionDate)
	if err != nil {
		return 0, err
	}
	t.TransactionDate = pricing.FormatDate(date)

	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return 0, fmt.Errorf("failed to record transaction: %w", err)
	}
	return t.ID, nil
}

func (r *ledgerRepo) StockAsOf(ctx context.Context, itemName, asOf string) (int, error) {
	var stock int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(stockDelta).
		Where("item_name = ? AND transaction_date <= ?", itemName, asOf).
		Scan(&stock).Error
	return int(stock), err
}

// MinStockFrom is the lowest stock level of itemName on from or any later
// date already in the ledger. A backdated sale must stay within it or a
// recorded future day would go negative.
func (r *ledgerRepo) MinStockFrom(ctx context.Context, itemName, from string) (int, error) {
	floor, err := r.StockAsOf(ctx, itemName, from)
	if err != nil {
		return 0, err
	}

	rows, err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select("transaction_date, "+stockDelta).
		Where("item_name = ? AND transaction_date > ?", itemName, from).
		Group("transaction_date").
		Order("transaction_date ASC").
		Rows()
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	level := floor
	for rows.Next() {
		var (
			date  string
			delta int64
		)
		if err := rows.Scan(&date, &delta); err != nil {
			return 0, err
		}
		level += int(delta)
		if level < floor {
			floor = level
		}
	}
	return floor, rows.Err()
}

// CashAsOf is sales revenue minus stock order spend. Prices are summed as
// decimals in Go so the result does not depend on the driver's numeric type.
func (r *ledgerRepo) CashAsOf(ctx context.Context, asOf string) (decimal.Decimal, error) {
	var rows []model.Transaction
	err := r.db.WithContext(ctx).
		Select("transaction_type", "price").
		Where("transaction_date <= ?", asOf).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	cash := decimal.Zero
	for _, t := range rows {
		switch t.Kind {
		case model.KindSale:
			cash = cash.Add(t.Price)
		case model.KindStockOrder:
			cash = cash.Sub(t.Price)
		}
	}
	return cash, nil
}

func (r *ledgerRepo) StockByItem(ctx context.Context, asOf string) (map[string]int, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select("item_name, "+stockDelta+" AS stock").
		Where("item_name IS NOT NULL AND transaction_date <= ?", asOf).
		Group("item_name").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stock := make(map[string]int)
	for rows.Next() {
		var name string
		var units int64
		if err := rows.Scan(&name, &units); err != nil {
			return nil, err
		}
		stock[name] = int(units)
	}
	return stock, rows.Err()
}

func (r *ledgerRepo) PositiveStock(ctx context.Context, asOf string) (map[string]int, error) {
	all, err := r.StockByItem(ctx, asOf)
	if err != nil {
		return nil, err
	}
	for name, units := range all {
		if units <= 0 {
			delete(all, name)
		}
	}
	return all, nil
}

// SalesByItem returns per-item sales sorted by item name.
func (r *ledgerRepo) SalesByItem(ctx context.Context, asOf string) ([]ItemSales, error) {
	var rows []model.Transaction
	err := r.db.WithContext(ctx).
		Select("item_name", "units", "price").
		Where("transaction_type = ? AND item_name IS NOT NULL AND transaction_date <= ?", model.KindSale, asOf).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*ItemSales)
	for _, t := range rows {
		s, ok := byName[*t.ItemName]
		if !ok {
			s = &ItemSales{ItemName: *t.ItemName, Revenue: decimal.Zero}
			byName[*t.ItemName] = s
		}
		if t.Units != nil {
			s.Units += *t.Units
		}
		s.Revenue = s.Revenue.Add(t.Price)
	}

	out := make([]ItemSales, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (r *ledgerRepo) GetStockMovement(ctx context.Context, from, to string) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(`
			transaction_date AS date,
			COALESCE(SUM(CASE WHEN transaction_type = 'stock_orders' THEN units ELSE 0 END), 0) AS inbound,
			COALESCE(SUM(CASE WHEN transaction_type = 'sales' THEN units ELSE 0 END), 0) AS outbound
		`).
		Where("item_name IS NOT NULL AND transaction_date BETWEEN ? AND ?", from, to).
		Group("transaction_date").
		Order("transaction_date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}
	return results, rows.Err()
}

func (r *ledgerRepo) FindAll(ctx context.Context) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).Order("transaction_date DESC, id DESC").Find(&transactions).Error
	return transactions, err
}

func (r *ledgerRepo) FindByID(ctx context.Context, id uint) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
