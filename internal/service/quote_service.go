package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"
	"go-paper-orders/internal/repository"
	"go-paper-orders/internal/resolver"

	"go.uber.org/zap"
)

const noteNotFound = "not found"

// QuoteInput is a request after normalization and item extraction.
type QuoteInput struct {
	Text        string
	RequestDate string
	RequestedBy string
	Items       []resolver.RequestedItem
	JobType     string
	EventType   string
}

type QuoteService interface {
	BuildQuote(ctx context.Context, in QuoteInput) (*model.Quote, error)
	RecordHistory(ctx context.Context, in QuoteInput, q *model.Quote) error
	SearchHistory(ctx context.Context, terms []string) ([]model.QuoteMatch, error)
}

type quoteService struct {
	catalog   repository.CatalogRepository
	inventory repository.InventoryRepository
	ledger    repository.LedgerRepository
	history   repository.QuoteHistoryRepository
	advisor   DiscountAdvisor
	log       *zap.Logger
}

func NewQuoteService(
	catalog repository.CatalogRepository,
	inventory repository.InventoryRepository,
	ledger repository.LedgerRepository,
	history repository.QuoteHistoryRepository,
	advisor DiscountAdvisor,
	log *zap.Logger,
) QuoteService {
	if advisor == nil {
		advisor = HistoryDiscountAdvisor{}
	}
	return &quoteService{
		catalog:   catalog,
		inventory: inventory,
		ledger:    ledger,
		history:   history,
		advisor:   advisor,
		log:       log.Named("quote"),
	}
}

// BuildQuote prices every requested item in request order. Items missing
// from the catalog become NotFound lines; nothing is dropped.
func (s *quoteService) BuildQuote(ctx context.Context, in QuoteInput) (*model.Quote, error) {
	q := &model.Quote{RequestDate: in.RequestDate, RequestedBy: in.RequestedBy}
	for _, item := range in.Items {
		line, err := s.quoteLine(ctx, in.RequestDate, item)
		if err != nil {
			return nil, err
		}
		q.Lines = append(q.Lines, line)
	}
	return q, nil
}

func (s *quoteService) quoteLine(ctx context.Context, requestDate string, item resolver.RequestedItem) (model.QuoteLine, error) {
	line := model.QuoteLine{
		ItemName:        item.ItemName,
		RequestedPhrase: item.Phrase,
		Quantity:        item.Quantity,
		CommissionRate:  model.CommissionRate,
	}
	if item.ItemName == "" {
		line.NotFound = true
		line.Note = noteNotFound
		return line, nil
	}

	catalogItem, err := s.catalog.FindByName(ctx, item.ItemName)
	if errors.Is(err, repository.ErrItemNotFound) {
		line.NotFound = true
		line.Note = noteNotFound
		return line, nil
	}
	if err != nil {
		return line, err
	}
	line.ItemName = catalogItem.Name
	line.UnitPrice = catalogItem.UnitPrice

	if inv, err := s.inventory.FindByItemName(ctx, catalogItem.Name); err == nil {
		line.MinStockLevel = inv.MinStockLevel
	} else if !errors.Is(err, repository.ErrNotStocked) {
		return line, err
	}

	stock, err := s.ledger.StockAsOf(ctx, catalogItem.Name, requestDate)
	if err != nil {
		return line, err
	}
	line.CurrentStock = stock
	line.StockStatus = model.StockInsufficient
	if stock >= item.Quantity {
		line.StockStatus = model.StockSufficient
	}

	delivery, err := pricing.DeliveryDate(requestDate, item.Quantity)
	if err != nil {
		s.log.Warn("delivery date fell back to today", zap.String("item", catalogItem.Name), zap.Error(err))
	}
	line.DeliveryDate = pricing.FormatDate(delivery)

	line.BasePrice = pricing.BaseTotal(catalogItem.UnitPrice, item.Quantity)
	matches, err := s.history.Search(ctx, []string{catalogItem.Name}, repository.DefaultHistoryLimit)
	if err != nil {
		return line, fmt.Errorf("quote history for %q: %w", catalogItem.Name, err)
	}
	rate, err := s.advisor.Advise(ctx, DiscountInput{
		ItemName:  catalogItem.Name,
		Quantity:  item.Quantity,
		BaseTotal: line.BasePrice,
		History:   matches,
	})
	if err != nil {
		return line, fmt.Errorf("discount for %q: %w", catalogItem.Name, err)
	}
	final, applied := pricing.PriceWithCommissionAndDiscount(line.BasePrice, rate)
	line.TotalPrice = final.Round(4)
	line.DiscountRate = applied
	return line, nil
}

// RecordHistory archives a fulfilled quote so later requests for the same
// items earn loyalty discounts.
func (s *quoteService) RecordHistory(ctx context.Context, in QuoteInput, q *model.Quote) error {
	units := 0
	var parts []string
	for _, l := range q.Lines {
		if l.NotFound {
			continue
		}
		units += l.Quantity
		parts = append(parts, fmt.Sprintf("%d units of %s at $%s", l.Quantity, l.ItemName, l.TotalPrice.StringFixed(2)))
	}
	if len(parts) == 0 {
		return nil
	}

	return s.history.Create(ctx,
		&model.QuoteRequest{Response: in.Text, JobType: in.JobType, EventType: in.EventType},
		&model.HistoricalQuote{
			TotalAmount:      q.Total(),
			QuoteExplanation: "Quoted " + strings.Join(parts, ", ") + ".",
			OrderDate:        q.RequestDate,
			JobType:          in.JobType,
			OrderSize:        orderSize(units),
			EventType:        in.EventType,
		},
	)
}

func (s *quoteService) SearchHistory(ctx context.Context, terms []string) ([]model.QuoteMatch, error) {
	return s.history.Search(ctx, terms, repository.DefaultHistoryLimit)
}

func orderSize(units int) string {
	switch {
	case units <= 500:
		return "small"
	case units <= 5000:
		return "medium"
	default:
		return "large"
	}
}
