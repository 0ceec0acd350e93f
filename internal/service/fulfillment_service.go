package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-paper-orders/internal/decision"
	"go-paper-orders/internal/model"
	"go-paper-orders/internal/repository"
	"go-paper-orders/internal/ws"
	"go-paper-orders/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// ReorderBuffer is added on top of the minimum stock level when
	// replenishing.
	ReorderBuffer = 50

	systemActor = "order-workflow"
)

var (
	ErrValidation = errors.New("validation failed")

	errAbort = errors.New("fulfillment aborted")
)

// Outcome is what actually happened to the ledger for one decision.
type Outcome struct {
	Action     decision.Action     `json:"action"`
	Fulfilled  bool                `json:"fulfilled"`
	Downgraded bool                `json:"downgraded,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	Lines      []model.QuoteLine   `json:"lines"`
	Sales      []model.Transaction `json:"sales,omitempty"`
	Reorders   []model.Transaction `json:"reorders,omitempty"`
}

type FulfillmentService interface {
	Execute(ctx context.Context, d decision.Decision, q *model.Quote) (*Outcome, error)
	RecordTransaction(ctx context.Context, t *model.Transaction, actor string) (*model.Transaction, error)
}

// fulfillmentService serializes every read-decide-write on the ledger
// behind one mutex and one database transaction.
type fulfillmentService struct {
	mu        sync.Mutex
	db        *gorm.DB
	ledger    repository.LedgerRepository
	inventory repository.InventoryRepository
	hub       *ws.Hub
	log       *zap.Logger
}

func NewFulfillmentService(db *gorm.DB, ledger repository.LedgerRepository, inventory repository.InventoryRepository, hub *ws.Hub, log *zap.Logger) FulfillmentService {
	return &fulfillmentService{
		db:        db,
		ledger:    ledger,
		inventory: inventory,
		hub:       hub,
		log:       log.Named("fulfillment"),
	}
}

func (s *fulfillmentService) Execute(ctx context.Context, d decision.Decision, q *model.Quote) (*Outcome, error) {
	if d == nil || q == nil {
		return &Outcome{Action: decision.ActionCannotFulfill, Reason: decision.ReasonUnparseable}, nil
	}
	if cf, ok := d.(decision.CannotFulfill); ok {
		return &Outcome{Action: decision.ActionCannotFulfill, Reason: cf.Reason, Lines: q.Lines}, nil
	}
	if missing := notFound(q.Lines); len(missing) > 0 {
		return &Outcome{
			Action: decision.ActionCannotFulfill,
			Reason: "we do not carry " + strings.Join(missing, ", "),
			Lines:  q.Lines,
		}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Outcome{Action: d.Action(), Lines: q.Lines}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		inventory := s.inventory.WithTx(tx)
		need := demand(q.Lines)

		short, err := s.shortfalls(ctx, ledger, inventory, need, q.RequestDate)
		if err != nil {
			return err
		}
		if len(short) > 0 && out.Action == decision.ActionFinalize {
			s.log.Info("stock moved since quoting, reordering", zap.Int("items", len(short)))
			out.Action = decision.ActionReorder
			out.Downgraded = true
		}

		if len(short) > 0 {
			if err := s.reorder(ctx, ledger, short, q, out); err != nil {
				return err
			}
		}
		return s.sell(ctx, ledger, q, out)
	})

	switch {
	case errors.Is(err, errAbort):
		out.Sales, out.Reorders = nil, nil
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("fulfillment failed: %w", err)
	}

	out.Fulfilled = true
	s.publish(out)
	return out, nil
}

type shortfall struct {
	item      string
	stock     int
	need      int
	minLevel  int
	unitPrice decimal.Decimal
}

// demand sums the requested quantity per item, in first-seen order.
func demand(lines []model.QuoteLine) []itemDemand {
	var out []itemDemand
	index := make(map[string]int)
	for _, l := range lines {
		if i, ok := index[l.ItemName]; ok {
			out[i].quantity += l.Quantity
			continue
		}
		index[l.ItemName] = len(out)
		out = append(out, itemDemand{item: l.ItemName, quantity: l.Quantity, unitPrice: l.UnitPrice})
	}
	return out
}

type itemDemand struct {
	item      string
	quantity  int
	unitPrice decimal.Decimal
}

func (s *fulfillmentService) shortfalls(ctx context.Context, ledger repository.LedgerRepository, inventory repository.InventoryRepository, need []itemDemand, asOf string) ([]shortfall, error) {
	var short []shortfall
	for _, n := range need {
		minLevel := 0
		inv, err := inventory.LockByItemName(ctx, n.item)
		switch {
		case err == nil:
			minLevel = inv.MinStockLevel
		case !errors.Is(err, repository.ErrNotStocked):
			return nil, err
		}

		stock, err := ledger.MinStockFrom(ctx, n.item, asOf)
		if err != nil {
			return nil, err
		}
		if stock < n.quantity {
			short = append(short, shortfall{item: n.item, stock: stock, need: n.quantity, minLevel: minLevel, unitPrice: n.unitPrice})
		}
	}
	return short, nil
}

// reorder buys enough of every short item to serve the request and leave
// the minimum level plus ReorderBuffer. Any unaffordable reorder aborts the
// whole transaction.
func (s *fulfillmentService) reorder(ctx context.Context, ledger repository.LedgerRepository, short []shortfall, q *model.Quote, out *Outcome) error {
	for _, sf := range short {
		// Leaves stock at minLevel + ReorderBuffer once the sale is recorded.
		qty := sf.minLevel - (sf.stock - sf.need) + ReorderBuffer
		cost := sf.unitPrice.Mul(decimal.NewFromInt(int64(qty)))

		cash, err := ledger.CashAsOf(ctx, q.RequestDate)
		if err != nil {
			return err
		}
		if cash.LessThan(cost) {
			s.log.Info("reorder unaffordable",
				zap.String("item", sf.item),
				zap.Int("quantity", qty),
				zap.String("cost", cost.StringFixed(2)),
				zap.String("cash", cash.StringFixed(2)),
			)
			out.Action = decision.ActionCannotFulfill
			out.Reason = decision.ReasonInsufficientFunds
			return errAbort
		}

		t := model.NewItemTransaction(sf.item, model.KindStockOrder, qty, cost, q.RequestDate)
		t.CreatedBy = systemActor
		t.Note = fmt.Sprintf("reorder for %d requested, %d on hand", sf.need, sf.stock)
		if _, err := ledger.Record(ctx, t); err != nil {
			return err
		}
		out.Reorders = append(out.Reorders, *t)
	}
	return nil
}

func (s *fulfillmentService) sell(ctx context.Context, ledger repository.LedgerRepository, q *model.Quote, out *Outcome) error {
	for _, n := range demand(q.Lines) {
		stock, err := ledger.MinStockFrom(ctx, n.item, q.RequestDate)
		if err != nil {
			return err
		}
		if stock < n.quantity {
			out.Action = decision.ActionCannotFulfill
			out.Reason = fmt.Sprintf("insufficient stock of %s", n.item)
			return errAbort
		}
	}

	for _, l := range q.Lines {
		t := model.NewItemTransaction(l.ItemName, model.KindSale, l.Quantity, l.TotalPrice, q.RequestDate)
		t.CreatedBy = systemActor
		if _, err := ledger.Record(ctx, t); err != nil {
			return err
		}
		out.Sales = append(out.Sales, *t)
	}
	return nil
}

// RecordTransaction appends an operator-entered row, typically an
// offsetting correction.
func (s *fulfillmentService) RecordTransaction(ctx context.Context, t *model.Transaction, actor string) (*model.Transaction, error) {
	if errs := validator.ValidateStruct(t); len(errs) > 0 {
		first := errs[0]
		return nil, fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
	}
	t.ID = 0
	t.CreatedBy = actor

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ledger.Record(ctx, t); err != nil {
		return nil, err
	}

	s.hub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "transaction_created",
		Data:    t,
		Message: fmt.Sprintf("%s recorded a %s transaction", actor, t.Kind),
	})
	return t, nil
}

func (s *fulfillmentService) publish(out *Outcome) {
	for _, t := range out.Reorders {
		s.hub.Publish(ws.Event{
			Type:    "stock_update",
			Action:  "stock_ordered",
			Data:    t,
			Message: fmt.Sprintf("ordered %d units of '%s'", *t.Units, *t.ItemName),
		})
	}
	for _, t := range out.Sales {
		s.hub.Publish(ws.Event{
			Type:    "stock_update",
			Action:  "sale_recorded",
			Data:    t,
			Message: fmt.Sprintf("sold %d units of '%s'", *t.Units, *t.ItemName),
		})
	}
}

func notFound(lines []model.QuoteLine) []string {
	var names []string
	for _, l := range lines {
		if l.NotFound {
			name := l.RequestedPhrase
			if name == "" {
				name = l.ItemName
			}
			names = append(names, name)
		}
	}
	return names
}
