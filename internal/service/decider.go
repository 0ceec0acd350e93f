package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-paper-orders/internal/decision"
	"go-paper-orders/internal/llm"
	"go-paper-orders/internal/model"
	"go-paper-orders/internal/repository"

	"go.uber.org/zap"
)

// ReasonTimedOut is the refusal given when the model did not answer in time.
const ReasonTimedOut = "our order system did not respond in time"

// Decider turns a quote into a decision. Implementations never fail: every
// problem becomes a CannotFulfill.
type Decider interface {
	Decide(ctx context.Context, q *model.Quote) decision.Decision
}

type RulesDecider struct{}

func (RulesDecider) Decide(_ context.Context, q *model.Quote) decision.Decision {
	return decision.Decide(q)
}

const analysisInstructions = `You decide how a paper supply company handles an order.
You receive a quote as JSON. Each line has a stock_status and an estimated_delivery_date;
requested_by is the customer's deadline, if any. Use check_stock to confirm stock.
Rules: if every line is sufficient, FINALIZE_ORDER. If every insufficient line can be
delivered by the deadline (or there is no deadline), REORDER_STOCK. Otherwise CANNOT_FULFILL
with a short reason. Items marked not_found can never be fulfilled.
Answer with one JSON object and nothing else:
{"action": "...", "reason": "...", "details": [{"item_name": "...", "quantity": 0}]}`

// ModelDecider asks an analysis worker for the decision and validates the
// answer with decision.Parse.
type ModelDecider struct {
	worker *llm.Worker
	log    *zap.Logger
}

func NewModelDecider(capability llm.Capability, ledger repository.LedgerRepository, history repository.QuoteHistoryRepository, timeout time.Duration, maxSteps int, log *zap.Logger) *ModelDecider {
	worker := llm.NewWorker(capability, llm.WorkerConfig{
		Name:         "analysis",
		Instructions: analysisInstructions,
		Tools:        []llm.Tool{checkStockTool(ledger), quoteHistoryTool(history)},
		MaxSteps:     maxSteps,
		Timeout:      timeout,
	}, log)
	return &ModelDecider{worker: worker, log: log.Named("decider")}
}

func (m *ModelDecider) Decide(ctx context.Context, q *model.Quote) decision.Decision {
	if q == nil || len(q.Lines) == 0 {
		return decision.Decide(q)
	}
	body, err := json.Marshal(q)
	if err != nil {
		return decision.Refuse(decision.ReasonUnparseable, q.Lines)
	}

	out, err := m.worker.Run(ctx, "Quote:\n"+string(body))
	if err != nil {
		m.log.Warn("analysis worker failed", zap.Error(err))
		if errors.Is(err, llm.ErrTimeout) {
			return decision.Refuse(ReasonTimedOut, q.Lines)
		}
		return decision.Refuse(decision.ReasonUnparseable, q.Lines)
	}

	d, err := decision.Parse(out)
	if err != nil {
		m.log.Warn("analysis answer rejected", zap.Error(err))
		return decision.Refuse(decision.ReasonUnparseable, q.Lines)
	}
	return decision.Bind(d, q)
}

func checkStockTool(ledger repository.LedgerRepository) llm.Tool {
	return llm.Tool{
		Definition: llm.ToolDefinition{
			Name:        "check_stock",
			Description: "Units of an item in stock as of a date (YYYY-MM-DD).",
			Params: []llm.ToolParam{
				{Name: "item_name", Type: "string", Description: "exact catalog name", Required: true},
				{Name: "as_of_date", Type: "string", Description: "YYYY-MM-DD", Required: true},
			},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			item, err := llm.StringArg(args, "item_name")
			if err != nil {
				return "", err
			}
			asOf, err := llm.StringArg(args, "as_of_date")
			if err != nil {
				return "", err
			}
			units, err := ledger.StockAsOf(ctx, item, asOf)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d", units), nil
		},
	}
}
