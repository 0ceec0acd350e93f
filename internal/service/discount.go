package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-paper-orders/internal/llm"
	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"
	"go-paper-orders/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscountInput is what an advisor sees for one quote line.
type DiscountInput struct {
	ItemName  string
	Quantity  int
	BaseTotal decimal.Decimal
	History   []model.QuoteMatch
}

// DiscountAdvisor picks a loyalty discount rate. Rates outside
// [0, pricing.MaxDiscountRate] are clamped by the caller.
type DiscountAdvisor interface {
	Advise(ctx context.Context, in DiscountInput) (float64, error)
}

// HistoryDiscountAdvisor scales the discount with the number of similar
// past orders.
type HistoryDiscountAdvisor struct{}

func (HistoryDiscountAdvisor) Advise(_ context.Context, in DiscountInput) (float64, error) {
	return historyRate(len(in.History)), nil
}

func historyRate(matches int) float64 {
	switch {
	case matches <= 0:
		return 0
	case matches <= 2:
		return 0.01
	case matches <= 4:
		return 0.02
	default:
		return pricing.MaxDiscountRate
	}
}

const discountInstructions = `You price orders for a paper supply company.
Given an item, its quantity, its base price and similar past quotes, choose a loyalty
discount between 0 and 0.03. Use the quote_history tool if you need more history.
Answer with a single JSON object: {"discount_rate": <number>}`

// ModelDiscountAdvisor asks a model worker for the rate. Unusable answers
// fall back to the history rule; a timeout is returned to the caller.
type ModelDiscountAdvisor struct {
	worker   *llm.Worker
	fallback HistoryDiscountAdvisor
	log      *zap.Logger
}

func NewModelDiscountAdvisor(capability llm.Capability, history repository.QuoteHistoryRepository, timeout time.Duration, maxSteps int, log *zap.Logger) *ModelDiscountAdvisor {
	worker := llm.NewWorker(capability, llm.WorkerConfig{
		Name:         "pricing",
		Instructions: discountInstructions,
		Tools:        []llm.Tool{quoteHistoryTool(history)},
		MaxSteps:     maxSteps,
		Timeout:      timeout,
	}, log)
	return &ModelDiscountAdvisor{worker: worker, log: log.Named("discount")}
}

func (a *ModelDiscountAdvisor) Advise(ctx context.Context, in DiscountInput) (float64, error) {
	history, _ := json.Marshal(in.History)
	task := fmt.Sprintf("Item: %s\nQuantity: %d\nBase price: %s\nSimilar past quotes: %s",
		in.ItemName, in.Quantity, in.BaseTotal.StringFixed(2), history)

	out, err := a.worker.Run(ctx, task)
	if errors.Is(err, llm.ErrTimeout) {
		return 0, err
	}
	if err == nil {
		var rate float64
		if rate, err = parseDiscountRate(out); err == nil {
			return rate, nil
		}
	}

	a.log.Warn("model discount unusable, using history rule", zap.String("item", in.ItemName), zap.Error(err))
	return a.fallback.Advise(ctx, in)
}

func parseDiscountRate(raw string) (float64, error) {
	body, ok := jsonObject(raw)
	if !ok {
		return 0, fmt.Errorf("%w: no JSON object", llm.ErrMalformedResponse)
	}
	var v struct {
		DiscountRate *float64 `json:"discount_rate"`
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return 0, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}
	if v.DiscountRate == nil {
		return 0, fmt.Errorf("%w: discount_rate missing", llm.ErrMalformedResponse)
	}
	return *v.DiscountRate, nil
}

// jsonObject returns the outermost {...} span of s.
func jsonObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func quoteHistoryTool(history repository.QuoteHistoryRepository) llm.Tool {
	return llm.Tool{
		Definition: llm.ToolDefinition{
			Name:        "quote_history",
			Description: "Search past quotes. Terms are comma separated and all must match.",
			Params:      []llm.ToolParam{{Name: "terms", Type: "string", Description: "comma separated search terms", Required: true}},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			raw, err := llm.StringArg(args, "terms")
			if err != nil {
				return "", err
			}
			matches, err := history.Search(ctx, strings.Split(raw, ","), repository.DefaultHistoryLimit)
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(matches)
			return string(out), err
		},
	}
}
