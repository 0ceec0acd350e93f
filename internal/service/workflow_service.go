package service

import (
	"context"
	"errors"
	"fmt"

	"go-paper-orders/internal/decision"
	"go-paper-orders/internal/llm"
	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"
	"go-paper-orders/internal/repository"
	"go-paper-orders/internal/resolver"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDuplicateRequest = errors.New("request already processed")

type CustomerRequest struct {
	RequestID string `json:"request_id"`
	Text      string `json:"request" validate:"required"`
	Date      string `json:"request_date"`
	JobType   string `json:"job_type"`
	EventType string `json:"event_type"`
}

type RequestResult struct {
	RequestID   string           `json:"request_id"`
	RequestDate string           `json:"request_date"`
	Response    string           `json:"response"`
	Action      decision.Action  `json:"action"`
	Fulfilled   bool             `json:"fulfilled"`
	Quote       *model.Quote     `json:"quote"`
	Outcome     *Outcome         `json:"outcome"`
	Financials  *FinancialReport `json:"financials"`
	Warnings    []string         `json:"warnings,omitempty"`
}

type WorkflowService interface {
	HandleRequest(ctx context.Context, req CustomerRequest) (*RequestResult, error)
}

type workflowService struct {
	resolver    *resolver.Resolver
	quotes      QuoteService
	decider     Decider
	fulfillment FulfillmentService
	reports     ReportService
	guard       repository.RequestGuard
	log         *zap.Logger
}

func NewWorkflowService(
	res *resolver.Resolver,
	quotes QuoteService,
	decider Decider,
	fulfillment FulfillmentService,
	reports ReportService,
	guard repository.RequestGuard,
	log *zap.Logger,
) WorkflowService {
	if decider == nil {
		decider = RulesDecider{}
	}
	if guard == nil {
		guard = repository.NoopRequestGuard{}
	}
	return &workflowService{
		resolver:    res,
		quotes:      quotes,
		decider:     decider,
		fulfillment: fulfillment,
		reports:     reports,
		guard:       guard,
		log:         log.Named("workflow"),
	}
}

// HandleRequest runs one customer request end to end: quote, decide,
// fulfill, respond. Business failures come back as a refusal in the
// result; only infrastructure failures are returned as errors.
func (s *workflowService) HandleRequest(ctx context.Context, req CustomerRequest) (*RequestResult, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ok, err := s.guard.Acquire(ctx, req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("request guard: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, req.RequestID)
	}

	log := s.log.With(zap.String("request_id", req.RequestID))
	result, committed, err := s.handle(ctx, req, log)
	if err != nil && !committed {
		// Nothing reached the ledger, so the same id may be retried.
		if rerr := s.guard.Release(context.WithoutCancel(ctx), req.RequestID); rerr != nil {
			log.Warn("failed to release request id", zap.Error(rerr))
		}
	}
	return result, err
}

// handle reports whether the ledger was changed, so a failure after the
// commit keeps the request id claimed.
func (s *workflowService) handle(ctx context.Context, req CustomerRequest, log *zap.Logger) (*RequestResult, bool, error) {
	result := &RequestResult{RequestID: req.RequestID}

	date, warn := pricing.ParseDateOrToday(req.Date)
	if warn != nil {
		log.Warn("request date unparseable", zap.Error(warn))
		result.Warnings = append(result.Warnings, warn.Error())
	}
	result.RequestDate = pricing.FormatDate(date)

	normalized := s.resolver.NormalizeRequest(req.Text)
	in := QuoteInput{
		Text:        req.Text,
		RequestDate: result.RequestDate,
		Items:       s.resolver.ExtractItems(normalized),
		JobType:     req.JobType,
		EventType:   req.EventType,
	}
	if by, ok := resolver.ParseRequestedBy(req.Text, date); ok {
		in.RequestedBy = pricing.FormatDate(by)
	}
	log.Debug("request parsed", zap.String("normalized", normalized), zap.Int("items", len(in.Items)), zap.String("requested_by", in.RequestedBy))

	quote, d, err := s.quoteAndDecide(ctx, in)
	if err != nil {
		return nil, false, err
	}
	result.Quote = quote

	outcome, err := s.fulfillment.Execute(ctx, d, quote)
	if err != nil {
		return nil, false, err
	}
	if !outcome.Fulfilled && outcome.Reason == "" {
		outcome.Reason = decision.ReasonUnparseable
	}
	result.Outcome = outcome
	result.Action = outcome.Action
	result.Fulfilled = outcome.Fulfilled

	if outcome.Fulfilled {
		if err := s.quotes.RecordHistory(ctx, in, quote); err != nil {
			log.Warn("failed to archive quote", zap.Error(err))
		}
	}
	result.Response = renderResponse(outcome)

	fin, err := s.reports.FinancialReport(ctx, result.RequestDate)
	if err != nil {
		return nil, outcome.Fulfilled, err
	}
	result.Financials = fin

	log.Info("request handled",
		zap.String("decision", string(d.Action())),
		zap.String("outcome", string(outcome.Action)),
		zap.Bool("fulfilled", outcome.Fulfilled),
		zap.String("cash", fin.CashBalance.StringFixed(2)),
	)
	return result, outcome.Fulfilled, nil
}

// quoteAndDecide degrades every model or parsing failure into a refusal.
func (s *workflowService) quoteAndDecide(ctx context.Context, in QuoteInput) (*model.Quote, decision.Decision, error) {
	if len(in.Items) == 0 {
		q := &model.Quote{RequestDate: in.RequestDate, RequestedBy: in.RequestedBy}
		return q, decision.Refuse(decision.ReasonUnparseable, nil), nil
	}

	quote, err := s.quotes.BuildQuote(ctx, in)
	switch {
	case errors.Is(err, llm.ErrTimeout):
		s.log.Warn("quoting timed out", zap.Error(err))
		q := &model.Quote{RequestDate: in.RequestDate, RequestedBy: in.RequestedBy}
		return q, decision.Refuse(ReasonTimedOut, nil), nil
	case err != nil:
		return nil, nil, err
	}
	return quote, s.decider.Decide(ctx, quote), nil
}
