// Package decision turns a consolidated quote into exactly one routing
// outcome: finalize, reorder then finalize, or refuse.
package decision

import (
	"fmt"
	"strings"

	"go-paper-orders/internal/model"
	"go-paper-orders/internal/pricing"
)

type Action string

const (
	ActionFinalize      Action = "FINALIZE_ORDER"
	ActionReorder       Action = "REORDER_STOCK"
	ActionCannotFulfill Action = "CANNOT_FULFILL"
)

func (a Action) Valid() bool {
	switch a {
	case ActionFinalize, ActionReorder, ActionCannotFulfill:
		return true
	}
	return false
}

const (
	ReasonUnparseable       = "unable to parse quote"
	ReasonInsufficientFunds = "insufficient funds"
)

// Decision is a closed set: FinalizeOrder, ReorderStock or CannotFulfill.
type Decision interface {
	Action() Action
	Lines() []model.QuoteLine
	decision()
}

type FinalizeOrder struct {
	Items []model.QuoteLine
}

type ReorderStock struct {
	Items []model.QuoteLine
}

type CannotFulfill struct {
	Reason string
	Items  []model.QuoteLine
}

func (FinalizeOrder) Action() Action { return ActionFinalize }
func (ReorderStock) Action() Action  { return ActionReorder }
func (CannotFulfill) Action() Action { return ActionCannotFulfill }

func (d FinalizeOrder) Lines() []model.QuoteLine { return d.Items }
func (d ReorderStock) Lines() []model.QuoteLine  { return d.Items }
func (d CannotFulfill) Lines() []model.QuoteLine { return d.Items }

func (FinalizeOrder) decision() {}
func (ReorderStock) decision()  {}
func (CannotFulfill) decision() {}

// Refuse is a CannotFulfill carrying reason.
func Refuse(reason string, lines []model.QuoteLine) Decision {
	return CannotFulfill{Reason: reason, Items: lines}
}

type LineState int

const (
	LineSufficient LineState = iota
	LineRecoverable
	LineUnrecoverable
)

func (s LineState) String() string {
	switch s {
	case LineSufficient:
		return "sufficient"
	case LineRecoverable:
		return "insufficient_recoverable"
	default:
		return "insufficient_unrecoverable"
	}
}

// Classify places one line in the per-line state machine. Without a
// customer deadline any shortfall is recoverable by reordering.
func Classify(line model.QuoteLine, requestedBy string) LineState {
	if line.NotFound {
		return LineUnrecoverable
	}
	if line.StockStatus == model.StockSufficient {
		return LineSufficient
	}
	if requestedBy == "" {
		return LineRecoverable
	}
	deadline, err := pricing.ParseDate(requestedBy)
	if err != nil {
		return LineUnrecoverable
	}
	delivery, err := pricing.ParseDate(line.DeliveryDate)
	if err != nil {
		return LineUnrecoverable
	}
	if delivery.After(deadline) {
		return LineUnrecoverable
	}
	return LineRecoverable
}

// Decide collapses the quote into one Decision. It never returns nil.
func Decide(q *model.Quote) Decision {
	if err := validateQuote(q); err != nil {
		var lines []model.QuoteLine
		if q != nil {
			lines = q.Lines
		}
		return Refuse(ReasonUnparseable, lines)
	}

	var missing, late []string
	allSufficient := true
	for _, line := range q.Lines {
		switch Classify(line, q.RequestedBy) {
		case LineSufficient:
		case LineRecoverable:
			allSufficient = false
		case LineUnrecoverable:
			allSufficient = false
			if line.NotFound {
				missing = append(missing, displayName(line))
			} else {
				late = append(late, fmt.Sprintf("%s (earliest delivery %s)", line.ItemName, line.DeliveryDate))
			}
		}
	}

	switch {
	case allSufficient:
		return FinalizeOrder{Items: q.Lines}
	case len(missing) == 0 && len(late) == 0:
		return ReorderStock{Items: q.Lines}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "we do not carry "+strings.Join(missing, ", "))
	}
	if len(late) > 0 {
		parts = append(parts, fmt.Sprintf("we cannot deliver %s by %s", strings.Join(late, ", "), q.RequestedBy))
	}
	return Refuse(strings.Join(parts, "; "), q.Lines)
}

func displayName(line model.QuoteLine) string {
	if line.RequestedPhrase != "" {
		return line.RequestedPhrase
	}
	return line.ItemName
}

func validateQuote(q *model.Quote) error {
	if q == nil || len(q.Lines) == 0 {
		return fmt.Errorf("%w: empty quote", ErrMalformedDecision)
	}
	if q.RequestedBy != "" {
		if _, err := pricing.ParseDate(q.RequestedBy); err != nil {
			return err
		}
	}
	for i, l := range q.Lines {
		if l.NotFound {
			if l.ItemName == "" && l.RequestedPhrase == "" {
				return fmt.Errorf("%w: line %d has no item", ErrMalformedDecision, i)
			}
			continue
		}
		if l.ItemName == "" || l.Quantity <= 0 {
			return fmt.Errorf("%w: line %d is incomplete", ErrMalformedDecision, i)
		}
		switch l.StockStatus {
		case model.StockSufficient:
		case model.StockInsufficient:
			if _, err := pricing.ParseDate(l.DeliveryDate); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: line %d has stock status %q", ErrMalformedDecision, i, l.StockStatus)
		}
	}
	return nil
}
