package decision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-paper-orders/internal/model"

	"github.com/shopspring/decimal"
)

var ErrMalformedDecision = errors.New("malformed decision response")

// wireDecision is the JSON shape the analysis worker is asked to produce.
type wireDecision struct {
	Action  Action       `json:"action"`
	Reason  string       `json:"reason,omitempty"`
	Details []wireDetail `json:"details"`
}

type wireDetail struct {
	ItemName    string           `json:"item_name"`
	Quantity    int              `json:"quantity"`
	TotalPrice  *decimal.Decimal `json:"total_price,omitempty"`
	RequestDate string           `json:"request_date,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}

// Parse reads a decision object, optionally wrapped in a markdown code
// fence. Anything else is ErrMalformedDecision.
func Parse(raw string) (Decision, error) {
	body := stripFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedDecision)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	var w wireDecision
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedDecision)
	}

	lines := make([]model.QuoteLine, 0, len(w.Details))
	for i, d := range w.Details {
		if strings.TrimSpace(d.ItemName) == "" {
			return nil, fmt.Errorf("%w: detail %d has no item_name", ErrMalformedDecision, i)
		}
		line := model.QuoteLine{ItemName: d.ItemName, Quantity: d.Quantity}
		if d.TotalPrice != nil {
			line.TotalPrice = *d.TotalPrice
		}
		lines = append(lines, line)
	}

	switch w.Action {
	case ActionFinalize, ActionReorder:
		if len(lines) == 0 {
			return nil, fmt.Errorf("%w: %s without details", ErrMalformedDecision, w.Action)
		}
		for i, l := range lines {
			if l.Quantity <= 0 {
				return nil, fmt.Errorf("%w: detail %d has quantity %d", ErrMalformedDecision, i, l.Quantity)
			}
		}
		if w.Action == ActionFinalize {
			return FinalizeOrder{Items: lines}, nil
		}
		return ReorderStock{Items: lines}, nil
	case ActionCannotFulfill:
		reason := strings.TrimSpace(w.Reason)
		for _, d := range w.Details {
			if reason == "" {
				reason = strings.TrimSpace(d.Reason)
			}
		}
		if reason == "" {
			return nil, fmt.Errorf("%w: CANNOT_FULFILL without reason", ErrMalformedDecision)
		}
		return CannotFulfill{Reason: reason, Items: lines}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrMalformedDecision, w.Action)
	}
}

// ParseOrRefuse never fails: malformed input becomes the standard refusal.
func ParseOrRefuse(raw string) Decision {
	d, err := Parse(raw)
	if err != nil {
		return Refuse(ReasonUnparseable, nil)
	}
	return d
}

// Bind replaces the sparse lines of a parsed decision with the matching
// lines of the quote it was made for. A decision naming items that are not
// in the quote is refused, and so is one the line rules do not allow:
// FINALIZE_ORDER needs every line in stock, REORDER_STOCK needs every short
// line deliverable by the deadline. A refusal from the model always stands.
func Bind(d Decision, q *model.Quote) Decision {
	if q == nil {
		return Refuse(ReasonUnparseable, nil)
	}
	if cf, ok := d.(CannotFulfill); ok {
		return CannotFulfill{Reason: cf.Reason, Items: q.Lines}
	}

	byName := make(map[string]bool, len(q.Lines))
	for _, l := range q.Lines {
		byName[strings.ToLower(l.ItemName)] = true
	}
	for _, l := range d.Lines() {
		if !byName[strings.ToLower(l.ItemName)] {
			return Refuse(ReasonUnparseable, q.Lines)
		}
	}

	rules := Decide(q)
	if cf, ok := rules.(CannotFulfill); ok {
		return cf
	}
	switch d.(type) {
	case FinalizeOrder:
		if _, ok := rules.(FinalizeOrder); !ok {
			return Refuse(ReasonUnparseable, q.Lines)
		}
		return FinalizeOrder{Items: q.Lines}
	default:
		return ReorderStock{Items: q.Lines}
	}
}

// Encode renders a decision in the wire shape, for logs and model prompts.
func Encode(d Decision) ([]byte, error) {
	w := wireDecision{Action: d.Action()}
	if cf, ok := d.(CannotFulfill); ok {
		w.Reason = cf.Reason
	}
	for _, l := range d.Lines() {
		price := l.TotalPrice
		w.Details = append(w.Details, wireDetail{ItemName: l.ItemName, Quantity: l.Quantity, TotalPrice: &price})
	}
	return json.Marshal(w)
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "```") {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
