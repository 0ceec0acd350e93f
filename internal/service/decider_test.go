package service

import (
	"context"
	"testing"
	"time"

	"go-paper-orders/internal/decision"
	"go-paper-orders/internal/llm"
	"go-paper-orders/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestModelDecider(t *testing.T) {
	f := newFixture(t, "50000")
	q := &model.Quote{RequestDate: requestDate, Lines: []model.QuoteLine{a4Line(10, 500)}}

	cases := []struct {
		name       string
		capability llm.Capability
		action     decision.Action
		reason     string
	}{
		{
			name: "tool call then decision",
			capability: &scriptedCapability{responses: []llm.Response{
				{ToolCall: &llm.ToolCall{Name: "check_stock", Args: map[string]any{"item_name": "A4 paper", "as_of_date": requestDate}}},
				{Text: "```json\n{\"action\":\"FINALIZE_ORDER\",\"details\":[{\"item_name\":\"a4 paper\",\"quantity\":10}]}\n```"},
			}},
			action: decision.ActionFinalize,
		},
		{
			name:       "prose answer",
			capability: &scriptedCapability{responses: []llm.Response{{Text: "Sure, let's finalize it!"}}},
			action:     decision.ActionCannotFulfill,
			reason:     decision.ReasonUnparseable,
		},
		{
			name: "unknown item",
			capability: &scriptedCapability{responses: []llm.Response{
				{Text: `{"action":"FINALIZE_ORDER","details":[{"item_name":"Glitter paper","quantity":10}]}`},
			}},
			action: decision.ActionCannotFulfill,
			reason: decision.ReasonUnparseable,
		},
		{
			name:       "timeout",
			capability: blockingCapability{},
			action:     decision.ActionCannotFulfill,
			reason:     ReasonTimedOut,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decider := NewModelDecider(tc.capability, f.ledger, f.history, 50*time.Millisecond, 4, zap.NewNop())

			d := decider.Decide(context.Background(), q)
			require.NotNil(t, d)
			assert.Equal(t, tc.action, d.Action())
			assert.Equal(t, q.Lines, d.Lines())
			if cf, ok := d.(decision.CannotFulfill); ok {
				assert.Equal(t, tc.reason, cf.Reason)
			}
		})
	}
}

func TestWorkflow_ModelModeRefusesOnGarbage(t *testing.T) {
	f := newFixture(t, "50000")
	decider := NewModelDecider(&scriptedCapability{responses: []llm.Response{{Text: "{not json"}}}, f.ledger, f.history, time.Second, 2, zap.NewNop())

	res, err := f.workflow(nil, decider).HandleRequest(context.Background(), CustomerRequest{Text: "Please send 10 sheets of A4 paper.", Date: requestDate})
	require.NoError(t, err)
	assert.Equal(t, decision.ActionCannotFulfill, res.Action)
	assert.Equal(t, "We apologize, but we cannot fulfill your order. Reason: unable to parse quote.", res.Response)
	assert.Equal(t, 500, f.stock(t, "A4 paper", requestDate))
}

func TestModelDecider_CannotOverrideDeadline(t *testing.T) {
	f := newFixture(t, "50000")
	line := a4Line(2000, 500)
	line.DeliveryDate = "2025-04-08"
	q := &model.Quote{RequestDate: requestDate, RequestedBy: "2025-04-03", Lines: []model.QuoteLine{line}}

	for _, answer := range []string{
		`{"action":"REORDER_STOCK","details":[{"item_name":"A4 paper","quantity":2000}]}`,
		`{"action":"FINALIZE_ORDER","details":[{"item_name":"A4 paper","quantity":2000}]}`,
	} {
		capability := &scriptedCapability{responses: []llm.Response{{Text: answer}}}
		decider := NewModelDecider(capability, f.ledger, f.history, time.Second, 2, zap.NewNop())

		d := decider.Decide(context.Background(), q)
		require.IsType(t, decision.CannotFulfill{}, d)
		assert.Contains(t, d.(decision.CannotFulfill).Reason, "by 2025-04-03")

		out, err := f.fulfillment.Execute(context.Background(), d, q)
		require.NoError(t, err)
		assert.False(t, out.Fulfilled)
	}
	assert.Equal(t, 1, f.count(t, model.KindStockOrder))
	assert.Equal(t, 500, f.stock(t, "A4 paper", "2025-12-31"))
}

func TestWorkflow_ModelModeHonorsDeadline(t *testing.T) {
	f := newFixture(t, "50000")
	capability := &scriptedCapability{responses: []llm.Response{
		{Text: `{"action":"REORDER_STOCK","details":[{"item_name":"A4 paper","quantity":2000}]}`},
	}}
	decider := NewModelDecider(capability, f.ledger, f.history, time.Second, 2, zap.NewNop())

	res, err := f.workflow(nil, decider).HandleRequest(context.Background(), CustomerRequest{
		Text: "I need 2000 sheets of A4 paper by April 3, 2025.",
		Date: requestDate,
	})
	require.NoError(t, err)
	assert.Equal(t, decision.ActionCannotFulfill, res.Action)
	assert.False(t, res.Fulfilled)
	assert.Equal(t, 1, f.count(t, model.KindStockOrder))
}
