package service

import (
	"testing"

	"go-paper-orders/internal/decision"
	"go-paper-orders/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderResponse(t *testing.T) {
	lines := []model.QuoteLine{{
		ItemName:       "Cardstock",
		Quantity:       200,
		TotalPrice:     decimal.RequireFromString("31.2"),
		DiscountRate:   0.01,
		CommissionRate: model.CommissionRate,
		DeliveryDate:   "2025-04-05",
	}}

	fulfilled := renderResponse(&Outcome{Action: decision.ActionFinalize, Fulfilled: true, Lines: lines})
	assert.Equal(t, "Your order has been successfully processed. Here are the details:\n- 200 x Cardstock: $31.20, estimated delivery 2025-04-05\nTotal: $31.20", fulfilled)
	assert.NotContains(t, fulfilled, "0.05")

	replenished := renderResponse(&Outcome{
		Action: decision.ActionReorder, Fulfilled: true, Lines: lines,
		Reorders: []model.Transaction{*model.NewItemTransaction("Cardstock", model.KindStockOrder, 100, decimal.NewFromInt(15), "2025-04-01")},
	})
	assert.Contains(t, replenished, "Some items were temporarily out of stock.")

	refused := renderResponse(&Outcome{Action: decision.ActionCannotFulfill, Reason: "insufficient funds.", Lines: lines})
	assert.Equal(t, "We apologize, but we cannot fulfill your order. Reason: insufficient funds.", refused)
}
