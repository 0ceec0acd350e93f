package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ledgerEntry struct {
	Kind string `validate:"required,transaction_kind"`
	Date string `validate:"required,isodate"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      ledgerEntry
		wantTag string
	}{
		{"valid sale", ledgerEntry{Kind: "sales", Date: "2025-04-01"}, ""},
		{"valid stock order", ledgerEntry{Kind: "stock_orders", Date: "2025-04-01"}, ""},
		{"unknown kind", ledgerEntry{Kind: "refund", Date: "2025-04-01"}, "transaction_kind"},
		{"bad date", ledgerEntry{Kind: "sales", Date: "04/01/2025"}, "isodate"},
		{"missing kind", ledgerEntry{Date: "2025-04-01"}, "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.in)
			if tt.wantTag == "" {
				assert.Empty(t, errs)
				return
			}
			if assert.Len(t, errs, 1) {
				assert.Equal(t, tt.wantTag, errs[0].Tag)
			}
		})
	}
}
