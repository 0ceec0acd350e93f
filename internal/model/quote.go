package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteRequest is a customer message as it arrived.
type QuoteRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	JobType   string    `gorm:"type:varchar(100)" json:"job_type,omitempty"`
	EventType string    `gorm:"type:varchar(100)" json:"event_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (QuoteRequest) TableName() string {
	return "quote_requests"
}

// HistoricalQuote is a past quote, joined to its request for loyalty lookups.
type HistoricalQuote struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	RequestID        uint            `gorm:"index;not null" json:"request_id"`
	Request          *QuoteRequest   `gorm:"foreignKey:RequestID" json:"-"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	QuoteExplanation string          `gorm:"type:text" json:"quote_explanation"`
	OrderDate        string          `gorm:"type:varchar(10);index" json:"order_date"`
	JobType          string          `gorm:"type:varchar(100)" json:"job_type,omitempty"`
	OrderSize        string          `gorm:"type:varchar(50)" json:"order_size,omitempty"`
	EventType        string          `gorm:"type:varchar(100)" json:"event_type,omitempty"`
}

func (HistoricalQuote) TableName() string {
	return "quotes"
}

// QuoteMatch is one row returned by a history search.
type QuoteMatch struct {
	OriginalRequest  string          `json:"original_request"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	QuoteExplanation string          `json:"quote_explanation"`
	JobType          string          `json:"job_type"`
	OrderSize        string          `json:"order_size"`
	EventType        string          `json:"event_type"`
	OrderDate        string          `json:"order_date"`
}

type StockStatus string

const (
	StockSufficient   StockStatus = "sufficient"
	StockInsufficient StockStatus = "insufficient"
)

const CommissionRate = 0.05

// QuoteLine is the priced estimate for one requested item. It is never
// persisted; only the ledger rows it leads to are.
type QuoteLine struct {
	ItemName        string          `json:"item_name"`
	RequestedPhrase string          `json:"requested_phrase,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	BasePrice       decimal.Decimal `json:"base_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	DiscountRate    float64         `json:"discount_rate"`
	CommissionRate  float64         `json:"commission_rate"`
	DeliveryDate    string          `json:"estimated_delivery_date"`
	CurrentStock    int             `json:"current_stock"`
	MinStockLevel   int             `json:"min_stock_level"`
	StockStatus     StockStatus     `json:"stock_status"`
	NotFound        bool            `json:"not_found,omitempty"`
	Note            string          `json:"note,omitempty"`
}

// Sufficient reports whether the line can be served from current stock.
func (l QuoteLine) Sufficient() bool {
	return !l.NotFound && l.StockStatus == StockSufficient
}

// Quote is the consolidated, ordered result for one request.
type Quote struct {
	RequestDate string      `json:"request_date"`
	RequestedBy string      `json:"requested_by,omitempty"`
	Lines       []QuoteLine `json:"lines"`
}

// Total sums the final price of every priced line.
func (q *Quote) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range q.Lines {
		if !l.NotFound {
			total = total.Add(l.TotalPrice)
		}
	}
	return total
}
