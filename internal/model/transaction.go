package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindStockOrder TransactionKind = "stock_orders"
	KindSale       TransactionKind = "sales"
)

// Valid reports whether k is one of the two ledger kinds.
func (k TransactionKind) Valid() bool {
	return k == KindStockOrder || k == KindSale
}

// Transaction is one immutable ledger row. Stock and cash are derived from
// these rows; nothing updates or deletes them. Cash-only rows (the opening
// balance, for instance) leave both ItemName and Units nil.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ItemName        *string         `gorm:"type:varchar(255);index" json:"item_name"`
	Kind            TransactionKind `gorm:"column:transaction_type;type:varchar(20);not null;index" json:"transaction_type" validate:"required,transaction_kind"`
	Units           *int            `json:"units"`
	Price           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	TransactionDate string          `gorm:"type:varchar(10);not null;index" json:"transaction_date" validate:"required,isodate"`
	Note            string          `gorm:"type:text" json:"note,omitempty"`
	CreatedBy       string          `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// NewItemTransaction builds a ledger row for an item movement.
func NewItemTransaction(itemName string, kind TransactionKind, units int, price decimal.Decimal, date string) *Transaction {
	return &Transaction{
		ItemName:        &itemName,
		Kind:            kind,
		Units:           &units,
		Price:           price,
		TransactionDate: date,
	}
}

// NewCashTransaction builds a cash-only ledger row.
func NewCashTransaction(kind TransactionKind, price decimal.Decimal, date string) *Transaction {
	return &Transaction{
		Kind:            kind,
		Price:           price,
		TransactionDate: date,
	}
}
