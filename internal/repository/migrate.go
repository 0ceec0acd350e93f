package repository

import (
	"go-paper-orders/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.CatalogItem{},
		&model.InventoryItem{},
		&model.Transaction{},
		&model.QuoteRequest{},
		&model.HistoricalQuote{},
	)
}
