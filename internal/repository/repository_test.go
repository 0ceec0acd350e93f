package repository

import (
	"context"
	"testing"

	"go-paper-orders/internal/model"
	"go-paper-orders/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", false, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func record(t *testing.T, repo LedgerRepository, item string, kind model.TransactionKind, units int, price, date string) uint {
	t.Helper()
	id, err := repo.Record(context.Background(), model.NewItemTransaction(item, kind, units, decimal.RequireFromString(price), date))
	require.NoError(t, err)
	return id
}
