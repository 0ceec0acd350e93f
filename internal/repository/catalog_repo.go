package repository

import (
	"context"
	"errors"
	"fmt"

	"go-paper-orders/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrItemNotFound = errors.New("item not found in catalog")
	ErrNotStocked   = errors.New("item has no inventory record")
)

type CatalogRepository interface {
	SeedDefaults(ctx context.Context) error
	Create(ctx context.Context, item *model.CatalogItem) error
	FindAll(ctx context.Context) ([]model.CatalogItem, error)
	FindByName(ctx context.Context, name string) (*model.CatalogItem, error)
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db}
}

// SeedDefaults inserts every DefaultCatalog item that is not there yet.
func (r *catalogRepo) SeedDefaults(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	for _, item := range model.DefaultCatalog {
		var existing model.CatalogItem
		err := db.Where("name = ?", item.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to seed %q: %w", item.Name, err)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *catalogRepo) Create(ctx context.Context, item *model.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindAll returns the catalog in canonical order.
func (r *catalogRepo) FindAll(ctx context.Context) ([]model.CatalogItem, error) {
	var items []model.CatalogItem
	err := r.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

// FindByName matches the canonical name case-insensitively.
func (r *catalogRepo) FindByName(ctx context.Context, name string) (*model.CatalogItem, error) {
	var item model.CatalogItem
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

type InventoryRepository interface {
	WithTx(tx *gorm.DB) InventoryRepository
	Create(ctx context.Context, item *model.InventoryItem) error
	FindAll(ctx context.Context) ([]model.InventoryItem, error)
	FindByItemName(ctx context.Context, name string) (*model.InventoryItem, error)
	LockByItemName(ctx context.Context, name string) (*model.InventoryItem, error)
	Count(ctx context.Context) (int64, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) WithTx(tx *gorm.DB) InventoryRepository {
	return &inventoryRepo{tx}
}

func (r *inventoryRepo) Create(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *inventoryRepo) FindAll(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).Order("item_name ASC").Find(&items).Error
	return items, err
}

func (r *inventoryRepo) FindByItemName(ctx context.Context, name string) (*model.InventoryItem, error) {
	return r.find(r.db.WithContext(ctx), name)
}

// LockByItemName is FindByItemName with a row lock; drivers without row
// locks (SQLite) drop the clause.
func (r *inventoryRepo) LockByItemName(ctx context.Context, name string) (*model.InventoryItem, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), name)
}

func (r *inventoryRepo) find(db *gorm.DB, name string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := db.Where("item_name = ?", name).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotStocked, name)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.InventoryItem{}).Count(&n).Error
	return n, err
}
