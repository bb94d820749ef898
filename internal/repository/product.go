package repository

import (
	"context"
	"errors"

	"cart-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindBySku(ctx context.Context, sku string) (*model.Product, error)
	Exists(ctx context.Context, sku string) (bool, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{Sku: "ITEM001", Name: "Wireless Mouse", Price: decimal.RequireFromString("19.99"), Currency: "USD"},
		{Sku: "ITEM002", Name: "Mechanical Keyboard", Price: decimal.RequireFromString("89.50"), Currency: "USD"},
		{Sku: "ITEM003", Name: "USB-C Hub", Price: decimal.RequireFromString("34.00"), Currency: "USD"},
		{Sku: "ITEM004", Name: "27in Monitor", Price: decimal.RequireFromString("249.99"), Currency: "USD"},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindBySku(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) Exists(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("sku = ?", sku).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
