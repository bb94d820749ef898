package repository

import (
	"context"
	"errors"
	"time"

	"cart-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository is a versioned store. Every write is conditioned on the
// version the caller read; a mismatch yields ErrConflict and no change.
type CartRepository interface {
	GetCart(ctx context.Context, owner string) (*model.Cart, error)
	CreateCart(ctx context.Context, owner string) (*model.Cart, error)
	GetItem(ctx context.Context, cartID uint, sku string) (*model.CartItem, error)
	// PutItem inserts the item when expectedVersion is 0, otherwise updates
	// its quantity if the stored version equals expectedVersion.
	PutItem(ctx context.Context, item *model.CartItem, expectedVersion int64) error
	DeleteItem(ctx context.Context, cartID uint, sku string, expectedVersion int64) error
	DeleteCart(ctx context.Context, owner string, expectedVersion int64) error
	// Snapshot reads the cart and its items, ordered by sku and carrying the
	// product name, in one transaction.
	Snapshot(ctx context.Context, owner string) (*model.Cart, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) GetCart(ctx context.Context, owner string) (*model.Cart, error) {
	return findCart(r.db.WithContext(ctx), owner)
}

func (r *cartRepoImpl) CreateCart(ctx context.Context, owner string) (*model.Cart, error) {
	cart := &model.Cart{
		Owner:   owner,
		Version: 1,
	}

	// a concurrent creator may win the unique owner index; either way we
	// return the single row that exists afterwards
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner"}}, DoNothing: true}).
		Create(cart).Error
	if err != nil {
		return nil, err
	}

	return r.GetCart(ctx, owner)
}

func (r *cartRepoImpl) GetItem(ctx context.Context, cartID uint, sku string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND sku = ?", cartID, sku).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepoImpl) PutItem(ctx context.Context, item *model.CartItem, expectedVersion int64) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touchCart(tx, item.CartID, now); err != nil {
			return err
		}

		if expectedVersion == 0 {
			insert := *item
			insert.Version = 1
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&insert)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrConflict
			}
			item.Version = insert.Version
			return nil
		}

		result := tx.Model(&model.CartItem{}).
			Where("cart_id = ? AND sku = ? AND version = ?", item.CartID, item.Sku, expectedVersion).
			Updates(map[string]interface{}{
				"quantity":   item.Quantity,
				"version":    expectedVersion + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		item.Version = expectedVersion + 1
		return nil
	})
}

func (r *cartRepoImpl) DeleteItem(ctx context.Context, cartID uint, sku string, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touchCart(tx, cartID, time.Now()); err != nil {
			return err
		}

		result := tx.
			Where("cart_id = ? AND sku = ? AND version = ?", cartID, sku, expectedVersion).
			Delete(&model.CartItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		return nil
	})
}

func (r *cartRepoImpl) DeleteCart(ctx context.Context, owner string, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := findCart(tx, owner)
		if err != nil {
			return err
		}

		result := tx.
			Where("id = ? AND version = ?", cart.ID, expectedVersion).
			Delete(&model.Cart{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error
	})
}

func (r *cartRepoImpl) Snapshot(ctx context.Context, owner string) (*model.Cart, error) {
	var cart *model.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = findCart(tx, owner)
		if err != nil {
			return err
		}

		return tx.Model(&model.CartItem{}).
			Select("cart_items.*, COALESCE(products.name, '') AS name").
			Joins("LEFT JOIN products ON products.sku = cart_items.sku").
			Where("cart_items.cart_id = ?", cart.ID).
			Order("cart_items.sku").
			Find(&cart.Items).Error
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func findCart(db *gorm.DB, owner string) (*model.Cart, error) {
	var cart model.Cart
	err := db.Where("owner = ?", owner).First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &cart, nil
}

// touchCart bumps the cart version inside an item write. A cart deleted
// underneath the writer surfaces as ErrNotFound.
func touchCart(tx *gorm.DB, cartID uint, now time.Time) error {
	result := tx.Model(&model.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
