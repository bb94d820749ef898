package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        uint     `gorm:"primaryKey"`
	Username  string   `gorm:"size:64;uniqueIndex;not null"`
	Password  string   `gorm:"size:72;not null"`          // bcrypt hash
	Roles     []string `gorm:"serializer:json;type:text"` // USER, ADMIN (ROLE_ prefix allowed)
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	Sku      string          `gorm:"primaryKey;size:64;not null"`
	Name     string          `gorm:"size:128;not null"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency string          `gorm:"size:8;not null"`
}

// Cart is the per-owner aggregate. Version is bumped by every item write
// and delete so a clear can detect writes it has not seen.
type Cart struct {
	ID        uint       `gorm:"primaryKey"`
	Owner     string     `gorm:"size:64;uniqueIndex;not null"`
	Version   int64      `gorm:"not null"`
	Items     []CartItem `gorm:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	CartID    uint            `gorm:"primaryKey;autoIncrement:false"`
	Sku       string          `gorm:"primaryKey;size:64"`
	Quantity  int32           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"` // captured on first add
	Version   int64           `gorm:"not null"`
	Name      string          `gorm:"->;-:migration"` // product name, filled by Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}
