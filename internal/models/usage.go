package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialMonthlyUsage: stok sisteminin raporladığı aylık kullanım (reçeteden türetilmez)
type MaterialMonthlyUsage struct {
	ID             uint            `gorm:"primaryKey"`
	StoreID        uint            `gorm:"not null;uniqueIndex:idx_material_usage"`
	MaterialNumber string          `gorm:"size:50;not null;uniqueIndex:idx_material_usage"`
	Year           int             `gorm:"not null;uniqueIndex:idx_material_usage"`
	Month          int             `gorm:"not null;uniqueIndex:idx_material_usage"`
	Qty            decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InventoryCount: fiziki sayım kaydı. Aynı ay içinde birden fazla sayım olabilir, toplanır.
type InventoryCount struct {
	ID             uint            `gorm:"primaryKey"`
	StoreID        uint            `gorm:"not null;index:idx_inventory_count"`
	MaterialNumber string          `gorm:"size:50;not null;index:idx_inventory_count"`
	Year           int             `gorm:"not null;index:idx_inventory_count"`
	Month          int             `gorm:"not null;index:idx_inventory_count"`
	CountDate      time.Time       `gorm:"type:date;not null"`
	CountedQty     decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Note           string          `gorm:"size:255"`
	CreatedAt      time.Time
}
