package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dish: mağazaya özel yemek. Aynı kodun farklı porsiyonları ayrı satırdır.
type Dish struct {
	ID          uint            `gorm:"primaryKey"`
	StoreID     uint            `gorm:"not null;uniqueIndex:idx_dish_store_code_size"`
	Code        string          `gorm:"size:50;not null;uniqueIndex:idx_dish_store_code_size"`
	Size        string          `gorm:"size:20;not null;default:'';uniqueIndex:idx_dish_store_code_size"`
	Name        string          `gorm:"size:150;not null"`
	Unit        string          `gorm:"size:20"`
	ServingSize decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DishMaterial: reçete satırı (yemek -> malzeme). (mağaza, yemek, porsiyon, malzeme) tekildir.
type DishMaterial struct {
	ID                 uint            `gorm:"primaryKey"`
	StoreID            uint            `gorm:"not null;uniqueIndex:idx_bom_edge"`
	DishCode           string          `gorm:"size:50;not null;uniqueIndex:idx_bom_edge"`
	DishSize           string          `gorm:"size:20;not null;default:'';uniqueIndex:idx_bom_edge"`
	MaterialNumber     string          `gorm:"size:50;not null;uniqueIndex:idx_bom_edge;index"`
	StandardQty        decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	LossRate           decimal.Decimal `gorm:"type:numeric(18,6);not null;default:1"` // 1.0 = fire yok
	UnitConversionRate decimal.Decimal `gorm:"type:numeric(18,6);not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
