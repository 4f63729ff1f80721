package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialPriceHistory: yürürlük tarihli malzeme fiyatı. Kayıtlar güncellenmez, yeni kayıt eklenir;
// aynı yürürlük tarihinde ID'si büyük olan (son yazılan) geçerlidir.
type MaterialPriceHistory struct {
	ID             uint            `gorm:"primaryKey"`
	StoreID        uint            `gorm:"not null;index:idx_material_price_lookup"`
	MaterialNumber string          `gorm:"size:50;not null;index:idx_material_price_lookup"`
	Price          decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Year           int             `gorm:"not null"`
	Month          int             `gorm:"not null"`
	EffectiveDate  time.Time       `gorm:"type:date;not null;index:idx_material_price_lookup"`
	IsActive       bool            `gorm:"not null;default:true"`
	Source         string          `gorm:"size:100"` // kaynak dosya / sistem
	CreatedAt      time.Time
}

// DishPriceHistory: yürürlük tarihli yemek satış fiyatı
type DishPriceHistory struct {
	ID            uint            `gorm:"primaryKey"`
	StoreID       uint            `gorm:"not null;index:idx_dish_price_lookup"`
	DishCode      string          `gorm:"size:50;not null;index:idx_dish_price_lookup"`
	DishSize      string          `gorm:"size:20;not null;default:'';index:idx_dish_price_lookup"`
	Price         decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Year          int             `gorm:"not null"`
	Month         int             `gorm:"not null"`
	EffectiveDate time.Time       `gorm:"type:date;not null;index:idx_dish_price_lookup"`
	IsActive      bool            `gorm:"not null;default:true"`
	Source        string          `gorm:"size:100"`
	CreatedAt     time.Time
}
