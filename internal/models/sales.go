package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesMode string

const (
	SalesModeDineIn  SalesMode = "dine_in"
	SalesModeTakeout SalesMode = "takeout"
)

// DishMonthlySale: aylık yemek satışı, (mağaza, yemek, porsiyon, yıl, ay, kanal) tekildir.
type DishMonthlySale struct {
	ID          uint            `gorm:"primaryKey"`
	StoreID     uint            `gorm:"not null;uniqueIndex:idx_dish_sale"`
	DishCode    string          `gorm:"size:50;not null;uniqueIndex:idx_dish_sale"`
	DishSize    string          `gorm:"size:20;not null;default:'';uniqueIndex:idx_dish_sale"`
	Year        int             `gorm:"not null;uniqueIndex:idx_dish_sale;index:idx_dish_sale_period"`
	Month       int             `gorm:"not null;uniqueIndex:idx_dish_sale;index:idx_dish_sale_period"`
	SalesMode   SalesMode       `gorm:"size:10;not null;uniqueIndex:idx_dish_sale"`
	SaleQty     decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`
	ReturnQty   decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`
	GiftQty     decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"` // ikram
	FreeMealQty decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"` // ücretsiz yemek
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComboDishSale: set menü içindeki yemeklerin aylık adedi
type ComboDishSale struct {
	ID        uint            `gorm:"primaryKey"`
	StoreID   uint            `gorm:"not null;uniqueIndex:idx_combo_sale"`
	ComboCode string          `gorm:"size:50;not null;uniqueIndex:idx_combo_sale"`
	DishCode  string          `gorm:"size:50;not null;uniqueIndex:idx_combo_sale"`
	DishSize  string          `gorm:"size:20;not null;default:'';uniqueIndex:idx_combo_sale"`
	Year      int             `gorm:"not null;uniqueIndex:idx_combo_sale"`
	Month     int             `gorm:"not null;uniqueIndex:idx_combo_sale"`
	Qty       decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
