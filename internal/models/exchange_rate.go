package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate: zincir geneli aylık kur, (yıl, ay) tekildir.
type ExchangeRate struct {
	ID           uint            `gorm:"primaryKey"`
	Year         int             `gorm:"not null;uniqueIndex:idx_exchange_rate_period"`
	Month        int             `gorm:"not null;uniqueIndex:idx_exchange_rate_period"`
	Rate         decimal.Decimal `gorm:"type:numeric(18,8);not null"`
	FromCurrency string          `gorm:"size:3;not null"`
	ToCurrency   string          `gorm:"size:3;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
