package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Türetilmiş tablolar yalnızca içerik kolonlarından oluşur (ID/zaman damgası yok);
// aynı girdilerle yeniden hesaplanan ay aynı satırları üretir.

type VarianceStatus string

const (
	VarianceNormal   VarianceStatus = "normal"
	VarianceWarning  VarianceStatus = "warning"
	VarianceCritical VarianceStatus = "critical"
)

type MaterialVariance struct {
	Year           int                 `gorm:"primaryKey;autoIncrement:false" json:"year"`
	Month          int                 `gorm:"primaryKey;autoIncrement:false" json:"month"`
	StoreID        uint                `gorm:"primaryKey;autoIncrement:false" json:"store_id"`
	MaterialNumber string              `gorm:"primaryKey;size:50" json:"material_number"`
	TheoreticalQty decimal.Decimal     `gorm:"type:numeric(18,6);not null" json:"theoretical_qty"`
	RecordedQty    decimal.Decimal     `gorm:"type:numeric(18,6);not null" json:"recorded_qty"`
	CountedQty     decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"counted_qty"`
	VarianceQty    decimal.Decimal     `gorm:"type:numeric(18,6);not null" json:"variance_qty"`
	VarianceRate   decimal.Decimal     `gorm:"type:numeric(18,8);not null" json:"variance_rate"`
	Price          decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"price"`
	VarianceCost   decimal.NullDecimal `gorm:"type:numeric(24,12)" json:"variance_cost"`
	Status         VarianceStatus      `gorm:"size:10;not null;index" json:"status"`
}

// MonthlyAggregate: Scope "store-<id>" veya "chain"
type MonthlyAggregate struct {
	Year           int                 `gorm:"primaryKey;autoIncrement:false" json:"year"`
	Month          int                 `gorm:"primaryKey;autoIncrement:false" json:"month"`
	Scope          string              `gorm:"primaryKey;size:20" json:"scope"`
	StoreID        *uint               `gorm:"index" json:"store_id"`
	Currency       string              `gorm:"size:3;not null" json:"currency"`
	Revenue        decimal.Decimal     `gorm:"type:numeric;not null" json:"revenue"` // zincir satırı kurla çarpıldığı için ölçeksiz
	Cost           decimal.Decimal     `gorm:"type:numeric;not null" json:"cost"`
	GrossMarginPct decimal.Decimal     `gorm:"type:numeric(12,4);not null" json:"gross_margin_pct"`
	MomDeltaPct    decimal.NullDecimal `gorm:"type:numeric(12,4)" json:"mom_delta_pct"`
	YoyDeltaPct    decimal.NullDecimal `gorm:"type:numeric(12,4)" json:"yoy_delta_pct"`
	MomMarginPts   decimal.NullDecimal `gorm:"type:numeric(12,4)" json:"mom_margin_pts"`
	YoyMarginPts   decimal.NullDecimal `gorm:"type:numeric(12,4)" json:"yoy_margin_pts"`
	ExchangeRate   decimal.NullDecimal `gorm:"type:numeric(18,8)" json:"exchange_rate"`
	MissingPrices  int                 `gorm:"not null;default:0" json:"missing_prices"`
}

type MaterialTypeCost struct {
	Year            int             `gorm:"primaryKey;autoIncrement:false" json:"year"`
	Month           int             `gorm:"primaryKey;autoIncrement:false" json:"month"`
	StoreID         uint            `gorm:"primaryKey;autoIncrement:false" json:"store_id"`
	MaterialType    string          `gorm:"primaryKey;size:50" json:"material_type"`
	Materials       int             `gorm:"not null" json:"materials"`
	TheoreticalCost decimal.Decimal `gorm:"type:numeric(24,12);not null" json:"theoretical_cost"`
	VarianceCost    decimal.Decimal `gorm:"type:numeric(24,12);not null" json:"variance_cost"`
	MissingPrices   int             `gorm:"not null;default:0" json:"missing_prices"`
}

type CostingRunStatus string

const (
	CostingRunRunning   CostingRunStatus = "running"
	CostingRunCompleted CostingRunStatus = "completed"
	CostingRunFailed    CostingRunStatus = "failed"
)

// CostingRun: aylık kapanış koşusu. Checksum türetilmiş satırların sha256 özetidir.
type CostingRun struct {
	ID             string           `gorm:"primaryKey;size:36" json:"id"`
	Year           int              `gorm:"not null;index:idx_costing_run_period" json:"year"`
	Month          int              `gorm:"not null;index:idx_costing_run_period" json:"month"`
	Status         CostingRunStatus `gorm:"size:20;not null" json:"status"`
	Checksum       string           `gorm:"size:64" json:"checksum"`
	VarianceCount  int              `json:"variance_count"`
	AggregateCount int              `json:"aggregate_count"`
	IssueCount     int              `json:"issue_count"`
	Issues         string           `gorm:"type:jsonb" json:"-"`
	Error          string           `gorm:"size:500" json:"error,omitempty"`
	StartedBy      uint             `json:"started_by"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     *time.Time       `json:"finished_at"`
}
