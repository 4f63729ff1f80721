package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

const rateScale = 8

// QtyScale: miktarların ondalık basamak sayısı (numeric(18,6) kolonlarıyla aynı).
// Teorik kullanım ve sapma miktarı bu ölçeğe yuvarlanır, maliyet yuvarlanmış miktardan hesaplanır.
const QtyScale = 6

var hundred = decimal.NewFromInt(100)

// Thresholds: sapma oranı eşikleri, oran olarak (0.05 = %5)
type Thresholds struct {
	Warning  decimal.Decimal `json:"warning"`
	Critical decimal.Decimal `json:"critical"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  decimal.New(5, -2),
		Critical: decimal.New(15, -2),
	}
}

// NewThresholds yüzde değerlerinden (5, 15) eşik üretir.
func NewThresholds(warningPct, criticalPct float64) (Thresholds, error) {
	t := Thresholds{
		Warning:  decimal.NewFromFloat(warningPct).Div(hundred),
		Critical: decimal.NewFromFloat(criticalPct).Div(hundred),
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

func (t Thresholds) Validate() error {
	if t.Warning.Sign() < 0 || t.Critical.Sign() < 0 {
		return fmt.Errorf("%w: eşikler negatif olamaz", ErrInvalidThresholds)
	}
	if !t.Warning.LessThan(t.Critical) {
		return fmt.Errorf("%w: uyarı eşiği (%s) kritik eşikten (%s) küçük olmalı",
			ErrInvalidThresholds, t.Warning, t.Critical)
	}
	return nil
}

// Classify: |oran| < uyarı -> normal, uyarı <= |oran| <= kritik -> warning, > kritik -> critical
func (t Thresholds) Classify(rate decimal.Decimal) Status {
	abs := rate.Abs()
	switch {
	case abs.LessThan(t.Warning):
		return StatusNormal
	case abs.LessThanOrEqual(t.Critical):
		return StatusWarning
	default:
		return StatusCritical
	}
}

// RecordedUsage: sistemin kaydettiği aylık malzeme kullanımı (BOM'dan türetilmez)
type RecordedUsage struct {
	MaterialNumber string          `json:"material_number"`
	StoreID        uint            `json:"store_id"`
	Period         Period          `json:"period"`
	Qty            decimal.Decimal `json:"qty"`
}

// InventoryCount: fiziki sayım. Aynı ay için birden fazla sayım toplanır.
type InventoryCount struct {
	MaterialNumber string          `json:"material_number"`
	StoreID        uint            `json:"store_id"`
	Period         Period          `json:"period"`
	CountedQty     decimal.Decimal `json:"counted_qty"`
}

// VarianceInput: tek malzeme/mağaza/dönem için önceden çözümlenmiş girdiler
type VarianceInput struct {
	MaterialNumber string
	StoreID        uint
	Period         Period
	Theoretical    decimal.Decimal
	Recorded       decimal.Decimal
	Counted        decimal.NullDecimal
	Price          decimal.NullDecimal
}

type VarianceRecord struct {
	MaterialNumber string              `json:"material_number"`
	StoreID        uint                `json:"store_id"`
	Period         Period              `json:"period"`
	TheoreticalQty decimal.Decimal     `json:"theoretical_qty"`
	RecordedQty    decimal.Decimal     `json:"recorded_qty"`
	CountedQty     decimal.NullDecimal `json:"counted_qty"`
	VarianceQty    decimal.Decimal     `json:"variance_qty"`
	VarianceRate   decimal.Decimal     `json:"variance_rate"`
	Price          decimal.NullDecimal `json:"price"`
	VarianceCost   decimal.NullDecimal `json:"variance_cost"`
	Status         Status              `json:"status"`
}

// ComputeVariance:
//
//	variance_qty  = kayıtlı - (teorik + sayım düzeltmesi)
//	variance_rate = variance_qty / kayıtlı (kayıtlı 0 ise 0)
//	variance_cost = variance_qty × fiyat (fiyat yoksa null)
//
// Sayım yoksa düzeltme 0 kabul edilir. Miktarlar QtyScale'e yuvarlanır.
func ComputeVariance(in VarianceInput, t Thresholds) VarianceRecord {
	theoretical := in.Theoretical.Round(QtyScale)
	recorded := in.Recorded.Round(QtyScale)
	counted := in.Counted
	if counted.Valid {
		counted = decimal.NewNullDecimal(counted.Decimal.Round(QtyScale))
	}

	adjustment := decimal.Zero
	if counted.Valid {
		adjustment = counted.Decimal
	}

	qty := recorded.Sub(theoretical.Add(adjustment))

	rate := decimal.Zero
	if !recorded.IsZero() {
		rate = qty.DivRound(recorded, rateScale)
	}

	rec := VarianceRecord{
		MaterialNumber: in.MaterialNumber,
		StoreID:        in.StoreID,
		Period:         in.Period,
		TheoreticalQty: theoretical,
		RecordedQty:    recorded,
		CountedQty:     counted,
		VarianceQty:    qty,
		VarianceRate:   rate,
		Price:          in.Price,
		Status:         t.Classify(rate),
	}
	if in.Price.Valid {
		rec.VarianceCost = decimal.NewNullDecimal(qty.Mul(in.Price.Decimal))
	}
	return rec
}
