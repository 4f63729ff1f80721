package costing

import (
	"sort"

	"github.com/shopspring/decimal"
)

const pctScale = 4

// AggregateRow: mağaza (StoreID dolu) veya zincir (StoreID nil) aylık satırı.
// Mağaza satırları yerel para birimindedir; zincir satırı ayın kuru ile çevrilir.
type AggregateRow struct {
	StoreID        *uint               `json:"store_id"`
	Period         Period              `json:"period"`
	Revenue        decimal.Decimal     `json:"revenue"`
	Cost           decimal.Decimal     `json:"cost"`
	GrossMarginPct decimal.Decimal     `json:"gross_margin_pct"`
	MomDeltaPct    decimal.NullDecimal `json:"mom_delta_pct"`
	YoyDeltaPct    decimal.NullDecimal `json:"yoy_delta_pct"`
	MomMarginPts   decimal.NullDecimal `json:"mom_margin_pts"`
	YoyMarginPts   decimal.NullDecimal `json:"yoy_margin_pts"`
	ExchangeRate   decimal.NullDecimal `json:"exchange_rate"`
	MissingPrices  int                 `json:"missing_prices"`
}

func (r AggregateRow) IsChain() bool { return r.StoreID == nil }

// MaterialTypeRollup: malzeme tipi bazında maliyet ve sapma maliyeti toplamı
type MaterialTypeRollup struct {
	StoreID         uint            `json:"store_id"`
	Period          Period          `json:"period"`
	MaterialType    string          `json:"material_type"`
	Materials       int             `json:"materials"`
	TheoreticalCost decimal.Decimal `json:"theoretical_cost"`
	VarianceCost    decimal.Decimal `json:"variance_cost"`
	MissingPrices   int             `json:"missing_prices"`
}

// totals: bir mağaza/dönemin ham ciro ve maliyeti
type totals struct {
	revenue decimal.Decimal
	cost    decimal.Decimal
	missing int
}

func (t totals) add(o totals) totals {
	return totals{
		revenue: t.revenue.Add(o.revenue),
		cost:    t.cost.Add(o.cost),
		missing: t.missing + o.missing,
	}
}

// GrossMarginPct = (ciro - maliyet) / ciro × 100, ciro 0 ise 0
func GrossMarginPct(revenue, cost decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return revenue.Sub(cost).Mul(hundred).DivRound(revenue, pctScale)
}

// DeltaPct = (güncel - karşılaştırma) / karşılaştırma × 100.
// Karşılaştırma 0 ise null; güncel 0 ve karşılaştırma pozitifse -100.
func DeltaPct(current, comparison decimal.Decimal) decimal.NullDecimal {
	if comparison.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(current.Sub(comparison).Mul(hundred).DivRound(comparison.Abs(), pctScale))
}

// marginPts: brüt marj farkı (yüzde puan). Karşılaştırma dönemi cirosuz ise null.
func marginPts(current, comparison totals) decimal.NullDecimal {
	if comparison.revenue.IsZero() {
		return decimal.NullDecimal{}
	}
	cur := GrossMarginPct(current.revenue, current.cost)
	cmp := GrossMarginPct(comparison.revenue, comparison.cost)
	return decimal.NewNullDecimal(cur.Sub(cmp))
}

func buildRow(storeID *uint, p Period, cur, prev, prevYear totals) AggregateRow {
	return AggregateRow{
		StoreID:        storeID,
		Period:         p,
		Revenue:        cur.revenue,
		Cost:           cur.cost,
		GrossMarginPct: GrossMarginPct(cur.revenue, cur.cost),
		MomDeltaPct:    DeltaPct(cur.revenue, prev.revenue),
		YoyDeltaPct:    DeltaPct(cur.revenue, prevYear.revenue),
		MomMarginPts:   marginPts(cur, prev),
		YoyMarginPts:   marginPts(cur, prevYear),
		MissingPrices:  cur.missing,
	}
}

// convertRow: zincir satırının tutarlarını kur ile çevirir; oranlar değişmez.
func convertRow(r AggregateRow, rate decimal.Decimal) AggregateRow {
	r.Revenue = r.Revenue.Mul(rate)
	r.Cost = r.Cost.Mul(rate)
	r.ExchangeRate = decimal.NewNullDecimal(rate)
	return r
}

// rollupMaterialTypes: sapma kayıtlarını malzeme tipine göre toplar, tipe göre sıralı.
func rollupMaterialTypes(storeID uint, p Period, records []VarianceRecord, typeOf func(string) string) []MaterialTypeRollup {
	byType := make(map[string]*MaterialTypeRollup)
	for _, r := range records {
		t := typeOf(r.MaterialNumber)
		agg, ok := byType[t]
		if !ok {
			agg = &MaterialTypeRollup{
				StoreID:         storeID,
				Period:          p,
				MaterialType:    t,
				TheoreticalCost: decimal.Zero,
				VarianceCost:    decimal.Zero,
			}
			byType[t] = agg
		}
		agg.Materials++
		if !r.Price.Valid {
			agg.MissingPrices++
			continue
		}
		agg.TheoreticalCost = agg.TheoreticalCost.Add(r.TheoreticalQty.Mul(r.Price.Decimal))
		agg.VarianceCost = agg.VarianceCost.Add(r.VarianceCost.Decimal)
	}

	out := make([]MaterialTypeRollup, 0, len(byType))
	for _, agg := range byType {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialType < out[j].MaterialType })
	return out
}
