package costing

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Representative: aynı malzemeyi kullanan yemek varyantları arasından seçilen temsilci.
// Seçilen satırın UnitConversionRate değeri o dönem için zincir genelinde uygulanır.
type Representative struct {
	MaterialNumber string          `json:"material_number"`
	Edge           BomEdge         `json:"edge"`
	Contribution   decimal.Decimal `json:"contribution"`
	Candidates     int             `json:"candidates"`
	Fallback       bool            `json:"fallback"`
}

// SelectRepresentatives: dönüşüm oranı çelişen her malzeme için temsilci varyantı seçer.
// Katkı fiyata bağlı olduğu için her dönem ayrı hesaplanmalıdır.
func SelectRepresentatives(g *BomGraph, ledger *PriceLedger, p Period, log *zap.Logger) (map[string]Representative, []Issue) {
	reps := make(map[string]Representative)
	var issues []Issue

	for _, material := range g.MaterialNumbers() {
		candidates := g.MaterialEdges(material)
		if !hasConflictingConversion(candidates) {
			continue
		}

		price := func(e BomEdge) decimal.Decimal {
			v, err := ledger.ResolveForPeriod(material, e.StoreID, p)
			if err != nil {
				return decimal.Zero
			}
			return v
		}

		rep := selectRepresentative(material, candidates, price)
		reps[material] = rep

		log.Warn("temsilci ürün seçildi, dönüşüm oranları çelişiyor",
			zap.String("material", material),
			zap.String("period", p.String()),
			zap.Int("candidates", rep.Candidates),
			zap.String("dish", rep.Edge.Dish.Key()),
			zap.Uint("store_id", rep.Edge.StoreID),
			zap.Stringer("unit_conversion_rate", rep.Edge.UnitConversionRate),
			zap.Bool("fallback", rep.Fallback),
		)
		issues = append(issues, newIssue(ErrAmbiguousRepresentative, rep.Edge.StoreID, material, p,
			"%d aday arasından %s seçildi (katkı=%s, yedek kural=%t)",
			rep.Candidates, rep.Edge.Dish.Key(), rep.Contribution.String(), rep.Fallback))
	}

	return reps, issues
}

func hasConflictingConversion(edges []BomEdge) bool {
	if len(edges) < 2 {
		return false
	}
	first := edges[0].UnitConversionRate
	for _, e := range edges[1:] {
		if !e.UnitConversionRate.Equal(first) {
			return true
		}
	}
	return false
}

// selectRepresentative: katkı = standart miktar × fiyat, en büyük katkı kazanır.
// Tüm katkılar sıfırsa en büyük standart miktar seçilir. Eşitlikte ilk aday (sıralı) kalır.
func selectRepresentative(material string, candidates []BomEdge, price func(BomEdge) decimal.Decimal) Representative {
	best := -1
	bestContribution := decimal.Zero
	for i, e := range candidates {
		c := e.StandardQty.Mul(price(e))
		if best == -1 || c.GreaterThan(bestContribution) {
			best = i
			bestContribution = c
		}
	}

	rep := Representative{
		MaterialNumber: material,
		Candidates:     len(candidates),
	}

	if bestContribution.Sign() > 0 {
		rep.Edge = candidates[best]
		rep.Contribution = bestContribution
		return rep
	}

	// yedek kural: en büyük standart miktar
	best = 0
	for i, e := range candidates {
		if e.StandardQty.GreaterThan(candidates[best].StandardQty) {
			best = i
		}
	}
	rep.Edge = candidates[best]
	rep.Contribution = decimal.Zero
	rep.Fallback = true
	return rep
}
