package costing

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SalesMode string

const (
	SalesModeDineIn  SalesMode = "dine_in"
	SalesModeTakeout SalesMode = "takeout"
)

func (m SalesMode) Valid() bool {
	return m == SalesModeDineIn || m == SalesModeTakeout
}

// DishSale: aylık yemek satışı (mağaza + dönem + satış kanalı)
type DishSale struct {
	Dish        DishRef         `json:"dish"`
	StoreID     uint            `json:"store_id"`
	Period      Period          `json:"period"`
	Mode        SalesMode       `json:"sales_mode"`
	SaleQty     decimal.Decimal `json:"sale_qty"`
	ReturnQty   decimal.Decimal `json:"return_qty"`
	GiftQty     decimal.Decimal `json:"gift_qty"`
	FreeMealQty decimal.Decimal `json:"free_meal_qty"` // ücretsiz yemek: ciroya girmez, malzeme tüketir
}

// NetQty tüketimde kullanılan miktar: satış - iade. İkram ve ücretsiz yemek malzeme tükettiği için düşülmez.
func (s DishSale) NetQty() decimal.Decimal {
	return s.SaleQty.Sub(s.ReturnQty)
}

// RevenueQty ciroda kullanılan miktar: satış - iade - ikram - ücretsiz yemek, negatifse 0.
func (s DishSale) RevenueQty() decimal.Decimal {
	q := s.NetQty().Sub(s.GiftQty).Sub(s.FreeMealQty)
	if q.Sign() < 0 {
		return decimal.Zero
	}
	return q
}

// ComboSale: set menü içindeki bir yemeğin aylık adedi
type ComboSale struct {
	ComboCode string          `json:"combo_code"`
	Dish      DishRef         `json:"dish"`
	StoreID   uint            `json:"store_id"`
	Period    Period          `json:"period"`
	Qty       decimal.Decimal `json:"qty"`
}

// UsageLine: teorik kullanımın yemek bazlı kırılımı
type UsageLine struct {
	Dish  DishRef         `json:"dish"`
	Combo string          `json:"combo,omitempty"`
	Mode  SalesMode       `json:"sales_mode,omitempty"`
	Qty   decimal.Decimal `json:"qty"`
	Usage decimal.Decimal `json:"usage"`
}

// MaterialUsage: bir malzemenin mağaza/dönem teorik kullanımı
type MaterialUsage struct {
	MaterialNumber string          `json:"material_number"`
	StoreID        uint            `json:"store_id"`
	Period         Period          `json:"period"`
	Qty            decimal.Decimal `json:"qty"`
	Lines          []UsageLine     `json:"lines"`
}

// Calculator satışları reçete grafı üzerinden malzeme kullanımına çevirir.
// reps boş olabilir; doluysa ilgili malzemenin dönüşüm oranı temsilciden alınır.
type Calculator struct {
	graph *BomGraph
	reps  map[string]Representative
	log   *zap.Logger
}

func NewCalculator(g *BomGraph, reps map[string]Representative, log *zap.Logger) *Calculator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Calculator{graph: g, reps: reps, log: log}
}

func (c *Calculator) conversionRate(e BomEdge) decimal.Decimal {
	if rep, ok := c.reps[e.MaterialNumber]; ok {
		return rep.Edge.UnitConversionRate
	}
	return e.UnitConversionRate
}

// Contribution = net satış × standart miktar × fire oranı × dönüşüm oranı
func (c *Calculator) Contribution(qty decimal.Decimal, e BomEdge) decimal.Decimal {
	return qty.Mul(e.StandardQty).Mul(e.LossRate).Mul(c.conversionRate(e))
}

// StoreUsage: mağazanın dönemdeki tüm malzemeleri için teorik kullanım (QtyScale ölçeğinde).
// Başka mağaza/döneme ait satırlar yok sayılır. Reçetesi olmayan yemekler sıfır katkı yapar
// ve her (yemek, mağaza) için bir kez BomEdgeMissing olarak raporlanır.
func (c *Calculator) StoreUsage(storeID uint, p Period, sales []DishSale, combos []ComboSale) (map[string]*MaterialUsage, []Issue) {
	out := make(map[string]*MaterialUsage)
	var issues []Issue
	missing := make(map[string]struct{})

	add := func(dish DishRef, combo string, mode SalesMode, qty decimal.Decimal) {
		edges := c.graph.Edges(dish, storeID)
		if len(edges) == 0 {
			key := combo + "/" + dish.Key()
			if _, seen := missing[key]; seen {
				return
			}
			missing[key] = struct{}{}
			c.log.Warn("yemeğin reçetesi yok, tüketime katkısı sıfır",
				zap.Uint("store_id", storeID),
				zap.String("dish", dish.Key()),
				zap.String("combo", combo),
				zap.String("period", p.String()),
			)
			issues = append(issues, newIssue(ErrBomEdgeMissing, storeID, dish.Key(), p,
				"satılan yemeğin reçete satırı yok (set menü=%q)", combo))
			return
		}

		for _, e := range edges {
			u, ok := out[e.MaterialNumber]
			if !ok {
				u = &MaterialUsage{
					MaterialNumber: e.MaterialNumber,
					StoreID:        storeID,
					Period:         p,
					Qty:            decimal.Zero,
				}
				out[e.MaterialNumber] = u
			}
			usage := c.Contribution(qty, e)
			u.Qty = u.Qty.Add(usage)
			u.Lines = append(u.Lines, UsageLine{Dish: dish, Combo: combo, Mode: mode, Qty: qty, Usage: usage})
		}
	}

	for _, s := range sales {
		if s.StoreID != storeID || s.Period != p {
			continue
		}
		add(s.Dish, "", s.Mode, s.NetQty())
	}
	for _, cs := range combos {
		if cs.StoreID != storeID || cs.Period != p {
			continue
		}
		add(cs.Dish, cs.ComboCode, "", cs.Qty)
	}

	// satır katkıları tam tutulur, toplam miktar QtyScale'e yuvarlanır
	for _, u := range out {
		u.Qty = u.Qty.Round(QtyScale)
		sortUsageLines(u.Lines)
	}
	return out, issues
}

// TheoreticalUsage tek malzeme için StoreUsage kısayolu. Satışı olmayan malzeme için 0.
func (c *Calculator) TheoreticalUsage(material string, storeID uint, p Period, sales []DishSale, combos []ComboSale) (decimal.Decimal, []Issue) {
	all, issues := c.StoreUsage(storeID, p, sales, combos)
	if u, ok := all[material]; ok {
		return u.Qty, issues
	}
	return decimal.Zero, issues
}

func sortUsageLines(lines []UsageLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Combo != b.Combo {
			return a.Combo < b.Combo
		}
		if a.Dish != b.Dish {
			return dishLess(a.Dish, b.Dish)
		}
		return a.Mode < b.Mode
	})
}
