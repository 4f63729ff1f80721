package costing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// DishRef: mağaza içinde yemek kimliği (kod + porsiyon/boy)
type DishRef struct {
	Code string `json:"code"`
	Size string `json:"size"`
}

// Key yemek fiyat defterinde kullanılan kalem anahtarı.
func (d DishRef) Key() string {
	if d.Size == "" {
		return d.Code
	}
	return d.Code + "|" + d.Size
}

func (d DishRef) String() string { return d.Key() }

func dishLess(a, b DishRef) bool {
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	return a.Size < b.Size
}

// BomEdge: yemek -> malzeme reçete satırı.
// LossRate ve UnitConversionRate çarpandır, sıfır/negatif değer 1.0 kabul edilir.
type BomEdge struct {
	Dish               DishRef         `json:"dish"`
	MaterialNumber     string          `json:"material_number"`
	StoreID            uint            `json:"store_id"`
	StandardQty        decimal.Decimal `json:"standard_qty"`
	LossRate           decimal.Decimal `json:"loss_rate"`
	UnitConversionRate decimal.Decimal `json:"unit_conversion_rate"`
}

type dishStoreKey struct {
	dish    DishRef
	storeID uint
}

type edgeKey struct {
	dish     DishRef
	material string
	storeID  uint
}

// BomGraph: mağazaya özel iki parçalı yemek -> malzeme grafı
type BomGraph struct {
	byDish     map[dishStoreKey][]BomEdge
	byMaterial map[string][]BomEdge
}

func NewBomGraph(edges []BomEdge) (*BomGraph, error) {
	g := &BomGraph{
		byDish:     make(map[dishStoreKey][]BomEdge),
		byMaterial: make(map[string][]BomEdge),
	}

	seen := make(map[edgeKey]struct{}, len(edges))
	for _, e := range edges {
		k := edgeKey{dish: e.Dish, material: e.MaterialNumber, storeID: e.StoreID}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("%w: yemek=%s malzeme=%s mağaza=%d",
				ErrDuplicateBomEdge, e.Dish, e.MaterialNumber, e.StoreID)
		}
		seen[k] = struct{}{}

		e = normalizeEdge(e)
		dk := dishStoreKey{dish: e.Dish, storeID: e.StoreID}
		g.byDish[dk] = append(g.byDish[dk], e)
		g.byMaterial[e.MaterialNumber] = append(g.byMaterial[e.MaterialNumber], e)
	}

	for k := range g.byDish {
		sortEdges(g.byDish[k])
	}
	for k := range g.byMaterial {
		sortEdges(g.byMaterial[k])
	}
	return g, nil
}

func normalizeEdge(e BomEdge) BomEdge {
	if e.LossRate.Sign() <= 0 {
		e.LossRate = one
	}
	if e.UnitConversionRate.Sign() <= 0 {
		e.UnitConversionRate = one
	}
	return e
}

// sıralama: mağaza, malzeme, yemek
func sortEdges(edges []BomEdge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		if a.MaterialNumber != b.MaterialNumber {
			return a.MaterialNumber < b.MaterialNumber
		}
		return dishLess(a.Dish, b.Dish)
	})
}

// Edges get_bom_edges: yemeğin bu mağazadaki reçete satırları
func (g *BomGraph) Edges(dish DishRef, storeID uint) []BomEdge {
	return g.byDish[dishStoreKey{dish: dish, storeID: storeID}]
}

// MaterialEdges: tüm mağazalarda bu malzeme numarasına bağlanan satırlar
func (g *BomGraph) MaterialEdges(materialNumber string) []BomEdge {
	return g.byMaterial[materialNumber]
}

func (g *BomGraph) HasDish(dish DishRef, storeID uint) bool {
	return len(g.byDish[dishStoreKey{dish: dish, storeID: storeID}]) > 0
}

// MaterialNumbers: sıralı malzeme numaraları
func (g *BomGraph) MaterialNumbers() []string {
	out := make([]string, 0, len(g.byMaterial))
	for m := range g.byMaterial {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
