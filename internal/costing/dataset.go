package costing

import "github.com/shopspring/decimal"

type Store struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Material struct {
	Number    string `json:"number"`
	StoreID   uint   `json:"store_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Type      string `json:"type"`
	ChildType string `json:"child_type"`
}

type Dish struct {
	Ref         DishRef         `json:"ref"`
	StoreID     uint            `json:"store_id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	ServingSize decimal.Decimal `json:"serving_size"`
}

// ExchangeRate: zincir geneli aylık kur (yerel para -> raporlama para birimi)
type ExchangeRate struct {
	Period Period          `json:"period"`
	Rate   decimal.Decimal `json:"rate"`
}

// Dataset: bir hesaplama koşusunun salt-okunur girdi anlık görüntüsü.
// Dish fiyatlarında ItemID = DishRef.Key().
type Dataset struct {
	Stores         []Store
	Materials      []Material
	Dishes         []Dish
	MaterialPrices []PriceRecord
	DishPrices     []PriceRecord
	Bom            []BomEdge
	Sales          []DishSale
	Combos         []ComboSale
	Usage          []RecordedUsage
	Counts         []InventoryCount
	Rates          []ExchangeRate
}
