package closing

import (
	"fmt"

	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/models"

	"gorm.io/gorm"
)

func MaterialPriceRecord(h models.MaterialPriceHistory) costing.PriceRecord {
	return costing.PriceRecord{
		ItemID:        h.MaterialNumber,
		StoreID:       h.StoreID,
		Price:         h.Price,
		Period:        costing.Period{Year: h.Year, Month: h.Month},
		EffectiveDate: h.EffectiveDate,
		Active:        h.IsActive,
		Seq:           int64(h.ID),
	}
}

// DishPriceRecord: kalem anahtarı DishRef.Key() ("kod" veya "kod|porsiyon")
func DishPriceRecord(h models.DishPriceHistory) costing.PriceRecord {
	return costing.PriceRecord{
		ItemID:        costing.DishRef{Code: h.DishCode, Size: h.DishSize}.Key(),
		StoreID:       h.StoreID,
		Price:         h.Price,
		Period:        costing.Period{Year: h.Year, Month: h.Month},
		EffectiveDate: h.EffectiveDate,
		Active:        h.IsActive,
		Seq:           int64(h.ID),
	}
}

func bomEdge(m models.DishMaterial) costing.BomEdge {
	return costing.BomEdge{
		Dish:               costing.DishRef{Code: m.DishCode, Size: m.DishSize},
		MaterialNumber:     m.MaterialNumber,
		StoreID:            m.StoreID,
		StandardQty:        m.StandardQty,
		LossRate:           m.LossRate,
		UnitConversionRate: m.UnitConversionRate,
	}
}

func dishSale(s models.DishMonthlySale) costing.DishSale {
	return costing.DishSale{
		Dish:        costing.DishRef{Code: s.DishCode, Size: s.DishSize},
		StoreID:     s.StoreID,
		Period:      costing.Period{Year: s.Year, Month: s.Month},
		Mode:        costing.SalesMode(s.SalesMode),
		SaleQty:     s.SaleQty,
		ReturnQty:   s.ReturnQty,
		GiftQty:     s.GiftQty,
		FreeMealQty: s.FreeMealQty,
	}
}

func comboSale(s models.ComboDishSale) costing.ComboSale {
	return costing.ComboSale{
		ComboCode: s.ComboCode,
		Dish:      costing.DishRef{Code: s.DishCode, Size: s.DishSize},
		StoreID:   s.StoreID,
		Period:    costing.Period{Year: s.Year, Month: s.Month},
		Qty:       s.Qty,
	}
}

// windowPeriods: kapanış ayı, bir önceki ay ve geçen yılın aynı ayı
func windowPeriods(p costing.Period) []costing.Period {
	return []costing.Period{p, p.Prev(), p.PrevYear()}
}

// periodScope: (year, month) çiftlerinden birine uyan satırlar
func periodScope(db *gorm.DB, periods []costing.Period) *gorm.DB {
	q := db.Session(&gorm.Session{NewDB: true}).Where("1 = 0")
	for _, p := range periods {
		q = q.Or("year = ? AND month = ?", p.Year, p.Month)
	}
	return q
}

// LoadDataset: kapanış için gereken tüm girdileri tek okuma tutarlılığında yükler.
// Fiyatlar dönem sonuna kadar, satışlar/kullanım/sayım kapanış penceresi için okunur.
func LoadDataset(db *gorm.DB, p costing.Period) (costing.Dataset, error) {
	var ds costing.Dataset
	periods := windowPeriods(p)

	err := db.Transaction(func(tx *gorm.DB) error {
		var stores []models.Store
		if err := tx.Order("id").Find(&stores).Error; err != nil {
			return fmt.Errorf("mağazalar: %w", err)
		}
		for _, s := range stores {
			ds.Stores = append(ds.Stores, costing.Store{ID: s.ID, Code: s.Code, Name: s.Name})
		}

		var materials []models.Material
		if err := tx.Order("store_id, number").Find(&materials).Error; err != nil {
			return fmt.Errorf("malzemeler: %w", err)
		}
		for _, m := range materials {
			ds.Materials = append(ds.Materials, costing.Material{
				Number:    m.Number,
				StoreID:   m.StoreID,
				Name:      m.Name,
				Unit:      m.Unit,
				Type:      m.Type,
				ChildType: m.ChildType,
			})
		}

		var dishes []models.Dish
		if err := tx.Order("store_id, code, size").Find(&dishes).Error; err != nil {
			return fmt.Errorf("yemekler: %w", err)
		}
		for _, d := range dishes {
			ds.Dishes = append(ds.Dishes, costing.Dish{
				Ref:         costing.DishRef{Code: d.Code, Size: d.Size},
				StoreID:     d.StoreID,
				Name:        d.Name,
				Unit:        d.Unit,
				ServingSize: d.ServingSize,
			})
		}

		var mPrices []models.MaterialPriceHistory
		if err := tx.Where("effective_date <= ?", p.End()).Order("id").Find(&mPrices).Error; err != nil {
			return fmt.Errorf("malzeme fiyatları: %w", err)
		}
		for _, h := range mPrices {
			ds.MaterialPrices = append(ds.MaterialPrices, MaterialPriceRecord(h))
		}

		var dPrices []models.DishPriceHistory
		if err := tx.Where("effective_date <= ?", p.End()).Order("id").Find(&dPrices).Error; err != nil {
			return fmt.Errorf("yemek fiyatları: %w", err)
		}
		for _, h := range dPrices {
			ds.DishPrices = append(ds.DishPrices, DishPriceRecord(h))
		}

		var edges []models.DishMaterial
		if err := tx.Order("store_id, dish_code, dish_size, material_number").Find(&edges).Error; err != nil {
			return fmt.Errorf("reçeteler: %w", err)
		}
		for _, e := range edges {
			ds.Bom = append(ds.Bom, bomEdge(e))
		}

		var sales []models.DishMonthlySale
		if err := tx.Where(periodScope(tx, periods)).Order("id").Find(&sales).Error; err != nil {
			return fmt.Errorf("satışlar: %w", err)
		}
		for _, s := range sales {
			ds.Sales = append(ds.Sales, dishSale(s))
		}

		var combos []models.ComboDishSale
		if err := tx.Where(periodScope(tx, periods)).Order("id").Find(&combos).Error; err != nil {
			return fmt.Errorf("set menü satışları: %w", err)
		}
		for _, s := range combos {
			ds.Combos = append(ds.Combos, comboSale(s))
		}

		var usage []models.MaterialMonthlyUsage
		if err := tx.Where("year = ? AND month = ?", p.Year, p.Month).Order("id").Find(&usage).Error; err != nil {
			return fmt.Errorf("kayıtlı kullanım: %w", err)
		}
		for _, u := range usage {
			ds.Usage = append(ds.Usage, costing.RecordedUsage{
				MaterialNumber: u.MaterialNumber,
				StoreID:        u.StoreID,
				Period:         costing.Period{Year: u.Year, Month: u.Month},
				Qty:            u.Qty,
			})
		}

		var counts []models.InventoryCount
		if err := tx.Where("year = ? AND month = ?", p.Year, p.Month).Order("id").Find(&counts).Error; err != nil {
			return fmt.Errorf("sayımlar: %w", err)
		}
		for _, c := range counts {
			ds.Counts = append(ds.Counts, costing.InventoryCount{
				MaterialNumber: c.MaterialNumber,
				StoreID:        c.StoreID,
				Period:         costing.Period{Year: c.Year, Month: c.Month},
				CountedQty:     c.CountedQty,
			})
		}

		var rates []models.ExchangeRate
		if err := tx.Where(periodScope(tx, periods)).Find(&rates).Error; err != nil {
			return fmt.Errorf("kurlar: %w", err)
		}
		for _, r := range rates {
			ds.Rates = append(ds.Rates, costing.ExchangeRate{
				Period: costing.Period{Year: r.Year, Month: r.Month},
				Rate:   r.Rate,
			})
		}
		return nil
	})
	return ds, err
}
