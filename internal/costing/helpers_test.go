package costing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func parseDay(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return v
}

func price(item string, store uint, p string, eff time.Time, seq int64) PriceRecord {
	return PriceRecord{
		ItemID:        item,
		StoreID:       store,
		Price:         dec(p),
		Period:        PeriodOf(eff),
		EffectiveDate: eff,
		Active:        true,
		Seq:           seq,
	}
}

func edge(dish string, material string, store uint, std, loss, conv string) BomEdge {
	return BomEdge{
		Dish:               DishRef{Code: dish},
		MaterialNumber:     material,
		StoreID:            store,
		StandardQty:        dec(std),
		LossRate:           dec(loss),
		UnitConversionRate: dec(conv),
	}
}

func sale(dish string, store uint, p Period, qty string) DishSale {
	return DishSale{
		Dish:      DishRef{Code: dish},
		StoreID:   store,
		Period:    p,
		Mode:      SalesModeDineIn,
		SaleQty:   dec(qty),
		ReturnQty: decimal.Zero,
		GiftQty:   decimal.Zero,
	}
}
