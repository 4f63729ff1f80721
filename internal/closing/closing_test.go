package closing

import (
	"testing"
	"time"

	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAggregateScope(t *testing.T) {
	id := uint(7)
	if got := AggregateScope(costing.AggregateRow{StoreID: &id}); got != "store-7" {
		t.Fatalf("expected store-7, got %s", got)
	}
	if got := AggregateScope(costing.AggregateRow{}); got != "chain" {
		t.Fatalf("expected chain, got %s", got)
	}
}

func TestAggregateRowsCurrency(t *testing.T) {
	p := costing.Period{Year: 2025, Month: 5}
	id := uint(1)
	res := &costing.Result{
		Period: p,
		Aggregates: []costing.AggregateRow{
			{StoreID: &id, Period: p, Revenue: decimal.NewFromInt(3000)},
			{Period: p, Revenue: decimal.NewFromInt(570), ExchangeRate: decimal.NewNullDecimal(decimal.RequireFromString("0.19"))},
		},
	}

	rows := AggregateRows(res, "CNY", "CAD")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Scope != "store-1" || rows[0].Currency != "CNY" {
		t.Fatalf("unexpected store row: %+v", rows[0])
	}
	if rows[1].Scope != "chain" || rows[1].Currency != "CAD" || rows[1].StoreID != nil {
		t.Fatalf("unexpected chain row: %+v", rows[1])
	}

	// kur yoksa zincir satırı yerel para biriminde kalır
	res.Aggregates[1].ExchangeRate = decimal.NullDecimal{}
	rows = AggregateRows(res, "CNY", "CAD")
	if rows[1].Currency != "CNY" {
		t.Fatalf("expected unconverted chain row in CNY, got %s", rows[1].Currency)
	}
}

func TestVarianceRows(t *testing.T) {
	p := costing.Period{Year: 2025, Month: 5}
	res := &costing.Result{
		Period: p,
		Variances: []costing.VarianceRecord{{
			MaterialNumber: "M1",
			StoreID:        2,
			Period:         p,
			VarianceQty:    decimal.NewFromInt(20),
			VarianceRate:   decimal.RequireFromString("0.16666667"),
			Status:         costing.StatusCritical,
		}},
	}

	rows := VarianceRows(res)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Year != 2025 || r.Month != 5 || r.StoreID != 2 || r.MaterialNumber != "M1" {
		t.Fatalf("unexpected key columns: %+v", r)
	}
	if r.Status != models.VarianceCritical || r.VarianceCost.Valid {
		t.Fatalf("unexpected status/cost: %+v", r)
	}
}

func TestPriceRecordConverters(t *testing.T) {
	eff := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	m := MaterialPriceRecord(models.MaterialPriceHistory{
		ID: 42, StoreID: 1, MaterialNumber: "M1", Price: decimal.NewFromInt(12),
		Year: 2025, Month: 5, EffectiveDate: eff, IsActive: true,
	})
	if m.ItemID != "M1" || m.Seq != 42 || m.Period != (costing.Period{Year: 2025, Month: 5}) || !m.Active {
		t.Fatalf("unexpected material record: %+v", m)
	}

	d := DishPriceRecord(models.DishPriceHistory{ID: 3, StoreID: 1, DishCode: "D1", DishSize: "L", Year: 2025, Month: 5})
	if d.ItemID != "D1|L" {
		t.Fatalf("expected dish key D1|L, got %s", d.ItemID)
	}
	d = DishPriceRecord(models.DishPriceHistory{DishCode: "D1"})
	if d.ItemID != "D1" {
		t.Fatalf("expected dish key D1, got %s", d.ItemID)
	}
}

func TestWindowPeriods(t *testing.T) {
	got := windowPeriods(costing.Period{Year: 2025, Month: 1})
	want := []costing.Period{{Year: 2025, Month: 1}, {Year: 2024, Month: 12}, {Year: 2024, Month: 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("period %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestToRunResponseLogsCorruptIssues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	res := toRunResponse(models.CostingRun{ID: "run-1", Issues: `[{"code":`}, log)
	if res.Issues == nil || len(res.Issues) != 0 {
		t.Fatalf("expected empty issue list, got %v", res.Issues)
	}
	entries := logs.FilterField(zap.String("run_id", "run-1")).All()
	if len(entries) != 1 || entries[0].Level != zap.ErrorLevel {
		t.Fatalf("expected one error log for the run, got %d", len(entries))
	}

	res = toRunResponse(models.CostingRun{ID: "run-2", Issues: `[{"code":"price_not_found","store_id":1}]`}, log)
	if len(res.Issues) != 1 || res.Issues[0].Code != "price_not_found" {
		t.Fatalf("unexpected issues: %+v", res.Issues)
	}
	if logs.Len() != 1 {
		t.Fatalf("valid issues must not be logged, got %d entries", logs.Len())
	}
}
