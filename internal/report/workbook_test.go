package report

import (
	"testing"

	"maliyet-backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestBuildWorkbook(t *testing.T) {
	id := uint(1)
	d := Data{
		Variances: []models.MaterialVariance{{
			Year: 2025, Month: 5, StoreID: 1, MaterialNumber: "M1",
			TheoreticalQty: decimal.NewFromInt(100),
			RecordedQty:    decimal.NewFromInt(120),
			VarianceQty:    decimal.NewFromInt(20),
			VarianceRate:   decimal.RequireFromString("0.16666667"),
			Price:          decimal.NewNullDecimal(decimal.NewFromInt(10)),
			VarianceCost:   decimal.NewNullDecimal(decimal.NewFromInt(200)),
			Status:         models.VarianceCritical,
		}},
		Aggregates: []models.MonthlyAggregate{
			{Year: 2025, Month: 5, Scope: "store-1", StoreID: &id, Currency: "CNY", Revenue: decimal.NewFromInt(3000)},
			{Year: 2025, Month: 5, Scope: "chain", Currency: "CAD", Revenue: decimal.NewFromInt(570)},
		},
		MaterialTypes: []models.MaterialTypeCost{{Year: 2025, Month: 5, StoreID: 1, MaterialType: "et", Materials: 1}},
	}

	f, err := BuildWorkbook(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != sheetVariance || sheets[1] != sheetAggregates || sheets[2] != sheetMaterialTypes {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	rows, err := f.GetRows(sheetVariance)
	if err != nil {
		t.Fatalf("read variance sheet: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != "material_number" || rows[1][1] != "M1" || rows[1][9] != "critical" {
		t.Fatalf("unexpected variance rows: %v", rows)
	}
	// sayım yok: hücre boş kalır
	if rows[1][4] != "" {
		t.Fatalf("expected empty counted_qty cell, got %q", rows[1][4])
	}

	rows, err = f.GetRows(sheetAggregates)
	if err != nil {
		t.Fatalf("read aggregates sheet: %v", err)
	}
	if len(rows) != 3 || rows[2][0] != "chain" || rows[2][1] != "CAD" {
		t.Fatalf("unexpected aggregate rows: %v", rows)
	}
}
