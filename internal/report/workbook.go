package report

import (
	"fmt"

	"maliyet-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetVariance      = "Variance"
	sheetAggregates    = "Aggregates"
	sheetMaterialTypes = "MaterialTypes"
)

// Veri bir dönemin kalıcı satırlarıdır (sapma, aylık özet, tip kırılımı).
type Data struct {
	Variances     []models.MaterialVariance
	Aggregates    []models.MonthlyAggregate
	MaterialTypes []models.MaterialTypeCost
}

func num(d decimal.Decimal) any {
	return d.InexactFloat64()
}

func nullNum(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// BuildWorkbook: üç sayfalı kapanış raporu (Variance, Aggregates, MaterialTypes)
func BuildWorkbook(d Data) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetVariance); err != nil {
		return nil, err
	}
	for _, s := range []string{sheetAggregates, sheetMaterialTypes} {
		if _, err := f.NewSheet(s); err != nil {
			return nil, err
		}
	}

	vRows := make([][]any, 0, len(d.Variances))
	for _, v := range d.Variances {
		vRows = append(vRows, []any{
			v.StoreID, v.MaterialNumber,
			num(v.TheoreticalQty), num(v.RecordedQty), nullNum(v.CountedQty),
			num(v.VarianceQty), num(v.VarianceRate),
			nullNum(v.Price), nullNum(v.VarianceCost), string(v.Status),
		})
	}
	err := writeRows(f, sheetVariance, []any{
		"store_id", "material_number", "theoretical_qty", "recorded_qty", "counted_qty",
		"variance_qty", "variance_rate", "price", "variance_cost", "status",
	}, vRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sheetVariance, err)
	}

	aRows := make([][]any, 0, len(d.Aggregates))
	for _, a := range d.Aggregates {
		aRows = append(aRows, []any{
			a.Scope, a.Currency, num(a.Revenue), num(a.Cost), num(a.GrossMarginPct),
			nullNum(a.MomDeltaPct), nullNum(a.YoyDeltaPct),
			nullNum(a.MomMarginPts), nullNum(a.YoyMarginPts),
			nullNum(a.ExchangeRate), a.MissingPrices,
		})
	}
	err = writeRows(f, sheetAggregates, []any{
		"scope", "currency", "revenue", "cost", "gross_margin_pct",
		"mom_delta_pct", "yoy_delta_pct", "mom_margin_pts", "yoy_margin_pts",
		"exchange_rate", "missing_prices",
	}, aRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sheetAggregates, err)
	}

	tRows := make([][]any, 0, len(d.MaterialTypes))
	for _, m := range d.MaterialTypes {
		tRows = append(tRows, []any{
			m.StoreID, m.MaterialType, m.Materials,
			num(m.TheoreticalCost), num(m.VarianceCost), m.MissingPrices,
		})
	}
	err = writeRows(f, sheetMaterialTypes, []any{
		"store_id", "material_type", "materials", "theoretical_cost", "variance_cost", "missing_prices",
	}, tRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sheetMaterialTypes, err)
	}

	f.SetActiveSheet(0)
	return f, nil
}
