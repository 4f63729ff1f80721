package costing

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var april = Period{Year: 2025, Month: 4}

func testDataset() Dataset {
	return Dataset{
		Stores: []Store{{ID: 2, Code: "S2", Name: "Şube 2"}, {ID: 1, Code: "S1", Name: "Şube 1"}},
		Materials: []Material{
			{Number: "M1", StoreID: 1, Type: "et"},
			{Number: "M2", StoreID: 1, Type: "sebze"},
			{Number: "M1", StoreID: 2, Type: "et"},
		},
		MaterialPrices: []PriceRecord{
			price("M1", 1, "10", day(2025, 4, 1), 1),
			price("M1", 2, "10", day(2025, 4, 1), 2),
		},
		DishPrices: []PriceRecord{
			price("D", 1, "30", day(2025, 1, 1), 1),
			price("D", 2, "30", day(2025, 1, 1), 2),
		},
		Bom: []BomEdge{
			edge("D", "M1", 1, "0.5", "1", "2"),
			edge("D", "M2", 1, "1", "1.1", "1"),
			edge("D", "M1", 2, "0.5", "1", "2"),
		},
		Sales: []DishSale{
			sale("D", 1, may, "100"),
			sale("D", 1, april, "50"),
			sale("D", 2, april, "20"),
		},
		Usage: []RecordedUsage{
			{MaterialNumber: "M1", StoreID: 1, Period: may, Qty: dec("120")},
		},
		Rates: []ExchangeRate{{Period: may, Rate: dec("0.19")}},
	}
}

func newTestEngine(t *testing.T, parallelism int) *Engine {
	t.Helper()
	e, err := NewEngine(testDataset(), Options{Parallelism: parallelism, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func TestEngineVariance(t *testing.T) {
	e := newTestEngine(t, 1)

	usage, err := e.TheoreticalUsage("M1", 1, may)
	if err != nil || !usage.Equal(dec("100")) {
		t.Fatalf("expected 100, got %s (%v)", usage, err)
	}

	rec, err := e.ComputeVariance("M1", 1, may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.VarianceQty.Equal(dec("20")) || rec.Status != StatusCritical {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.VarianceCost.Decimal.Equal(dec("200")) {
		t.Fatalf("expected cost 200, got %s", rec.VarianceCost.Decimal)
	}

	records, issues, err := e.StoreVariance(1, may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].MaterialNumber != "M1" || records[1].MaterialNumber != "M2" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[1].VarianceCost.Valid {
		t.Fatalf("M2 has no price, cost must be null")
	}
	if !records[1].VarianceQty.Equal(dec("-110")) {
		t.Fatalf("expected -110, got %s", records[1].VarianceQty)
	}
	found := false
	for _, is := range issues {
		if errors.Is(is, ErrPriceNotFound) && is.ItemID == "M2" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected price_not_found issue for M2, got %v", issues)
	}
}

func TestEngineUnknownStore(t *testing.T) {
	e := newTestEngine(t, 1)
	if _, err := e.AggregateStoreMonth(99, may); !errors.Is(err, ErrUnknownStore) {
		t.Fatalf("expected ErrUnknownStore, got %v", err)
	}
	if _, err := e.TheoreticalUsage("M1", 1, Period{Year: 2025, Month: 13}); !errors.Is(err, ErrInconsistentPeriod) {
		t.Fatalf("expected ErrInconsistentPeriod, got %v", err)
	}
}

func TestAggregateStoreMonth(t *testing.T) {
	e := newTestEngine(t, 1)

	row, err := e.AggregateStoreMonth(1, may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.Revenue.Equal(dec("3000")) || !row.Cost.Equal(dec("1000")) {
		t.Fatalf("unexpected totals: revenue=%s cost=%s", row.Revenue, row.Cost)
	}
	if !row.GrossMarginPct.Equal(dec("66.6667")) {
		t.Fatalf("expected margin 66.6667, got %s", row.GrossMarginPct)
	}
	if !row.MomDeltaPct.Valid || !row.MomDeltaPct.Decimal.Equal(dec("100")) {
		t.Fatalf("expected MoM 100, got %+v", row.MomDeltaPct)
	}
	if row.YoyDeltaPct.Valid {
		t.Fatalf("no sales last year, YoY must be null")
	}
	if row.MissingPrices != 1 {
		t.Fatalf("expected 1 missing price (M2), got %d", row.MissingPrices)
	}
	if row.ExchangeRate.Valid {
		t.Fatalf("store rows stay in local currency")
	}
}

func TestAggregateZeroRevenue(t *testing.T) {
	e := newTestEngine(t, 1)

	row, err := e.AggregateStoreMonth(2, may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.GrossMarginPct.IsZero() {
		t.Fatalf("expected margin 0, got %s", row.GrossMarginPct)
	}
	if !row.MomDeltaPct.Valid || !row.MomDeltaPct.Decimal.Equal(dec("-100")) {
		t.Fatalf("expected MoM -100, got %+v", row.MomDeltaPct)
	}

	// önceki ay cirosu 0 -> null
	row, _ = e.AggregateStoreMonth(2, april)
	if row.MomDeltaPct.Valid {
		t.Fatalf("comparison revenue 0 must give null, got %s", row.MomDeltaPct.Decimal)
	}
}

func TestAggregateChainMonth(t *testing.T) {
	e := newTestEngine(t, 1)

	rows, err := e.AggregateChainMonth(may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 2 store rows + chain row, got %d", len(rows))
	}
	if *rows[0].StoreID != 1 || *rows[1].StoreID != 2 || !rows[2].IsChain() {
		t.Fatalf("unexpected row order")
	}

	chain := rows[2]
	if !chain.Revenue.Equal(dec("570")) || !chain.Cost.Equal(dec("190")) {
		t.Fatalf("expected converted 570/190, got %s/%s", chain.Revenue, chain.Cost)
	}
	if !chain.ExchangeRate.Valid || !chain.ExchangeRate.Decimal.Equal(dec("0.19")) {
		t.Fatalf("expected rate 0.19, got %+v", chain.ExchangeRate)
	}
	if !chain.GrossMarginPct.Equal(dec("66.6667")) {
		t.Fatalf("expected margin 66.6667, got %s", chain.GrossMarginPct)
	}
	if !chain.MomDeltaPct.Decimal.Equal(dec("42.8571")) {
		t.Fatalf("expected MoM 42.8571, got %s", chain.MomDeltaPct.Decimal)
	}

	// kur yoksa çevrilmez
	rows, _ = e.AggregateChainMonth(april)
	if rows[2].ExchangeRate.Valid || !rows[2].Revenue.Equal(dec("2100")) {
		t.Fatalf("expected unconverted 2100, got %s", rows[2].Revenue)
	}
}

func TestMaterialTypeRollups(t *testing.T) {
	e := newTestEngine(t, 1)
	rollups, err := e.MaterialTypeRollups(1, may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rollups) != 2 || rollups[0].MaterialType != "et" || rollups[1].MaterialType != "sebze" {
		t.Fatalf("unexpected rollups: %+v", rollups)
	}
	if !rollups[0].TheoreticalCost.Equal(dec("1000")) || !rollups[0].VarianceCost.Equal(dec("200")) {
		t.Fatalf("unexpected et rollup: %+v", rollups[0])
	}
	if rollups[1].MissingPrices != 1 {
		t.Fatalf("expected missing price on sebze")
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	first, err := newTestEngine(t, 1).Recompute(may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum1, _ := Checksum(first)

	for _, parallelism := range []int{1, 2, 8} {
		e := newTestEngine(t, parallelism)
		for i := 0; i < 2; i++ {
			res, err := e.Recompute(may)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			sum, _ := Checksum(res)
			if sum != sum1 {
				t.Fatalf("parallelism %d run %d: checksum changed", parallelism, i)
			}
			a, _ := json.Marshal(first.Variances)
			b, _ := json.Marshal(res.Variances)
			if !bytes.Equal(a, b) {
				t.Fatalf("variance rows differ")
			}
		}
	}
}

func TestRecomputeCollectsIssues(t *testing.T) {
	ds := testDataset()
	ds.Sales = append(ds.Sales, sale("X", 1, may, "4"))
	bad := price("M1", 1, "99", day(2025, 6, 3), 9)
	bad.Period = may
	ds.MaterialPrices = append(ds.MaterialPrices, bad)

	e, err := NewEngine(ds, Options{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := e.Recompute(may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	codes := map[string]int{}
	for _, is := range res.Issues {
		codes[is.Code]++
	}
	// fiyat eksikleri: M2 malzemesi ve X yemeği
	if codes["bom_edge_missing"] != 1 || codes["inconsistent_period"] != 1 || codes["price_not_found"] != 2 {
		t.Fatalf("unexpected issue codes: %v", codes)
	}
	if len(res.Variances) != 2 || len(res.Aggregates) != 3 {
		t.Fatalf("partial data must not blank the month: %d variances, %d aggregates",
			len(res.Variances), len(res.Aggregates))
	}
}

func TestRecomputeReportsLoadIssuesTaggedToOtherPeriods(t *testing.T) {
	ds := testDataset()
	// mart etiketli ama nisanda geçerli fiyat mayıs kapanışının anlık görüntüsüne girer
	bad := price("M1", 1, "11", day(2025, 4, 10), 7)
	bad.Period = Period{Year: 2025, Month: 3}
	ds.MaterialPrices = append(ds.MaterialPrices, bad)

	core, logs := observer.New(zap.WarnLevel)
	e, err := NewEngine(ds, Options{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(e.LoadIssues()); n != 1 {
		t.Fatalf("expected 1 load issue, got %d", n)
	}
	if n := logs.FilterMessage("kayıt reddedildi").Len(); n != 1 {
		t.Fatalf("expected the rejection to be logged once, got %d", n)
	}

	res, err := e.Recompute(may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := 0
	for _, is := range res.Issues {
		if is.Code == "inconsistent_period" && is.ItemID == "M1" {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected 1 inconsistent_period issue in the May run, got %d: %v", found, res.Issues)
	}
}

func TestRecomputeVarianceCostMatchesRoundedQty(t *testing.T) {
	ds := Dataset{
		Stores:         []Store{{ID: 1, Code: "S1", Name: "Şube 1"}},
		Materials:      []Material{{Number: "M", StoreID: 1, Type: "et"}},
		MaterialPrices: []PriceRecord{price("M", 1, "3.333333", day(2025, 5, 1), 1)},
		DishPrices:     []PriceRecord{price("F", 1, "20", day(2025, 5, 1), 1)},
		Bom:            []BomEdge{edge("F", "M", 1, "0.333333", "1.05", "1.5")},
		Sales:          []DishSale{sale("F", 1, may, "7")},
		Usage:          []RecordedUsage{{MaterialNumber: "M", StoreID: 1, Period: may, Qty: dec("5")}},
	}
	e, err := NewEngine(ds, Options{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := e.Recompute(may)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Variances) != 1 {
		t.Fatalf("expected 1 variance, got %d", len(res.Variances))
	}

	rec := res.Variances[0]
	// 7 × 0.333333 × 1.05 × 1.5 = 3.674996325
	if !rec.TheoreticalQty.Equal(dec("3.674996")) {
		t.Fatalf("theoretical: expected 3.674996, got %s", rec.TheoreticalQty)
	}
	if !rec.VarianceQty.Equal(dec("1.325004")) {
		t.Fatalf("variance qty: expected 1.325004, got %s", rec.VarianceQty)
	}
	if !rec.VarianceQty.Equal(rec.VarianceQty.Round(QtyScale)) {
		t.Fatalf("variance qty exceeds the stored scale: %s", rec.VarianceQty)
	}
	want := rec.VarianceQty.Mul(rec.Price.Decimal)
	if !rec.VarianceCost.Valid || !rec.VarianceCost.Decimal.Equal(want) {
		t.Fatalf("variance cost: expected %s, got %+v", want, rec.VarianceCost)
	}
	if rec.VarianceCost.Decimal.Exponent() < -2*QtyScale {
		t.Fatalf("variance cost does not fit numeric(24,12): %s", rec.VarianceCost.Decimal)
	}
}

func TestNewEngineRejectsBadThresholds(t *testing.T) {
	_, err := NewEngine(testDataset(), Options{Thresholds: Thresholds{Warning: dec("0.2"), Critical: decimal.Zero}})
	if !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("expected ErrInvalidThresholds, got %v", err)
	}
}
