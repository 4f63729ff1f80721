package costing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var may = Period{Year: 2025, Month: 5}

func TestTheoreticalUsageScenario(t *testing.T) {
	g, _ := NewBomGraph([]BomEdge{edge("D", "M", 1, "0.5", "1.0", "2.0")})
	calc := NewCalculator(g, nil, zap.NewNop())

	got, issues := calc.TheoreticalUsage("M", 1, may, []DishSale{sale("D", 1, may, "100")}, nil)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if !got.Equal(dec("100")) {
		t.Fatalf("expected 100, got %s", got)
	}
}

func TestStoreUsageNetsReturnsAndKeepsGifts(t *testing.T) {
	g, _ := NewBomGraph([]BomEdge{edge("D", "M", 1, "1", "1", "1")})
	calc := NewCalculator(g, nil, zap.NewNop())

	s := sale("D", 1, may, "100")
	s.ReturnQty = dec("10")
	s.GiftQty = dec("5")

	if !s.RevenueQty().Equal(dec("85")) {
		t.Fatalf("revenue qty: expected 85, got %s", s.RevenueQty())
	}

	usage, _ := calc.StoreUsage(1, may, []DishSale{s}, nil)
	if !usage["M"].Qty.Equal(dec("90")) {
		t.Fatalf("expected 90 (gifts consume material), got %s", usage["M"].Qty)
	}
}

func TestFreeMealsConsumeButEarnNothing(t *testing.T) {
	g, _ := NewBomGraph([]BomEdge{edge("D", "M", 1, "1", "1", "1")})
	calc := NewCalculator(g, nil, zap.NewNop())

	s := sale("D", 1, may, "100")
	s.ReturnQty = dec("10")
	s.GiftQty = dec("5")
	s.FreeMealQty = dec("7")

	if !s.RevenueQty().Equal(dec("78")) {
		t.Fatalf("revenue qty: expected 78, got %s", s.RevenueQty())
	}
	usage, _ := calc.StoreUsage(1, may, []DishSale{s}, nil)
	if !usage["M"].Qty.Equal(dec("90")) {
		t.Fatalf("expected 90 (free meals consume material), got %s", usage["M"].Qty)
	}

	s.FreeMealQty = dec("200")
	if !s.RevenueQty().IsZero() {
		t.Fatalf("revenue qty must floor at 0, got %s", s.RevenueQty())
	}
}

func TestStoreUsageAddsCombosAndFiltersPartition(t *testing.T) {
	g, _ := NewBomGraph([]BomEdge{
		edge("D", "M", 1, "0.2", "1.5", "1"),
		edge("D", "M", 2, "9", "1", "1"),
	})
	calc := NewCalculator(g, nil, zap.NewNop())

	sales := []DishSale{
		sale("D", 1, may, "10"),
		sale("D", 2, may, "1000"),
		sale("D", 1, Period{Year: 2025, Month: 4}, "1000"),
	}
	combos := []ComboSale{{ComboCode: "SET1", Dish: DishRef{Code: "D"}, StoreID: 1, Period: may, Qty: dec("20")}}

	usage, _ := calc.StoreUsage(1, may, sales, combos)
	u := usage["M"]
	// 10×0.2×1.5 + 20×0.2×1.5 = 3 + 6
	if !u.Qty.Equal(dec("9")) {
		t.Fatalf("expected 9, got %s", u.Qty)
	}
	if len(u.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(u.Lines))
	}
	if u.Lines[0].Combo != "" || u.Lines[1].Combo != "SET1" {
		t.Fatalf("unexpected line order: %+v", u.Lines)
	}
}

func TestStoreUsageMissingBomContributesZero(t *testing.T) {
	g, _ := NewBomGraph([]BomEdge{edge("D", "M", 1, "1", "1", "1")})
	calc := NewCalculator(g, nil, zap.NewNop())

	sales := []DishSale{sale("D", 1, may, "5"), sale("X", 1, may, "7"), sale("X", 1, may, "3")}
	usage, issues := calc.StoreUsage(1, may, sales, nil)

	if !usage["M"].Qty.Equal(dec("5")) {
		t.Fatalf("expected 5, got %s", usage["M"].Qty)
	}
	if len(issues) != 1 {
		t.Fatalf("expected one issue per dish, got %d", len(issues))
	}
	if !errors.Is(issues[0], ErrBomEdgeMissing) || issues[0].ItemID != "X" {
		t.Fatalf("unexpected issue: %v", issues[0])
	}
}

func TestTheoreticalUsageNonNegative(t *testing.T) {
	g, _ := NewBomGraph([]BomEdge{
		edge("A", "M", 1, "0.125", "1.07", "1000"),
		edge("B", "M", 1, "0", "1", "1"),
		edge("C", "M", 1, "3", "0", "0"),
	})
	calc := NewCalculator(g, nil, zap.NewNop())
	for _, q := range []string{"0", "1", "17", "250.5"} {
		sales := []DishSale{sale("A", 1, may, q), sale("B", 1, may, q), sale("C", 1, may, q)}
		got, _ := calc.TheoreticalUsage("M", 1, may, sales, nil)
		if got.LessThan(decimal.Zero) {
			t.Fatalf("qty %s: negative usage %s", q, got)
		}
	}
}
