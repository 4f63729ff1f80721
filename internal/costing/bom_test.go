package costing

import (
	"errors"
	"testing"
)

func TestBomGraphRejectsDuplicateEdge(t *testing.T) {
	_, err := NewBomGraph([]BomEdge{
		edge("D", "M", 1, "0.5", "1", "1"),
		edge("D", "M", 1, "0.7", "1", "1"),
	})
	if !errors.Is(err, ErrDuplicateBomEdge) {
		t.Fatalf("expected ErrDuplicateBomEdge, got %v", err)
	}

	// aynı yemek/malzeme farklı mağazada serbest
	if _, err := NewBomGraph([]BomEdge{
		edge("D", "M", 1, "0.5", "1", "1"),
		edge("D", "M", 2, "0.5", "1", "1"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBomGraphDefaultsRates(t *testing.T) {
	g, err := NewBomGraph([]BomEdge{edge("D", "M", 1, "0.5", "0", "-2")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	edges := g.Edges(DishRef{Code: "D"}, 1)
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if !edges[0].LossRate.Equal(one) || !edges[0].UnitConversionRate.Equal(one) {
		t.Fatalf("expected defaults 1.0, got loss=%s conv=%s", edges[0].LossRate, edges[0].UnitConversionRate)
	}
	if g.HasDish(DishRef{Code: "D"}, 2) {
		t.Fatalf("edges must be store scoped")
	}
}

func TestDishRefKey(t *testing.T) {
	if k := (DishRef{Code: "D1"}).Key(); k != "D1" {
		t.Fatalf("got %s", k)
	}
	if k := (DishRef{Code: "D1", Size: "L"}).Key(); k != "D1|L" {
		t.Fatalf("got %s", k)
	}
}
