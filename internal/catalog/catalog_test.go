package catalog

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func expectBadRequest(t *testing.T, err error) {
	t.Helper()
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestValidateMaterial(t *testing.T) {
	body := CreateMaterialRequest{Number: " M1 ", Name: " Dana kıyma ", Unit: "kg", Type: " et "}
	if err := ValidateMaterial(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Number != "M1" || body.Name != "Dana kıyma" || body.Type != "et" {
		t.Fatalf("expected trimmed fields, got %+v", body)
	}

	expectBadRequest(t, ValidateMaterial(&CreateMaterialRequest{Number: "M1", Name: "x"}))
	expectBadRequest(t, ValidateMaterial(&CreateMaterialRequest{Name: "x", Unit: "kg"}))
}

func TestValidateDish(t *testing.T) {
	body := CreateDishRequest{Code: " D1 ", Size: " L ", Name: "Mantı", ServingSize: decimal.RequireFromString("0.35")}
	if err := ValidateDish(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Code != "D1" || body.Size != "L" {
		t.Fatalf("expected trimmed code and size, got %+v", body)
	}

	expectBadRequest(t, ValidateDish(&CreateDishRequest{Code: "D1"}))
	expectBadRequest(t, ValidateDish(&CreateDishRequest{Code: "D|1", Name: "x"}))
	expectBadRequest(t, ValidateDish(&CreateDishRequest{Code: "D1", Name: "x", ServingSize: decimal.NewFromInt(-1)}))
}

func TestValidateBomEdgeDefaultsRates(t *testing.T) {
	body := BomEdgeRequest{DishCode: "D1", MaterialNumber: "M1", StandardQty: decimal.RequireFromString("0.5")}
	if err := ValidateBomEdge(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !body.LossRate.Equal(one) || !body.UnitConversionRate.Equal(one) {
		t.Fatalf("expected zero rates to default to 1, got %s / %s", body.LossRate, body.UnitConversionRate)
	}

	expectBadRequest(t, ValidateBomEdge(&BomEdgeRequest{DishCode: "D1", MaterialNumber: "M1", StandardQty: decimal.NewFromInt(-1)}))
	expectBadRequest(t, ValidateBomEdge(&BomEdgeRequest{DishCode: "D1", MaterialNumber: "M1", LossRate: decimal.NewFromInt(-2)}))
	expectBadRequest(t, ValidateBomEdge(&BomEdgeRequest{MaterialNumber: "M1"}))
}

func TestParseBomRows(t *testing.T) {
	rows := [][]string{
		{"dish_code", "dish_size", "material_number", "standard_qty", "loss_rate", "unit_conversion_rate"},
		{"D1", "", "M1", "0,5", "1.1", ""},
		{"D1", "L", "M2", "abc"},
		{},
		{"D2", "", "", "1"},
		{"D3", "", "M1", "2", "", "1000"},
	}

	edges, rowErrs := ParseBomRows(rows)
	if len(edges) != 2 {
		t.Fatalf("expected 2 valid edges, got %d (%+v)", len(edges), edges)
	}
	if !edges[0].StandardQty.Equal(decimal.RequireFromString("0.5")) || !edges[0].UnitConversionRate.Equal(one) {
		t.Fatalf("unexpected first edge: %+v", edges[0])
	}
	if !edges[1].LossRate.Equal(one) || !edges[1].UnitConversionRate.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected second edge: %+v", edges[1])
	}

	if len(rowErrs) != 2 || rowErrs[0].Row != 3 || rowErrs[1].Row != 5 {
		t.Fatalf("expected errors on rows 3 and 5, got %+v", rowErrs)
	}
}
