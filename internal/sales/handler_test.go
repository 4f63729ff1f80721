package sales

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func TestValidateDishSale(t *testing.T) {
	ok := DishSaleLine{DishCode: " D1 ", SalesMode: "dine_in", SaleQty: decimal.NewFromInt(100), ReturnQty: decimal.NewFromInt(2), GiftQty: decimal.NewFromInt(3), FreeMealQty: decimal.NewFromInt(4)}
	if err := ValidateDishSale(&ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok.DishCode != "D1" {
		t.Fatalf("expected trimmed dish code, got %q", ok.DishCode)
	}

	bad := []DishSaleLine{
		{SalesMode: "dine_in"},
		{DishCode: "D1", SalesMode: "delivery"},
		{DishCode: "D1", SalesMode: "takeout", SaleQty: decimal.NewFromInt(-1)},
		{DishCode: "D1", SalesMode: "takeout", SaleQty: decimal.NewFromInt(1), ReturnQty: decimal.NewFromInt(2)},
		{DishCode: "D1", SalesMode: "takeout", SaleQty: decimal.NewFromInt(1), FreeMealQty: decimal.NewFromInt(-1)},
	}
	for _, l := range bad {
		l := l
		if err := ValidateDishSale(&l); err == nil {
			t.Fatalf("%+v: expected error", l)
		}
	}
}

func TestValidateComboSale(t *testing.T) {
	if err := ValidateComboSale(&ComboSaleLine{ComboCode: "C1", DishCode: "D1", Qty: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateComboSale(&ComboSaleLine{DishCode: "D1"}); err == nil {
		t.Fatalf("expected missing combo code to fail")
	}
	if err := ValidateComboSale(&ComboSaleLine{ComboCode: "C1", DishCode: "D1", Qty: decimal.NewFromInt(-5)}); err == nil {
		t.Fatalf("expected negative qty to fail")
	}
}

func TestValidateBatch(t *testing.T) {
	body := BatchRequest{
		Year:   2025,
		Month:  5,
		Dishes: []DishSaleLine{{DishCode: "D1", SalesMode: "takeout", SaleQty: decimal.NewFromInt(10)}},
	}
	p, err := ValidateBatch(&body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.String() != "2025-05" {
		t.Fatalf("expected 2025-05, got %s", p)
	}

	var fe *fiber.Error
	empty := BatchRequest{Year: 2025, Month: 5}
	if _, err := ValidateBatch(&empty); !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
		t.Fatalf("expected empty batch to be rejected, got %v", err)
	}

	badRow := BatchRequest{Year: 2025, Month: 5, Dishes: []DishSaleLine{{DishCode: "D1", SalesMode: "x"}}}
	if _, err := ValidateBatch(&badRow); !errors.As(err, &fe) || fe.Code != fiber.StatusBadRequest {
		t.Fatalf("expected bad row to be rejected, got %v", err)
	}
}
