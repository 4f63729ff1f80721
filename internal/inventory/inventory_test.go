package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCountDerivesPeriod(t *testing.T) {
	body := CreateCountRequest{CountDate: "2025-05-31", MaterialNumber: " M1 ", CountedQty: decimal.NewFromInt(4)}
	p, date, err := ValidateCount(&body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Year != 2025 || p.Month != 5 || date.Day() != 31 {
		t.Fatalf("expected 2025-05 / 31, got %s / %s", p, date)
	}
	if body.MaterialNumber != "M1" {
		t.Fatalf("expected trimmed material number, got %q", body.MaterialNumber)
	}

	bad := []CreateCountRequest{
		{CountDate: "2025-05-31"},
		{CountDate: "31.05.2025", MaterialNumber: "M1"},
		{CountDate: "1999-05-31", MaterialNumber: "M1"},
		{CountDate: "2025-05-31", MaterialNumber: "M1", CountedQty: decimal.NewFromInt(-1)},
	}
	for _, b := range bad {
		b := b
		if _, _, err := ValidateCount(&b); err == nil {
			t.Fatalf("%+v: expected error", b)
		}
	}
}

func TestValidateUsageBatch(t *testing.T) {
	body := UsageBatchRequest{Year: 2025, Month: 5, Lines: []UsageLine{
		{MaterialNumber: " M1 ", Qty: decimal.NewFromInt(120)},
		{MaterialNumber: "M2", Qty: decimal.Zero},
	}}
	if _, err := ValidateUsageBatch(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Lines[0].MaterialNumber != "M1" {
		t.Fatalf("expected trimmed material number, got %q", body.Lines[0].MaterialNumber)
	}

	dup := UsageBatchRequest{Year: 2025, Month: 5, Lines: []UsageLine{{MaterialNumber: "M1"}, {MaterialNumber: "M1"}}}
	if _, err := ValidateUsageBatch(&dup); err == nil {
		t.Fatalf("expected duplicate material to fail")
	}
	neg := UsageBatchRequest{Year: 2025, Month: 5, Lines: []UsageLine{{MaterialNumber: "M1", Qty: decimal.NewFromInt(-1)}}}
	if _, err := ValidateUsageBatch(&neg); err == nil {
		t.Fatalf("expected negative qty to fail")
	}
}

func TestParseUsageRows(t *testing.T) {
	rows := [][]string{
		{"material_number", "qty"},
		{"M1", "120,5"},
		{},
		{"M2", "80"},
	}
	lines, err := ParseUsageRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 || !lines[0].Qty.Equal(decimal.RequireFromString("120.5")) || lines[1].MaterialNumber != "M2" {
		t.Fatalf("unexpected lines: %+v", lines)
	}

	if _, err := ParseUsageRows([][]string{{"M1", "çok"}}); err == nil {
		t.Fatalf("expected non-numeric qty to fail")
	}
	if _, err := ParseUsageRows([][]string{{"M1"}}); err == nil {
		t.Fatalf("expected missing qty column to fail")
	}
}
