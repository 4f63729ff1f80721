package costing

import (
	"errors"
	"testing"
)

func TestResolvePriceAsOf(t *testing.T) {
	ledger, issues := NewPriceLedger([]PriceRecord{
		price("M", 1, "12", day(2025, 5, 1), 2),
		price("M", 1, "10", day(2025, 4, 1), 1),
	})
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	cases := []struct {
		asOf  string
		price string
	}{
		{"2025-05-15", "12"},
		{"2025-04-15", "10"},
		{"2025-05-01", "12"},
		{"2025-04-01", "10"},
	}
	for _, c := range cases {
		at := parseDay(t, c.asOf)
		for i := 0; i < 3; i++ {
			got, err := ledger.Resolve("M", 1, at)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", c.asOf, err)
			}
			if !got.Equal(dec(c.price)) {
				t.Fatalf("%s: expected %s, got %s", c.asOf, c.price, got)
			}
		}
	}

	if _, err := ledger.Resolve("M", 1, day(2025, 3, 31)); !errors.Is(err, ErrPriceNotFound) {
		t.Fatalf("expected ErrPriceNotFound before first record, got %v", err)
	}
	if _, err := ledger.Resolve("M", 2, day(2025, 5, 15)); !errors.Is(err, ErrPriceNotFound) {
		t.Fatalf("prices must be store scoped, got %v", err)
	}
}

func TestResolveSameDateLastWrittenWins(t *testing.T) {
	ledger, _ := NewPriceLedger([]PriceRecord{
		price("M", 1, "11", day(2025, 4, 1), 7),
		price("M", 1, "10", day(2025, 4, 1), 3),
	})
	got, err := ledger.Resolve("M", 1, day(2025, 4, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("11")) {
		t.Fatalf("expected last written price 11, got %s", got)
	}
}

func TestResolveSkipsInactive(t *testing.T) {
	inactive := price("M", 1, "15", day(2025, 4, 20), 2)
	inactive.Active = false
	ledger, _ := NewPriceLedger([]PriceRecord{
		price("M", 1, "10", day(2025, 4, 1), 1),
		inactive,
	})
	got, err := ledger.Resolve("M", 1, day(2025, 4, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("10")) {
		t.Fatalf("expected 10, got %s", got)
	}
}

func TestLedgerRejectsInconsistentPeriod(t *testing.T) {
	late := price("M", 1, "9", day(2025, 5, 2), 1)
	late.Period = Period{Year: 2025, Month: 4}
	bad := price("M", 1, "9", day(2025, 4, 1), 2)
	bad.Period = Period{Year: 2025, Month: 13}

	ledger, issues := NewPriceLedger([]PriceRecord{late, bad, price("M", 1, "10", day(2025, 4, 1), 3)})
	if len(issues) != 2 {
		t.Fatalf("expected 2 rejected records, got %d", len(issues))
	}
	for _, is := range issues {
		if !errors.Is(is, ErrInconsistentPeriod) {
			t.Fatalf("expected ErrInconsistentPeriod, got %v", is)
		}
		if is.Code != "inconsistent_period" {
			t.Fatalf("unexpected code %s", is.Code)
		}
	}
	if n := len(ledger.History("M", 1)); n != 1 {
		t.Fatalf("expected 1 accepted record, got %d", n)
	}
}

func TestResolveForPeriodMatchesMonthEnd(t *testing.T) {
	ledger, _ := NewPriceLedger([]PriceRecord{
		price("M", 1, "10", day(2025, 4, 1), 1),
		price("M", 1, "12", day(2025, 4, 30), 2),
	})
	p := Period{Year: 2025, Month: 4}
	want, _ := ledger.Resolve("M", 1, p.End())
	for i := 0; i < 2; i++ {
		got, err := ledger.ResolveForPeriod("M", 1, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(want) || !got.Equal(dec("12")) {
			t.Fatalf("expected 12, got %s", got)
		}
	}
}
