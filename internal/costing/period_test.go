package costing

import (
	"errors"
	"testing"
)

func TestNewPeriodValidation(t *testing.T) {
	cases := []struct {
		year, month int
		ok          bool
	}{
		{2025, 5, true},
		{2025, 0, false},
		{2025, 13, false},
		{1999, 12, false},
		{2101, 1, false},
	}
	for _, c := range cases {
		_, err := NewPeriod(c.year, c.month)
		if c.ok && err != nil {
			t.Fatalf("%d-%d: unexpected error: %v", c.year, c.month, err)
		}
		if !c.ok && !errors.Is(err, ErrInconsistentPeriod) {
			t.Fatalf("%d-%d: expected ErrInconsistentPeriod, got %v", c.year, c.month, err)
		}
	}
}

func TestPeriodNavigation(t *testing.T) {
	p := Period{Year: 2025, Month: 1}
	if got := p.Prev(); got != (Period{Year: 2024, Month: 12}) {
		t.Fatalf("prev: got %v", got)
	}
	if got := p.PrevYear(); got != (Period{Year: 2024, Month: 1}) {
		t.Fatalf("prev year: got %v", got)
	}
	if got := (Period{Year: 2024, Month: 2}).End(); !got.Equal(day(2024, 2, 29)) {
		t.Fatalf("leap month end: got %v", got)
	}
	if p.String() != "2025-01" {
		t.Fatalf("string: got %s", p.String())
	}
}
