package costing

import (
	"fmt"
	"time"
)

const (
	minYear = 2000
	maxYear = 2100
)

// Period: Aylık kapanış dönemi (yıl + ay)
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewPeriod geçersiz yıl/ay için ErrInconsistentPeriod döner.
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Year < minYear || p.Year > maxYear {
		return fmt.Errorf("%w: yıl %d aralık dışında", ErrInconsistentPeriod, p.Year)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: ay %d aralık dışında", ErrInconsistentPeriod, p.Month)
	}
	return nil
}

// Start: ayın ilk günü (UTC)
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End: ayın son günü (UTC, 00:00). Fiyat çözümlemesinde month_end_date olarak kullanılır.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Contains: t bu dönemin içinde mi (gün bazlı)
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Year: p.Year - 1, Month: 12}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) PrevYear() Period {
	return Period{Year: p.Year - 1, Month: p.Month}
}

func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// PeriodOf: bir tarihin ait olduğu dönem
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}
