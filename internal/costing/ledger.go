package costing

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord: yürürlük tarihli fiyat kaydı. ItemID malzeme numarası veya yemek anahtarıdır.
// Seq kaydın yazılma sırasıdır (veritabanı ID'si); aynı yürürlük tarihinde son yazılan kazanır.
type PriceRecord struct {
	ItemID        string          `json:"item_id"`
	StoreID       uint            `json:"store_id"`
	Price         decimal.Decimal `json:"price"`
	Period        Period          `json:"period"`
	EffectiveDate time.Time       `json:"effective_date"`
	Active        bool            `json:"active"`
	Seq           int64           `json:"seq"`
}

type priceKey struct {
	itemID  string
	storeID uint
}

type memoKey struct {
	priceKey
	period Period
}

type memoEntry struct {
	price decimal.Decimal
	err   error
}

// PriceLedger: bir hesaplama koşusu boyunca salt-okunur fiyat defteri.
// Çözümleme saf bir fonksiyondur; tek paylaşılan durum dönem bazlı memo tablosudur.
type PriceLedger struct {
	records map[priceKey][]PriceRecord

	mu   sync.RWMutex
	memo map[memoKey]memoEntry
}

// NewPriceLedger kayıtları (item, store) bazında yürürlük tarihi + yazılma sırasına göre dizer.
// Dönemi geçersiz olan veya yürürlük tarihi kendi ayından sonra düşen kayıtlar
// reddedilir ve Issue olarak döner.
func NewPriceLedger(records []PriceRecord) (*PriceLedger, []Issue) {
	l := &PriceLedger{
		records: make(map[priceKey][]PriceRecord),
		memo:    make(map[memoKey]memoEntry),
	}

	var issues []Issue
	for _, r := range records {
		if err := r.Period.Validate(); err != nil {
			issues = append(issues, newIssue(ErrInconsistentPeriod, r.StoreID, r.ItemID, r.Period,
				"fiyat kaydı #%d reddedildi: %v", r.Seq, err))
			continue
		}
		if r.EffectiveDate.After(r.Period.End()) {
			issues = append(issues, newIssue(ErrInconsistentPeriod, r.StoreID, r.ItemID, r.Period,
				"fiyat kaydı #%d reddedildi: yürürlük tarihi %s kendi dönemi %s sonrasında",
				r.Seq, r.EffectiveDate.Format("2006-01-02"), r.Period))
			continue
		}
		k := priceKey{itemID: r.ItemID, storeID: r.StoreID}
		l.records[k] = append(l.records[k], r)
	}

	for k := range l.records {
		recs := l.records[k]
		sort.SliceStable(recs, func(i, j int) bool {
			if !recs[i].EffectiveDate.Equal(recs[j].EffectiveDate) {
				return recs[i].EffectiveDate.Before(recs[j].EffectiveDate)
			}
			return recs[i].Seq < recs[j].Seq
		})
	}

	return l, issues
}

// Resolve: asOf tarihinde yürürlükte olan fiyat.
// effective_date <= asOf ve aktif kayıtlar arasından en geç tarihli olan; eşitlikte en son yazılan.
func (l *PriceLedger) Resolve(itemID string, storeID uint, asOf time.Time) (decimal.Decimal, error) {
	recs := l.records[priceKey{itemID: itemID, storeID: storeID}]

	// asOf'tan sonra yürürlüğe giren ilk kaydın indeksi
	idx := sort.Search(len(recs), func(i int) bool {
		return recs[i].EffectiveDate.After(asOf)
	})

	// Geriye doğru ilk aktif kayıt: en geç tarih, o tarihteki en büyük Seq
	for i := idx - 1; i >= 0; i-- {
		if recs[i].Active {
			return recs[i].Price, nil
		}
	}

	return decimal.Zero, fmt.Errorf("%w: kalem=%s mağaza=%d tarih=%s",
		ErrPriceNotFound, itemID, storeID, asOf.Format("2006-01-02"))
}

// ResolveForPeriod: dönem sonu (month_end_date) itibarıyla fiyat, (item, store, ay) bazında memolanır.
func (l *PriceLedger) ResolveForPeriod(itemID string, storeID uint, p Period) (decimal.Decimal, error) {
	k := memoKey{priceKey: priceKey{itemID: itemID, storeID: storeID}, period: p}

	l.mu.RLock()
	e, ok := l.memo[k]
	l.mu.RUnlock()
	if ok {
		return e.price, e.err
	}

	price, err := l.Resolve(itemID, storeID, p.End())

	l.mu.Lock()
	l.memo[k] = memoEntry{price: price, err: err}
	l.mu.Unlock()

	return price, err
}

// History: (item, store) için kabul edilmiş kayıtların kopyası, yürürlük sırasına göre
func (l *PriceLedger) History(itemID string, storeID uint) []PriceRecord {
	recs := l.records[priceKey{itemID: itemID, storeID: storeID}]
	out := make([]PriceRecord, len(recs))
	copy(out, recs)
	return out
}
