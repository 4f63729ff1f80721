package costing

import (
	"errors"
	"fmt"
)

var (
	ErrPriceNotFound           = errors.New("fiyat bulunamadı")
	ErrBomEdgeMissing          = errors.New("reçete (BOM) bağlantısı yok")
	ErrAmbiguousRepresentative = errors.New("temsilci ürün belirsiz")
	ErrInconsistentPeriod      = errors.New("tutarsız dönem")
	ErrDuplicateBomEdge        = errors.New("aynı yemek/malzeme/mağaza için birden fazla reçete satırı")
	ErrInvalidThresholds       = errors.New("geçersiz sapma eşikleri")
	ErrUnknownStore            = errors.New("mağaza bulunamadı")
)

// Issue: hesaplamayı durdurmayan ama raporlanması gereken veri sorunu.
// Kind her zaman yukarıdaki sentinel hatalardan biridir.
type Issue struct {
	Kind    error  `json:"-"`
	Code    string `json:"code"`
	StoreID uint   `json:"store_id"`
	ItemID  string `json:"item_id,omitempty"`
	Period  Period `json:"period"`
	Detail  string `json:"detail"`
}

func newIssue(kind error, storeID uint, itemID string, p Period, format string, args ...any) Issue {
	return Issue{
		Kind:    kind,
		Code:    issueCode(kind),
		StoreID: storeID,
		ItemID:  itemID,
		Period:  p,
		Detail:  fmt.Sprintf(format, args...),
	}
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s [mağaza=%d kalem=%s dönem=%s]: %s", i.Kind, i.StoreID, i.ItemID, i.Period, i.Detail)
}

func (i Issue) Unwrap() error { return i.Kind }

func issueCode(kind error) string {
	switch {
	case errors.Is(kind, ErrPriceNotFound):
		return "price_not_found"
	case errors.Is(kind, ErrBomEdgeMissing):
		return "bom_edge_missing"
	case errors.Is(kind, ErrAmbiguousRepresentative):
		return "ambiguous_representative_product"
	case errors.Is(kind, ErrInconsistentPeriod):
		return "inconsistent_period"
	case errors.Is(kind, ErrUnknownStore):
		return "unknown_store"
	default:
		return "unknown"
	}
}
