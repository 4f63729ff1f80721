package pricing

import (
	"errors"
	"time"

	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/closing"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ResolveResponse struct {
	Kind    string          `json:"kind"`
	StoreID uint            `json:"store_id"`
	ItemID  string          `json:"item_id"`
	AsOf    string          `json:"as_of"`
	Price   decimal.Decimal `json:"price"`
}

// loadPriceRecords: tek kalemin (mağaza + malzeme/yemek) tüm fiyat geçmişi
func loadPriceRecords(kind string, storeID uint, item, size string) ([]costing.PriceRecord, string, error) {
	var out []costing.PriceRecord
	switch kind {
	case "material":
		var rows []models.MaterialPriceHistory
		if err := database.DB.Where("store_id = ? AND material_number = ?", storeID, item).
			Order("id").Find(&rows).Error; err != nil {
			return nil, "", err
		}
		for _, h := range rows {
			out = append(out, closing.MaterialPriceRecord(h))
		}
		return out, item, nil
	case "dish":
		var rows []models.DishPriceHistory
		if err := database.DB.Where("store_id = ? AND dish_code = ? AND dish_size = ?", storeID, item, size).
			Order("id").Find(&rows).Error; err != nil {
			return nil, "", err
		}
		for _, h := range rows {
			out = append(out, closing.DishPriceRecord(h))
		}
		return out, costing.DishRef{Code: item, Size: size}.Key(), nil
	default:
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "kind material veya dish olmalı")
	}
}

// GET /api/prices/resolve?kind=material&store_id=1&item=M1&as_of=2025-05-31
// as_of verilmezse bugün kullanılır. Yemeklerde porsiyon ?size= ile verilir.
func ResolvePriceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		kind := c.Query("kind", "material")
		item := c.Query("item")
		if item == "" {
			return fiber.NewError(fiber.StatusBadRequest, "item zorunlu")
		}

		asOf := time.Now().UTC()
		if s := c.Query("as_of"); s != "" {
			asOf, err = time.Parse(dateLayout, s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "as_of YYYY-MM-DD formatında olmalı")
			}
		}

		records, itemID, err := loadPriceRecords(kind, storeID, item, c.Query("size"))
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat geçmişi okunamadı")
		}

		ledger, _ := costing.NewPriceLedger(records)
		price, err := ledger.Resolve(itemID, storeID, asOf)
		if errors.Is(err, costing.ErrPriceNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bu tarihte yürürlükte fiyat yok")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat çözümlenemedi")
		}

		return c.JSON(ResolveResponse{
			Kind:    kind,
			StoreID: storeID,
			ItemID:  itemID,
			AsOf:    asOf.Format(dateLayout),
			Price:   price,
		})
	}
}
