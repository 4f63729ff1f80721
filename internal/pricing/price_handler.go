package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"maliyet-backend/internal/audit"
	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// PriceRequest: fiyat kayıtları yalnızca eklenir. Düzeltme için yeni kayıt yazılır.
type PriceRequest struct {
	StoreID        *uint           `json:"store_id"` // super_admin için
	MaterialNumber string          `json:"material_number"`
	DishCode       string          `json:"dish_code"`
	DishSize       string          `json:"dish_size"`
	Price          decimal.Decimal `json:"price"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	EffectiveDate  string          `json:"effective_date"` // YYYY-MM-DD
	Source         string          `json:"source"`
}

type PriceResponse struct {
	ID             uint            `json:"id"`
	StoreID        uint            `json:"store_id"`
	MaterialNumber string          `json:"material_number,omitempty"`
	DishCode       string          `json:"dish_code,omitempty"`
	DishSize       string          `json:"dish_size,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	EffectiveDate  string          `json:"effective_date"`
	IsActive       bool            `json:"is_active"`
	Source         string          `json:"source"`
	CreatedAt      string          `json:"created_at"`
}

func materialPriceResponse(h models.MaterialPriceHistory) PriceResponse {
	return PriceResponse{
		ID:             h.ID,
		StoreID:        h.StoreID,
		MaterialNumber: h.MaterialNumber,
		Price:          h.Price,
		Year:           h.Year,
		Month:          h.Month,
		EffectiveDate:  h.EffectiveDate.Format(dateLayout),
		IsActive:       h.IsActive,
		Source:         h.Source,
		CreatedAt:      h.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func dishPriceResponse(h models.DishPriceHistory) PriceResponse {
	return PriceResponse{
		ID:            h.ID,
		StoreID:       h.StoreID,
		DishCode:      h.DishCode,
		DishSize:      h.DishSize,
		Price:         h.Price,
		Year:          h.Year,
		Month:         h.Month,
		EffectiveDate: h.EffectiveDate.Format(dateLayout),
		IsActive:      h.IsActive,
		Source:        h.Source,
		CreatedAt:     h.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ValidatePriceRecord: fiyat negatif olamaz, dönem geçerli olmalı ve
// yürürlük tarihi kaydın ait olduğu ayın sonundan sonra olamaz.
func ValidatePriceRecord(body PriceRequest) (costing.Period, time.Time, error) {
	if body.Price.Sign() < 0 {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
	}
	eff, err := time.Parse(dateLayout, strings.TrimSpace(body.EffectiveDate))
	if err != nil {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "effective_date YYYY-MM-DD formatında olmalı")
	}
	p, err := costing.NewPeriod(body.Year, body.Month)
	if err != nil {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz dönem")
	}
	if eff.After(p.End()) {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusUnprocessableEntity,
			fmt.Sprintf("Yürürlük tarihi (%s) %s dönemi sonundan sonra olamaz", eff.Format(dateLayout), p))
	}
	return p, eff, nil
}

func writePriceLog(c *fiber.Ctx, storeID uint, entity string, id uint, action models.AuditAction, desc string, before, after any) {
	userID, userName, _, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		StoreID:     &storeID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  entity,
		EntityID:    strconv.FormatUint(uint64(id), 10),
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// POST /api/prices/materials
func CreateMaterialPriceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PriceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.MaterialNumber = strings.TrimSpace(body.MaterialNumber)
		if body.MaterialNumber == "" {
			return fiber.NewError(fiber.StatusBadRequest, "material_number zorunlu")
		}
		p, eff, err := ValidatePriceRecord(body)
		if err != nil {
			return err
		}
		storeID, err := auth.StoreIDFromBody(c, body.StoreID)
		if err != nil {
			return err
		}

		var n int64
		database.DB.Model(&models.Material{}).
			Where("store_id = ? AND number = ?", storeID, body.MaterialNumber).
			Count(&n)
		if n == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Malzeme mağazada tanımlı değil")
		}

		h := models.MaterialPriceHistory{
			StoreID:        storeID,
			MaterialNumber: body.MaterialNumber,
			Price:          body.Price,
			Year:           p.Year,
			Month:          p.Month,
			EffectiveDate:  eff,
			IsActive:       true,
			Source:         strings.TrimSpace(body.Source),
		}
		if err := database.DB.Create(&h).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kaydedilemedi")
		}

		writePriceLog(c, storeID, "material_price", h.ID, models.AuditActionCreate,
			fmt.Sprintf("Malzeme fiyatı: %s = %s (%s)", h.MaterialNumber, h.Price, body.EffectiveDate), nil, materialPriceResponse(h))

		return c.Status(fiber.StatusCreated).JSON(materialPriceResponse(h))
	}
}

// POST /api/prices/dishes
func CreateDishPriceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PriceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.DishCode = strings.TrimSpace(body.DishCode)
		body.DishSize = strings.TrimSpace(body.DishSize)
		if body.DishCode == "" {
			return fiber.NewError(fiber.StatusBadRequest, "dish_code zorunlu")
		}
		p, eff, err := ValidatePriceRecord(body)
		if err != nil {
			return err
		}
		storeID, err := auth.StoreIDFromBody(c, body.StoreID)
		if err != nil {
			return err
		}

		var n int64
		database.DB.Model(&models.Dish{}).
			Where("store_id = ? AND code = ? AND size = ?", storeID, body.DishCode, body.DishSize).
			Count(&n)
		if n == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Yemek mağazada tanımlı değil")
		}

		h := models.DishPriceHistory{
			StoreID:       storeID,
			DishCode:      body.DishCode,
			DishSize:      body.DishSize,
			Price:         body.Price,
			Year:          p.Year,
			Month:         p.Month,
			EffectiveDate: eff,
			IsActive:      true,
			Source:        strings.TrimSpace(body.Source),
		}
		if err := database.DB.Create(&h).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kaydedilemedi")
		}

		writePriceLog(c, storeID, "dish_price", h.ID, models.AuditActionCreate,
			fmt.Sprintf("Yemek fiyatı: %s = %s (%s)", costing.DishRef{Code: h.DishCode, Size: h.DishSize}, h.Price, body.EffectiveDate),
			nil, dishPriceResponse(h))

		return c.Status(fiber.StatusCreated).JSON(dishPriceResponse(h))
	}
}

// GET /api/prices/materials?store_id=1&material_number=M1
func ListMaterialPricesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("store_id = ?", storeID)
		if num := c.Query("material_number"); num != "" {
			dbq = dbq.Where("material_number = ?", num)
		}

		var rows []models.MaterialPriceHistory
		if err := dbq.Order("material_number, effective_date desc, id desc").Limit(1000).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat geçmişi listelenemedi")
		}
		res := make([]PriceResponse, 0, len(rows))
		for _, h := range rows {
			res = append(res, materialPriceResponse(h))
		}
		return c.JSON(res)
	}
}

// GET /api/prices/dishes?store_id=1&dish_code=D1
func ListDishPricesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("store_id = ?", storeID)
		if code := c.Query("dish_code"); code != "" {
			dbq = dbq.Where("dish_code = ?", code)
		}

		var rows []models.DishPriceHistory
		if err := dbq.Order("dish_code, dish_size, effective_date desc, id desc").Limit(1000).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat geçmişi listelenemedi")
		}
		res := make([]PriceResponse, 0, len(rows))
		for _, h := range rows {
			res = append(res, dishPriceResponse(h))
		}
		return c.JSON(res)
	}
}

type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// PATCH /api/prices/:kind/:id/active  (kind: materials | dishes)
// Fiyat kaydı silinmez; pasife alınan kayıt çözümlemede atlanır.
func SetPriceActiveHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		var body SetActiveRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var (
			model  any
			entity string
		)
		switch c.Params("kind") {
		case "materials":
			model, entity = &models.MaterialPriceHistory{}, "material_price"
		case "dishes":
			model, entity = &models.DishPriceHistory{}, "dish_price"
		default:
			return fiber.NewError(fiber.StatusNotFound, "Bilinmeyen fiyat türü")
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		tx := database.DB.Model(model).
			Where("id = ? AND store_id = ?", id, storeID).
			Update("is_active", body.IsActive)
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat güncellenemedi")
		}
		if tx.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Fiyat kaydı bulunamadı")
		}

		writePriceLog(c, storeID, entity, uint(id), models.AuditActionUpdate,
			fmt.Sprintf("Fiyat kaydı aktiflik: %t", body.IsActive), nil, body)

		return c.JSON(fiber.Map{"id": id, "is_active": body.IsActive})
	}
}
