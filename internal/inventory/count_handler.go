package inventory

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

type CreateCountRequest struct {
	StoreID        *uint           `json:"store_id"`   // super_admin için
	CountDate      string          `json:"count_date"` // "2025-05-31"
	MaterialNumber string          `json:"material_number"`
	CountedQty     decimal.Decimal `json:"counted_qty"`
	Note           string          `json:"note"`
}

type CountResponse struct {
	ID             uint            `json:"id"`
	StoreID        uint            `json:"store_id"`
	MaterialNumber string          `json:"material_number"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	CountDate      string          `json:"count_date"`
	CountedQty     decimal.Decimal `json:"counted_qty"`
	Note           string          `json:"note"`
	CreatedAt      string          `json:"created_at"`
}

func toCountResponse(r models.InventoryCount) CountResponse {
	return CountResponse{
		ID:             r.ID,
		StoreID:        r.StoreID,
		MaterialNumber: r.MaterialNumber,
		Year:           r.Year,
		Month:          r.Month,
		CountDate:      r.CountDate.Format("2006-01-02"),
		CountedQty:     r.CountedQty,
		Note:           r.Note,
		CreatedAt:      r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ValidateCount: dönem sayım tarihinden türetilir. Sayım negatif olamaz.
func ValidateCount(body *CreateCountRequest) (costing.Period, time.Time, error) {
	body.MaterialNumber = strings.TrimSpace(body.MaterialNumber)
	if body.MaterialNumber == "" {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "material_number zorunlu")
	}
	date, err := time.Parse("2006-01-02", body.CountDate)
	if err != nil {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "count_date formatı YYYY-MM-DD olmalı")
	}
	p := costing.PeriodOf(date)
	if err := p.Validate(); err != nil {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Sayım tarihi geçerli bir dönemde değil")
	}
	if body.CountedQty.Sign() < 0 {
		return costing.Period{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Sayım miktarı negatif olamaz")
	}
	return p, date, nil
}

func writeCountLog(c *fiber.Ctx, r models.InventoryCount, action models.AuditAction, desc string, before, after any) {
	userID, userName, _, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	storeID := r.StoreID
	_ = audit.WriteLog(audit.LogOptions{
		StoreID:     &storeID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "inventory_count",
		EntityID:    strconv.FormatUint(uint64(r.ID), 10),
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// POST /api/inventory-counts
func CreateCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		p, date, err := ValidateCount(&body)
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

		r := models.InventoryCount{
			StoreID:        storeID,
			MaterialNumber: body.MaterialNumber,
			Year:           p.Year,
			Month:          p.Month,
			CountDate:      date,
			CountedQty:     body.CountedQty,
			Note:           strings.TrimSpace(body.Note),
		}
		if err := database.DB.Create(&r).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayım kaydedilemedi")
		}

		writeCountLog(c, r, models.AuditActionCreate,
			fmt.Sprintf("Sayım: %s = %s (%s)", r.MaterialNumber, r.CountedQty, body.CountDate), nil, toCountResponse(r))

		return c.Status(fiber.StatusCreated).JSON(toCountResponse(r))
	}
}

// GET /api/inventory-counts?store_id=1&year=2025&month=5&material_number=M1
func ListCountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("store_id = ?", storeID)
		if y := c.QueryInt("year"); y > 0 {
			dbq = dbq.Where("year = ?", y)
		}
		if m := c.QueryInt("month"); m > 0 {
			dbq = dbq.Where("month = ?", m)
		}
		if num := c.Query("material_number"); num != "" {
			dbq = dbq.Where("material_number = ?", num)
		}

		var rows []models.InventoryCount
		if err := dbq.Order("count_date desc, id desc").Limit(1000).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayımlar listelenemedi")
		}

		res := make([]CountResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, toCountResponse(r))
		}
		return c.JSON(res)
	}
}

// DELETE /api/inventory-counts/:id
func DeleteCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		var r models.InventoryCount
		if err := database.DB.First(&r, "id = ? AND store_id = ?", c.Params("id"), storeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sayım kaydı bulunamadı")
		}
		if err := database.DB.Delete(&r).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayım silinemedi")
		}

		writeCountLog(c, r, models.AuditActionDelete,
			fmt.Sprintf("Sayım silindi: %s (%s)", r.MaterialNumber, r.CountDate.Format("2006-01-02")), toCountResponse(r), nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
