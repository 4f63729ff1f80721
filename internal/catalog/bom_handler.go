package catalog

import (
	"fmt"
	"strings"

	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var one = decimal.NewFromInt(1)

type BomEdgeRequest struct {
	StoreID            *uint           `json:"store_id"` // super_admin için
	DishCode           string          `json:"dish_code"`
	DishSize           string          `json:"dish_size"`
	MaterialNumber     string          `json:"material_number"`
	StandardQty        decimal.Decimal `json:"standard_qty"`
	LossRate           decimal.Decimal `json:"loss_rate"`            // boş/0 ise 1.0
	UnitConversionRate decimal.Decimal `json:"unit_conversion_rate"` // boş/0 ise 1.0
}

type BomEdgeResponse struct {
	ID                 uint            `json:"id"`
	StoreID            uint            `json:"store_id"`
	DishCode           string          `json:"dish_code"`
	DishSize           string          `json:"dish_size"`
	MaterialNumber     string          `json:"material_number"`
	StandardQty        decimal.Decimal `json:"standard_qty"`
	LossRate           decimal.Decimal `json:"loss_rate"`
	UnitConversionRate decimal.Decimal `json:"unit_conversion_rate"`
}

func toBomEdgeResponse(e models.DishMaterial) BomEdgeResponse {
	return BomEdgeResponse{
		ID:                 e.ID,
		StoreID:            e.StoreID,
		DishCode:           e.DishCode,
		DishSize:           e.DishSize,
		MaterialNumber:     e.MaterialNumber,
		StandardQty:        e.StandardQty,
		LossRate:           e.LossRate,
		UnitConversionRate: e.UnitConversionRate,
	}
}

// ValidateBomEdge: kodlar zorunlu, miktar negatif olamaz, oranlar 0 ise 1.0 kabul edilir
func ValidateBomEdge(body *BomEdgeRequest) error {
	body.DishCode = strings.TrimSpace(body.DishCode)
	body.DishSize = strings.TrimSpace(body.DishSize)
	body.MaterialNumber = strings.TrimSpace(body.MaterialNumber)

	if body.DishCode == "" || body.MaterialNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "dish_code ve material_number zorunlu")
	}
	if body.StandardQty.Sign() < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "standard_qty negatif olamaz")
	}
	if body.LossRate.Sign() < 0 || body.UnitConversionRate.Sign() < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Fire ve dönüşüm oranı negatif olamaz")
	}
	if body.LossRate.IsZero() {
		body.LossRate = one
	}
	if body.UnitConversionRate.IsZero() {
		body.UnitConversionRate = one
	}
	return nil
}

// checkBomRefs: yemek ve malzeme aynı mağazada tanımlı olmalı
func checkBomRefs(tx *gorm.DB, storeID uint, body BomEdgeRequest) error {
	var n int64
	tx.Model(&models.Dish{}).
		Where("store_id = ? AND code = ? AND size = ?", storeID, body.DishCode, body.DishSize).
		Count(&n)
	if n == 0 {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Yemek mağazada tanımlı değil: %s %s", body.DishCode, body.DishSize))
	}
	tx.Model(&models.Material{}).
		Where("store_id = ? AND number = ?", storeID, body.MaterialNumber).
		Count(&n)
	if n == 0 {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Malzeme mağazada tanımlı değil: %s", body.MaterialNumber))
	}
	return nil
}

// upsertBomEdge: (mağaza, yemek, porsiyon, malzeme) çakışmasında satırı günceller
func upsertBomEdge(tx *gorm.DB, storeID uint, body BomEdgeRequest) (models.DishMaterial, error) {
	edge := models.DishMaterial{
		StoreID:            storeID,
		DishCode:           body.DishCode,
		DishSize:           body.DishSize,
		MaterialNumber:     body.MaterialNumber,
		StandardQty:        body.StandardQty,
		LossRate:           body.LossRate,
		UnitConversionRate: body.UnitConversionRate,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "dish_code"}, {Name: "dish_size"}, {Name: "material_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"standard_qty", "loss_rate", "unit_conversion_rate", "updated_at",
		}),
	}).Create(&edge).Error
	if err != nil {
		return edge, err
	}
	err = tx.Where("store_id = ? AND dish_code = ? AND dish_size = ? AND material_number = ?",
		storeID, body.DishCode, body.DishSize, body.MaterialNumber).First(&edge).Error
	return edge, err
}

// GET /api/bom-edges?store_id=1&dish_code=D1&material_number=M1
func ListBomEdgesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("store_id = ?", storeID)
		if code := c.Query("dish_code"); code != "" {
			dbq = dbq.Where("dish_code = ?", code)
		}
		if material := c.Query("material_number"); material != "" {
			dbq = dbq.Where("material_number = ?", material)
		}

		var edges []models.DishMaterial
		if err := dbq.Order("dish_code, dish_size, material_number").Find(&edges).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete satırları listelenemedi")
		}

		res := make([]BomEdgeResponse, 0, len(edges))
		for _, e := range edges {
			res = append(res, toBomEdgeResponse(e))
		}
		return c.JSON(res)
	}
}

// PUT /api/bom-edges
func UpsertBomEdgeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BomEdgeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := ValidateBomEdge(&body); err != nil {
			return err
		}

		storeID, err := auth.StoreIDFromBody(c, body.StoreID)
		if err != nil {
			return err
		}
		if err := checkBomRefs(database.DB, storeID, body); err != nil {
			return err
		}

		edge, err := upsertBomEdge(database.DB, storeID, body)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete satırı kaydedilemedi")
		}

		writeCatalogLog(c, storeID, "dish_material", edge.ID, models.AuditActionUpdate,
			fmt.Sprintf("Reçete satırı: %s -> %s", edge.DishCode, edge.MaterialNumber), nil, toBomEdgeResponse(edge))

		return c.JSON(toBomEdgeResponse(edge))
	}
}

// DELETE /api/bom-edges/:id
func DeleteBomEdgeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		var edge models.DishMaterial
		if err := database.DB.First(&edge, "id = ? AND store_id = ?", c.Params("id"), storeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete satırı bulunamadı")
		}
		if err := database.DB.Delete(&edge).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete satırı silinemedi")
		}

		writeCatalogLog(c, storeID, "dish_material", edge.ID, models.AuditActionDelete,
			fmt.Sprintf("Reçete satırı silindi: %s -> %s", edge.DishCode, edge.MaterialNumber), toBomEdgeResponse(edge), nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
