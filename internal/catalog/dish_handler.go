package catalog

import (
	"strings"

	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DishResponse struct {
	ID          uint            `json:"id"`
	StoreID     uint            `json:"store_id"`
	Code        string          `json:"code"`
	Size        string          `json:"size"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	ServingSize decimal.Decimal `json:"serving_size"`
}

type CreateDishRequest struct {
	StoreID     *uint           `json:"store_id"` // super_admin için
	Code        string          `json:"code"`
	Size        string          `json:"size"` // porsiyon/boy, opsiyonel
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	ServingSize decimal.Decimal `json:"serving_size"`
}

type UpdateDishRequest struct {
	Name        *string          `json:"name"`
	Unit        *string          `json:"unit"`
	ServingSize *decimal.Decimal `json:"serving_size"`
}

func toDishResponse(d models.Dish) DishResponse {
	return DishResponse{
		ID:          d.ID,
		StoreID:     d.StoreID,
		Code:        d.Code,
		Size:        d.Size,
		Name:        d.Name,
		Unit:        d.Unit,
		ServingSize: d.ServingSize,
	}
}

func ValidateDish(body *CreateDishRequest) error {
	body.Code = strings.TrimSpace(body.Code)
	body.Size = strings.TrimSpace(body.Size)
	body.Name = strings.TrimSpace(body.Name)
	body.Unit = strings.TrimSpace(body.Unit)

	if body.Code == "" || body.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Yemek kodu ve adı zorunlu")
	}
	if strings.Contains(body.Code, "|") || strings.Contains(body.Size, "|") {
		return fiber.NewError(fiber.StatusBadRequest, "Yemek kodu ve porsiyon '|' içeremez")
	}
	if body.ServingSize.Sign() < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Porsiyon miktarı negatif olamaz")
	}
	return nil
}

// GET /api/dishes?store_id=1&code=D100
func ListDishesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("store_id = ?", storeID)
		if code := c.Query("code"); code != "" {
			dbq = dbq.Where("code = ?", code)
		}

		var dishes []models.Dish
		if err := dbq.Order("code asc, size asc").Find(&dishes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemekler listelenemedi")
		}

		res := make([]DishResponse, 0, len(dishes))
		for _, d := range dishes {
			res = append(res, toDishResponse(d))
		}
		return c.JSON(res)
	}
}

// POST /api/dishes
func CreateDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDishRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := ValidateDish(&body); err != nil {
			return err
		}

		storeID, err := auth.StoreIDFromBody(c, body.StoreID)
		if err != nil {
			return err
		}

		var existing models.Dish
		if err := database.DB.Where("store_id = ? AND code = ? AND size = ?", storeID, body.Code, body.Size).
			First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu yemek/porsiyon mağazada zaten kayıtlı")
		}

		d := models.Dish{
			StoreID:     storeID,
			Code:        body.Code,
			Size:        body.Size,
			Name:        body.Name,
			Unit:        body.Unit,
			ServingSize: body.ServingSize,
		}
		if err := database.DB.Create(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek oluşturulamadı")
		}

		writeCatalogLog(c, storeID, "dish", d.ID, models.AuditActionCreate,
			"Yemek oluşturuldu: "+d.Code, nil, toDishResponse(d))

		return c.Status(fiber.StatusCreated).JSON(toDishResponse(d))
	}
}

// PUT /api/dishes/:id
func UpdateDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		var d models.Dish
		if err := database.DB.First(&d, "id = ? AND store_id = ?", c.Params("id"), storeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}
		before := toDishResponse(d)

		var body UpdateDishRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Yemek adı boş olamaz")
			}
			d.Name = name
		}
		if body.Unit != nil {
			d.Unit = strings.TrimSpace(*body.Unit)
		}
		if body.ServingSize != nil {
			if body.ServingSize.Sign() < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Porsiyon miktarı negatif olamaz")
			}
			d.ServingSize = *body.ServingSize
		}

		if err := database.DB.Save(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek güncellenemedi")
		}

		writeCatalogLog(c, d.StoreID, "dish", d.ID, models.AuditActionUpdate,
			"Yemek güncellendi: "+d.Code, before, toDishResponse(d))

		return c.JSON(toDishResponse(d))
	}
}

// DELETE /api/dishes/:id
// Reçete satırı olan yemek silinemez, önce reçete temizlenmeli.
func DeleteDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		var d models.Dish
		if err := database.DB.First(&d, "id = ? AND store_id = ?", c.Params("id"), storeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}

		var n int64
		database.DB.Model(&models.DishMaterial{}).
			Where("store_id = ? AND dish_code = ? AND dish_size = ?", d.StoreID, d.Code, d.Size).
			Count(&n)
		if n > 0 {
			return fiber.NewError(fiber.StatusConflict, "Yemeğin reçete satırları var, önce reçeteyi silin")
		}

		if err := database.DB.Delete(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek silinemedi")
		}

		writeCatalogLog(c, d.StoreID, "dish", d.ID, models.AuditActionDelete,
			"Yemek silindi: "+d.Code, toDishResponse(d), nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
