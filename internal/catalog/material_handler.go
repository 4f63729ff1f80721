package catalog

import (
	"strconv"
	"strings"

	"maliyet-backend/internal/audit"
	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MaterialResponse struct {
	ID        uint   `json:"id"`
	StoreID   uint   `json:"store_id"`
	Number    string `json:"number"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Type      string `json:"type"`
	ChildType string `json:"child_type"`
}

type CreateMaterialRequest struct {
	StoreID   *uint  `json:"store_id"` // super_admin için
	Number    string `json:"number"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Type      string `json:"type"`
	ChildType string `json:"child_type"`
}

type UpdateMaterialRequest struct {
	Name      *string `json:"name"`
	Unit      *string `json:"unit"`
	Type      *string `json:"type"`
	ChildType *string `json:"child_type"`
}

func toMaterialResponse(m models.Material) MaterialResponse {
	return MaterialResponse{
		ID:        m.ID,
		StoreID:   m.StoreID,
		Number:    m.Number,
		Name:      m.Name,
		Unit:      m.Unit,
		Type:      m.Type,
		ChildType: m.ChildType,
	}
}

func ValidateMaterial(body *CreateMaterialRequest) error {
	body.Number = strings.TrimSpace(body.Number)
	body.Name = strings.TrimSpace(body.Name)
	body.Unit = strings.TrimSpace(body.Unit)
	body.Type = strings.TrimSpace(body.Type)
	body.ChildType = strings.TrimSpace(body.ChildType)

	if body.Number == "" || body.Name == "" || body.Unit == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Malzeme numarası, adı ve birimi zorunlu")
	}
	if len(body.Number) > 50 {
		return fiber.NewError(fiber.StatusBadRequest, "Malzeme numarası en fazla 50 karakter olabilir")
	}
	return nil
}

// materialReferenced: fiyat veya reçete kaydı olan malzemenin kimliği ve birimi değişmez
func materialReferenced(m models.Material) bool {
	var n int64
	database.DB.Model(&models.MaterialPriceHistory{}).
		Where("store_id = ? AND material_number = ?", m.StoreID, m.Number).
		Count(&n)
	if n > 0 {
		return true
	}
	database.DB.Model(&models.DishMaterial{}).
		Where("store_id = ? AND material_number = ?", m.StoreID, m.Number).
		Count(&n)
	return n > 0
}

func writeCatalogLog(c *fiber.Ctx, storeID uint, entity string, id uint, action models.AuditAction, desc string, before, after any) {
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

// GET /api/materials?store_id=1&type=et
func ListMaterialsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("store_id = ?", storeID)
		if t := c.Query("type"); t != "" {
			dbq = dbq.Where("type = ?", t)
		}

		var materials []models.Material
		if err := dbq.Order("number asc").Find(&materials).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		res := make([]MaterialResponse, 0, len(materials))
		for _, m := range materials {
			res = append(res, toMaterialResponse(m))
		}
		return c.JSON(res)
	}
}

// POST /api/materials
func CreateMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := ValidateMaterial(&body); err != nil {
			return err
		}

		storeID, err := auth.StoreIDFromBody(c, body.StoreID)
		if err != nil {
			return err
		}

		var existing models.Material
		if err := database.DB.Where("store_id = ? AND number = ?", storeID, body.Number).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu malzeme numarası mağazada zaten kayıtlı")
		}

		m := models.Material{
			StoreID:   storeID,
			Number:    body.Number,
			Name:      body.Name,
			Unit:      body.Unit,
			Type:      body.Type,
			ChildType: body.ChildType,
		}
		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme oluşturulamadı")
		}

		writeCatalogLog(c, storeID, "material", m.ID, models.AuditActionCreate,
			"Malzeme oluşturuldu: "+m.Number, nil, toMaterialResponse(m))

		return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(m))
	}
}

// PUT /api/materials/:id
// Tip bilgileri her zaman, ad ve birim yalnızca fiyat/reçete kaydı yokken değiştirilebilir.
func UpdateMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		var m models.Material
		if err := database.DB.First(&m, "id = ? AND store_id = ?", c.Params("id"), storeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}
		before := toMaterialResponse(m)

		var body UpdateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil || body.Unit != nil {
			if materialReferenced(m) {
				return fiber.NewError(fiber.StatusConflict, "Fiyat veya reçetede kullanılan malzemenin adı/birimi değiştirilemez")
			}
			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return fiber.NewError(fiber.StatusBadRequest, "Malzeme adı boş olamaz")
				}
				m.Name = name
			}
			if body.Unit != nil {
				unit := strings.TrimSpace(*body.Unit)
				if unit == "" {
					return fiber.NewError(fiber.StatusBadRequest, "Birim boş olamaz")
				}
				m.Unit = unit
			}
		}
		if body.Type != nil {
			m.Type = strings.TrimSpace(*body.Type)
		}
		if body.ChildType != nil {
			m.ChildType = strings.TrimSpace(*body.ChildType)
		}

		if err := database.DB.Save(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme güncellenemedi")
		}

		writeCatalogLog(c, m.StoreID, "material", m.ID, models.AuditActionUpdate,
			"Malzeme güncellendi: "+m.Number, before, toMaterialResponse(m))

		return c.JSON(toMaterialResponse(m))
	}
}

// DELETE /api/materials/:id
func DeleteMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		var m models.Material
		if err := database.DB.First(&m, "id = ? AND store_id = ?", c.Params("id"), storeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}
		if materialReferenced(m) {
			return fiber.NewError(fiber.StatusConflict, "Fiyat veya reçetede kullanılan malzeme silinemez")
		}

		if err := database.DB.Delete(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme silinemedi")
		}

		writeCatalogLog(c, m.StoreID, "material", m.ID, models.AuditActionDelete,
			"Malzeme silindi: "+m.Number, toMaterialResponse(m), nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
