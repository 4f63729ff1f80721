package admin

import (
	"strconv"
	"strings"

	"maliyet-backend/internal/audit"
	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type StoreResponse struct {
	ID        uint   `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateStoreRequest struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone"` // Opsiyonel
}

type UpdateStoreRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"` // Opsiyonel
}

type CreateStoreAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type StoreAdminResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	StoreID   *uint  `json:"store_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toStoreResponse(s models.Store) StoreResponse {
	return StoreResponse{
		ID:        s.ID,
		Code:      s.Code,
		Name:      s.Name,
		Address:   s.Address,
		Phone:     s.Phone,
		CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ValidateCreateStore: kod ve ad zorunlu, kod büyük harfe çevrilir
func ValidateCreateStore(body *CreateStoreRequest) error {
	body.Code = strings.ToUpper(strings.TrimSpace(body.Code))
	body.Name = strings.TrimSpace(body.Name)
	if body.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Mağaza kodu boş olamaz")
	}
	if len(body.Code) > 20 {
		return fiber.NewError(fiber.StatusBadRequest, "Mağaza kodu en fazla 20 karakter olabilir")
	}
	if body.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Mağaza adı boş olamaz")
	}
	return nil
}

func writeStoreLog(c *fiber.Ctx, action models.AuditAction, store models.Store, before any, desc string) {
	userID, userName, _, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	var after any
	if action != models.AuditActionDelete {
		after = toStoreResponse(store)
	}
	id := store.ID
	_ = audit.WriteLog(audit.LogOptions{
		StoreID:     &id,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "store",
		EntityID:    strconv.FormatUint(uint64(store.ID), 10),
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// ----------------------------------------
// MAĞAZA CRUD
// ----------------------------------------

func CreateStoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStoreRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}
		if err := ValidateCreateStore(&body); err != nil {
			return err
		}

		store := models.Store{
			Code:    body.Code,
			Name:    body.Name,
			Address: body.Address,
		}
		if body.Phone != nil {
			store.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&store).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mağaza oluşturulamadı")
		}

		writeStoreLog(c, models.AuditActionCreate, store, nil, "Mağaza oluşturuldu: "+store.Name)

		return c.Status(fiber.StatusCreated).JSON(toStoreResponse(store))
	}
}

func ListStoresHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var stores []models.Store
		if err := database.DB.Order("id").Find(&stores).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mağazalar listelenemedi")
		}

		res := make([]StoreResponse, 0, len(stores))
		for _, s := range stores {
			res = append(res, toStoreResponse(s))
		}

		return c.JSON(res)
	}
}

func GetStoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var store models.Store
		if err := database.DB.First(&store, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mağaza bulunamadı")
		}

		return c.JSON(toStoreResponse(store))
	}
}

func UpdateStoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var store models.Store
		if err := database.DB.First(&store, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mağaza bulunamadı")
		}
		before := toStoreResponse(store)

		var body UpdateStoreRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Mağaza adı boş olamaz")
			}
			store.Name = name
		}
		if body.Address != nil {
			store.Address = *body.Address
		}
		if body.Phone != nil {
			store.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Save(&store).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mağaza güncellenemedi")
		}

		writeStoreLog(c, models.AuditActionUpdate, store, before, "Mağaza güncellendi: "+store.Name)

		return c.JSON(toStoreResponse(store))
	}
}

// Kapanış verisi olan mağaza silinemez
func DeleteStoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var store models.Store
		if err := database.DB.First(&store, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mağaza bulunamadı")
		}

		var refs int64
		database.DB.Model(&models.MaterialVariance{}).Where("store_id = ?", store.ID).Count(&refs)
		if refs > 0 {
			return fiber.NewError(fiber.StatusConflict, "Kapanış verisi olan mağaza silinemez")
		}

		if err := database.DB.Delete(&models.Store{}, "id = ?", store.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mağaza silinemedi")
		}

		writeStoreLog(c, models.AuditActionDelete, store, toStoreResponse(store), "Mağaza silindi: "+store.Name)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// MAĞAZA ADMİNİ OLUŞTURMA
// ----------------------------------------

func CreateStoreAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID := c.Params("id")

		var store models.Store
		if err := database.DB.First(&store, "id = ?", storeID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mağaza bulunamadı")
		}

		var body CreateStoreAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "Şifre en az 8 karakter olmalı")
		}

		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bu email zaten kayıtlı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleStoreAdmin,
			StoreID:      &store.ID,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mağaza admini oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"role":     user.Role,
			"store_id": user.StoreID,
		})
	}
}

// GET /api/admin/stores/:id/admins
func ListStoreAdminsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID := c.Params("id")

		var users []models.User
		if err := database.DB.
			Where("store_id = ? AND role = ?", storeID, models.RoleStoreAdmin).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Adminler listelenemedi")
		}

		res := make([]StoreAdminResponse, 0, len(users))
		for _, u := range users {
			res = append(res, StoreAdminResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      string(u.Role),
				StoreID:   u.StoreID,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
				UpdatedAt: u.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}
