package auth

import (
	"strconv"

	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Role: token'dan gelen rol
func Role(c *fiber.Ctx) (models.UserRole, error) {
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return "", fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}
	return role, nil
}

func tokenStoreID(c *fiber.Ctx) (uint, error) {
	sPtr, ok := c.Locals(CtxStoreIDKey).(*uint)
	if !ok || sPtr == nil {
		return 0, fiber.NewError(fiber.StatusForbidden, "Mağaza bilgisi bulunamadı")
	}
	return *sPtr, nil
}

// StoreIDFromQuery: store_admin kendi mağazasına sabitlenir, super_admin ?store_id ile seçer.
func StoreIDFromQuery(c *fiber.Ctx) (uint, error) {
	role, err := Role(c)
	if err != nil {
		return 0, err
	}
	if role == models.RoleStoreAdmin {
		return tokenStoreID(c)
	}

	sidStr := c.Query("store_id")
	if sidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "store_id zorunlu")
	}
	sid, err := strconv.ParseUint(sidStr, 10, 64)
	if err != nil || sid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "store_id geçersiz")
	}
	return uint(sid), nil
}

// OptionalStoreIDFromQuery: super_admin için store_id verilmezse nil (tüm mağazalar)
func OptionalStoreIDFromQuery(c *fiber.Ctx) (*uint, error) {
	role, err := Role(c)
	if err != nil {
		return nil, err
	}
	if role != models.RoleStoreAdmin && c.Query("store_id") == "" {
		return nil, nil
	}
	sid, err := StoreIDFromQuery(c)
	if err != nil {
		return nil, err
	}
	return &sid, nil
}

// StoreIDFromBody: store_admin için gövdedeki store_id yok sayılır.
func StoreIDFromBody(c *fiber.Ctx, bodyStoreID *uint) (uint, error) {
	role, err := Role(c)
	if err != nil {
		return 0, err
	}
	if role == models.RoleStoreAdmin {
		return tokenStoreID(c)
	}
	if bodyStoreID == nil || *bodyStoreID == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "store_id zorunlu")
	}
	return *bodyStoreID, nil
}

// CurrentUser: audit log için kullanıcı bilgisi
func CurrentUser(c *fiber.Ctx) (uint, string, *uint, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return 0, "", nil, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	var storeID *uint
	if sPtr, ok := c.Locals(CtxStoreIDKey).(*uint); ok && sPtr != nil {
		storeID = sPtr
	}
	return userID, user.Name, storeID, nil
}
