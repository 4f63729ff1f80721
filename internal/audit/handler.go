package audit

import (
	"fmt"

	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	StoreID     *uint              `json:"store_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

func toResponse(log models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:          log.ID,
		CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
		StoreID:     log.StoreID,
		UserID:      log.UserID,
		UserName:    log.UserName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      log.Action,
		Description: log.Description,
	}
}

// GET /api/audit-logs?entity_type=costing_run&entity_id=...&store_id=1&limit=200
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.OptionalStoreIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.AuditLog{})

		// Mağaza filtresi
		if storeID != nil {
			dbq = dbq.Where("store_id = ?", *storeID)
		}

		// User ID filtresi
		if userIDStr := c.Query("user_id"); userIDStr != "" {
			var uid uint
			if _, err := fmt.Sscan(userIDStr, &uid); err == nil && uid > 0 {
				dbq = dbq.Where("user_id = ?", uid)
			}
		}

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if entityID := c.Query("entity_id"); entityID != "" {
			dbq = dbq.Where("entity_id = ?", entityID)
		}

		limit := c.QueryInt("limit", 200)
		if limit <= 0 || limit > 1000 {
			limit = 200
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, toResponse(log))
		}

		return c.JSON(resp)
	}
}
