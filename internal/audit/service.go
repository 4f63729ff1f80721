package audit

import (
	"encoding/json"
	"fmt"

	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	StoreID     *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// jsonb kolonları için: boş değer "null" JSON olarak yazılır
func toJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func NewLog(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		StoreID:     opts.StoreID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
}

func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx: log kaydını verilen transaction içinde yazar
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	log := NewLog(opts)
	if err := tx.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}
