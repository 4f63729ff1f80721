package pricing

import (
	"fmt"

	"maliyet-backend/internal/audit"
	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type ExchangeRateRequest struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Rate  decimal.Decimal `json:"rate"`
}

func ValidateExchangeRate(body ExchangeRateRequest) (costing.Period, error) {
	p, err := costing.NewPeriod(body.Year, body.Month)
	if err != nil {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz dönem")
	}
	if body.Rate.Sign() <= 0 {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "Kur pozitif olmalı")
	}
	return p, nil
}

// PUT /api/exchange-rates  (yalnızca super_admin)
// (yıl, ay) için tek kur tutulur, tekrar gönderim günceller.
func UpsertExchangeRateHandler(fromCurrency, toCurrency string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExchangeRateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		p, err := ValidateExchangeRate(body)
		if err != nil {
			return err
		}

		rate := models.ExchangeRate{
			Year:         p.Year,
			Month:        p.Month,
			Rate:         body.Rate,
			FromCurrency: fromCurrency,
			ToCurrency:   toCurrency,
		}
		err = database.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "from_currency", "to_currency", "updated_at"}),
		}).Create(&rate).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kur kaydedilemedi")
		}

		if userID, userName, _, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "exchange_rate",
				EntityID:    p.String(),
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("%s kuru: 1 %s = %s %s", p, fromCurrency, body.Rate, toCurrency),
				After:       body,
			})
		}

		return c.JSON(rate)
	}
}

// GET /api/exchange-rates?year=2025
func ListExchangeRatesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.ExchangeRate{})
		if y := c.QueryInt("year"); y > 0 {
			dbq = dbq.Where("year = ?", y)
		}
		var rates []models.ExchangeRate
		if err := dbq.Order("year desc, month desc").Find(&rates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kurlar listelenemedi")
		}
		return c.JSON(rates)
	}
}
