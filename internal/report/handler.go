package report

import (
	"errors"
	"fmt"
	"strconv"

	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/closing"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func periodFromQuery(c *fiber.Ctx) (costing.Period, error) {
	y, _ := strconv.Atoi(c.Query("year"))
	m, _ := strconv.Atoi(c.Query("month"))
	p, err := costing.NewPeriod(y, m)
	if err != nil {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
	}
	return p, nil
}

// scoped: store_admin yalnızca kendi mağazasını görür; super_admin store_id vermezse tüm zincir
func scoped(c *fiber.Ctx, p costing.Period) (*gorm.DB, *uint, error) {
	storeID, err := auth.OptionalStoreIDFromQuery(c)
	if err != nil {
		return nil, nil, err
	}
	q := database.DB.Where("year = ? AND month = ?", p.Year, p.Month)
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}
	return q, storeID, nil
}

func loadData(c *fiber.Ctx, p costing.Period) (Data, error) {
	var d Data

	q, storeID, err := scoped(c, p)
	if err != nil {
		return d, err
	}
	if err := q.Order("store_id, material_number").Find(&d.Variances).Error; err != nil {
		return d, fiber.NewError(fiber.StatusInternalServerError, "Sapma kayıtları okunamadı")
	}

	q, _, _ = scoped(c, p)
	if err := q.Order("store_id, material_type").Find(&d.MaterialTypes).Error; err != nil {
		return d, fiber.NewError(fiber.StatusInternalServerError, "Tip kırılımı okunamadı")
	}

	// zincir satırı yalnızca mağaza filtresi yoksa döner
	aq := database.DB.Where("year = ? AND month = ?", p.Year, p.Month)
	if storeID != nil {
		aq = aq.Where("scope = ?", fmt.Sprintf("store-%d", *storeID))
	}
	if err := aq.Order("store_id nulls last, scope").Find(&d.Aggregates).Error; err != nil {
		return d, fiber.NewError(fiber.StatusInternalServerError, "Aylık özet okunamadı")
	}
	return d, nil
}

// GET /api/reports/variance?year=2025&month=5&store_id=1&status=critical
func VarianceReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := periodFromQuery(c)
		if err != nil {
			return err
		}
		q, _, err := scoped(c, p)
		if err != nil {
			return err
		}
		if status := c.Query("status"); status != "" {
			switch costing.Status(status) {
			case costing.StatusNormal, costing.StatusWarning, costing.StatusCritical:
				q = q.Where("status = ?", status)
			default:
				return fiber.NewError(fiber.StatusBadRequest, "status normal, warning veya critical olmalı")
			}
		}

		var rows []models.MaterialVariance
		if err := q.Order("store_id, material_number").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sapma kayıtları okunamadı")
		}
		return c.JSON(rows)
	}
}

// GET /api/reports/aggregates?year=2025&month=5
func AggregateReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := periodFromQuery(c)
		if err != nil {
			return err
		}
		d, err := loadData(c, p)
		if err != nil {
			return err
		}
		return c.JSON(d.Aggregates)
	}
}

// GET /api/reports/material-types?year=2025&month=5&store_id=1
func MaterialTypeReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := periodFromQuery(c)
		if err != nil {
			return err
		}
		q, _, err := scoped(c, p)
		if err != nil {
			return err
		}
		var rows []models.MaterialTypeCost
		if err := q.Order("store_id, material_type").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tip kırılımı okunamadı")
		}
		return c.JSON(rows)
	}
}

// GET /api/reports/export.xlsx?year=2025&month=5
func ExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := periodFromQuery(c)
		if err != nil {
			return err
		}
		d, err := loadData(c, p)
		if err != nil {
			return err
		}

		f, err := BuildWorkbook(d)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı: "+err.Error())
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor yazılamadı")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="maliyet-%s.xlsx"`, p))
		return c.Send(buf.Bytes())
	}
}

// GET /api/reports/usage-breakdown?store_id=1&year=2025&month=5&material_number=M1
// Kalıcı tablolardan değil, güncel girdilerden hesaplanır.
func UsageBreakdownHandler(svc *closing.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		p, err := periodFromQuery(c)
		if err != nil {
			return err
		}
		material := c.Query("material_number")
		if material == "" {
			return fiber.NewError(fiber.StatusBadRequest, "material_number zorunlu")
		}

		usage, err := svc.UsageBreakdown(c.UserContext(), material, storeID, p)
		if errors.Is(err, costing.ErrUnknownStore) {
			return fiber.NewError(fiber.StatusNotFound, "Mağaza bulunamadı")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanım hesaplanamadı: "+err.Error())
		}
		return c.JSON(usage)
	}
}
