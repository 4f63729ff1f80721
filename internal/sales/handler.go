package sales

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"maliyet-backend/internal/audit"
	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DishSaleLine struct {
	DishCode    string          `json:"dish_code"`
	DishSize    string          `json:"dish_size"`
	SalesMode   string          `json:"sales_mode"` // dine_in | takeout
	SaleQty     decimal.Decimal `json:"sale_qty"`
	ReturnQty   decimal.Decimal `json:"return_qty"`
	GiftQty     decimal.Decimal `json:"gift_qty"`
	FreeMealQty decimal.Decimal `json:"free_meal_qty"`
}

type ComboSaleLine struct {
	ComboCode string          `json:"combo_code"`
	DishCode  string          `json:"dish_code"`
	DishSize  string          `json:"dish_size"`
	Qty       decimal.Decimal `json:"qty"`
}

// BatchRequest: bir mağaza/ay için toplu satış yüklemesi. Aynı anahtar tekrar gönderilirse üzerine yazılır.
type BatchRequest struct {
	StoreID *uint           `json:"store_id"` // super_admin için
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Dishes  []DishSaleLine  `json:"dishes"`
	Combos  []ComboSaleLine `json:"combos"`
}

// ValidateDishSale: kanal geçerli olmalı, miktarlar negatif olamaz, iade satıştan fazla olamaz
func ValidateDishSale(l *DishSaleLine) error {
	l.DishCode = strings.TrimSpace(l.DishCode)
	l.DishSize = strings.TrimSpace(l.DishSize)
	if l.DishCode == "" {
		return errors.New("dish_code zorunlu")
	}
	if !costing.SalesMode(l.SalesMode).Valid() {
		return fmt.Errorf("%s: geçersiz sales_mode %q", l.DishCode, l.SalesMode)
	}
	if l.SaleQty.Sign() < 0 || l.ReturnQty.Sign() < 0 || l.GiftQty.Sign() < 0 || l.FreeMealQty.Sign() < 0 {
		return fmt.Errorf("%s: miktarlar negatif olamaz", l.DishCode)
	}
	if l.ReturnQty.GreaterThan(l.SaleQty) {
		return fmt.Errorf("%s: iade (%s) satıştan (%s) fazla olamaz", l.DishCode, l.ReturnQty, l.SaleQty)
	}
	return nil
}

func ValidateComboSale(l *ComboSaleLine) error {
	l.ComboCode = strings.TrimSpace(l.ComboCode)
	l.DishCode = strings.TrimSpace(l.DishCode)
	l.DishSize = strings.TrimSpace(l.DishSize)
	if l.ComboCode == "" || l.DishCode == "" {
		return errors.New("combo_code ve dish_code zorunlu")
	}
	if l.Qty.Sign() < 0 {
		return fmt.Errorf("%s/%s: miktar negatif olamaz", l.ComboCode, l.DishCode)
	}
	return nil
}

// ValidateBatch: tüm satırları doğrular, ilk hatada 400 döner
func ValidateBatch(body *BatchRequest) (costing.Period, error) {
	p, err := costing.NewPeriod(body.Year, body.Month)
	if err != nil {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz dönem")
	}
	if len(body.Dishes) == 0 && len(body.Combos) == 0 {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "Satış satırı yok")
	}
	for i := range body.Dishes {
		if err := ValidateDishSale(&body.Dishes[i]); err != nil {
			return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("satır %d: %v", i+1, err))
		}
	}
	for i := range body.Combos {
		if err := ValidateComboSale(&body.Combos[i]); err != nil {
			return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("set menü satırı %d: %v", i+1, err))
		}
	}
	return p, nil
}

// PUT /api/sales
func UpsertSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		p, err := ValidateBatch(&body)
		if err != nil {
			return err
		}
		storeID, err := auth.StoreIDFromBody(c, body.StoreID)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, l := range body.Dishes {
				row := models.DishMonthlySale{
					StoreID:     storeID,
					DishCode:    l.DishCode,
					DishSize:    l.DishSize,
					Year:        p.Year,
					Month:       p.Month,
					SalesMode:   models.SalesMode(l.SalesMode),
					SaleQty:     l.SaleQty,
					ReturnQty:   l.ReturnQty,
					GiftQty:     l.GiftQty,
					FreeMealQty: l.FreeMealQty,
				}
				err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{
						{Name: "store_id"}, {Name: "dish_code"}, {Name: "dish_size"},
						{Name: "year"}, {Name: "month"}, {Name: "sales_mode"},
					},
					DoUpdates: clause.AssignmentColumns([]string{"sale_qty", "return_qty", "gift_qty", "free_meal_qty", "updated_at"}),
				}).Create(&row).Error
				if err != nil {
					return err
				}
			}
			for _, l := range body.Combos {
				row := models.ComboDishSale{
					StoreID:   storeID,
					ComboCode: l.ComboCode,
					DishCode:  l.DishCode,
					DishSize:  l.DishSize,
					Year:      p.Year,
					Month:     p.Month,
					Qty:       l.Qty,
				}
				err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{
						{Name: "store_id"}, {Name: "combo_code"}, {Name: "dish_code"},
						{Name: "dish_size"}, {Name: "year"}, {Name: "month"},
					},
					DoUpdates: clause.AssignmentColumns([]string{"qty", "updated_at"}),
				}).Create(&row).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar kaydedilemedi")
		}

		if userID, userName, _, err := auth.CurrentUser(c); err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				StoreID:     &storeID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "dish_sale",
				EntityID:    p.String(),
				Action:      models.AuditActionImport,
				Description: fmt.Sprintf("%s satışları yüklendi (%d yemek, %d set menü satırı)", p, len(body.Dishes), len(body.Combos)),
			})
		}

		return c.JSON(fiber.Map{
			"store_id": storeID,
			"period":   p.String(),
			"dishes":   len(body.Dishes),
			"combos":   len(body.Combos),
		})
	}
}

func periodFromQuery(c *fiber.Ctx) (costing.Period, error) {
	y, _ := strconv.Atoi(c.Query("year"))
	m, _ := strconv.Atoi(c.Query("month"))
	p, err := costing.NewPeriod(y, m)
	if err != nil {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
	}
	return p, nil
}

// GET /api/sales/dishes?store_id=1&year=2025&month=5
func ListDishSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		p, err := periodFromQuery(c)
		if err != nil {
			return err
		}

		var rows []models.DishMonthlySale
		if err := database.DB.Where("store_id = ? AND year = ? AND month = ?", storeID, p.Year, p.Month).
			Order("dish_code, dish_size, sales_mode").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		res := make([]DishSaleLine, 0, len(rows))
		for _, r := range rows {
			res = append(res, DishSaleLine{
				DishCode:    r.DishCode,
				DishSize:    r.DishSize,
				SalesMode:   string(r.SalesMode),
				SaleQty:     r.SaleQty,
				ReturnQty:   r.ReturnQty,
				GiftQty:     r.GiftQty,
				FreeMealQty: r.FreeMealQty,
			})
		}
		return c.JSON(res)
	}
}

// GET /api/sales/combos?store_id=1&year=2025&month=5
func ListComboSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		p, err := periodFromQuery(c)
		if err != nil {
			return err
		}

		var rows []models.ComboDishSale
		if err := database.DB.Where("store_id = ? AND year = ? AND month = ?", storeID, p.Year, p.Month).
			Order("combo_code, dish_code, dish_size").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Set menü satışları listelenemedi")
		}

		res := make([]ComboSaleLine, 0, len(rows))
		for _, r := range rows {
			res = append(res, ComboSaleLine{
				ComboCode: r.ComboCode,
				DishCode:  r.DishCode,
				DishSize:  r.DishSize,
				Qty:       r.Qty,
			})
		}
		return c.JSON(res)
	}
}
