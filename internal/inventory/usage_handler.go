package inventory

import (
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
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsageLine struct {
	MaterialNumber string          `json:"material_number"`
	Qty            decimal.Decimal `json:"qty"`
}

// UsageBatchRequest: stok sisteminden gelen aylık kullanım. Aynı malzeme tekrar gönderilirse üzerine yazılır.
type UsageBatchRequest struct {
	StoreID *uint       `json:"store_id"` // super_admin için
	Year    int         `json:"year"`
	Month   int         `json:"month"`
	Lines   []UsageLine `json:"lines"`
}

func ValidateUsageBatch(body *UsageBatchRequest) (costing.Period, error) {
	p, err := costing.NewPeriod(body.Year, body.Month)
	if err != nil {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "Geçersiz dönem")
	}
	if len(body.Lines) == 0 {
		return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, "Kullanım satırı yok")
	}
	seen := make(map[string]struct{}, len(body.Lines))
	for i := range body.Lines {
		l := &body.Lines[i]
		l.MaterialNumber = strings.TrimSpace(l.MaterialNumber)
		if l.MaterialNumber == "" {
			return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("satır %d: material_number zorunlu", i+1))
		}
		if l.Qty.Sign() < 0 {
			return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("satır %d: miktar negatif olamaz", i+1))
		}
		if _, dup := seen[l.MaterialNumber]; dup {
			return costing.Period{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("satır %d: %s tekrar ediyor", i+1, l.MaterialNumber))
		}
		seen[l.MaterialNumber] = struct{}{}
	}
	return p, nil
}

func saveUsage(tx *gorm.DB, storeID uint, p costing.Period, lines []UsageLine) error {
	for _, l := range lines {
		row := models.MaterialMonthlyUsage{
			StoreID:        storeID,
			MaterialNumber: l.MaterialNumber,
			Year:           p.Year,
			Month:          p.Month,
			Qty:            l.Qty,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "material_number"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func writeUsageLog(c *fiber.Ctx, storeID uint, p costing.Period, lines int, source string) {
	userID, userName, _, err := auth.CurrentUser(c)
	if err != nil {
		return
	}
	_ = audit.WriteLog(audit.LogOptions{
		StoreID:     &storeID,
		UserID:      userID,
		UserName:    userName,
		EntityType:  "material_usage",
		EntityID:    p.String(),
		Action:      models.AuditActionImport,
		Description: fmt.Sprintf("%s kayıtlı kullanım yüklendi (%d satır, %s)", p, lines, source),
	})
}

// PUT /api/usage
func UpsertUsageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UsageBatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		p, err := ValidateUsageBatch(&body)
		if err != nil {
			return err
		}
		storeID, err := auth.StoreIDFromBody(c, body.StoreID)
		if err != nil {
			return err
		}

		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			return saveUsage(tx, storeID, p, body.Lines)
		}); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanım kaydedilemedi")
		}

		writeUsageLog(c, storeID, p, len(body.Lines), "json")
		return c.JSON(fiber.Map{"store_id": storeID, "period": p.String(), "lines": len(body.Lines)})
	}
}

// ParseUsageRows: ilk iki kolon material_number ve qty. Başlık satırı varsa atlanır.
func ParseUsageRows(rows [][]string) ([]UsageLine, error) {
	var out []UsageLine
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "material_number") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("satır %d: miktar kolonu yok", i+1)
		}
		qty, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[1]), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("satır %d: miktar sayı değil: %q", i+1, row[1])
		}
		out = append(out, UsageLine{MaterialNumber: strings.TrimSpace(row[0]), Qty: qty})
	}
	return out, nil
}

// POST /api/usage/import?store_id=1&year=2025&month=5  (multipart, alan adı "file")
func ImportUsageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheets := excelFile.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}
		rows, err := excelFile.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}

		lines, err := ParseUsageRows(rows)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		body := UsageBatchRequest{Year: c.QueryInt("year"), Month: c.QueryInt("month"), Lines: lines}
		p, err := ValidateUsageBatch(&body)
		if err != nil {
			return err
		}

		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			return saveUsage(tx, storeID, p, body.Lines)
		}); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanım kaydedilemedi")
		}

		writeUsageLog(c, storeID, p, len(body.Lines), fileHeader.Filename)
		return c.JSON(fiber.Map{"store_id": storeID, "period": p.String(), "lines": len(body.Lines)})
	}
}

// GET /api/usage?store_id=1&year=2025&month=5
func ListUsageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := auth.StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		y, _ := strconv.Atoi(c.Query("year"))
		m, _ := strconv.Atoi(c.Query("month"))
		p, err := costing.NewPeriod(y, m)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
		}

		var rows []models.MaterialMonthlyUsage
		if err := database.DB.Where("store_id = ? AND year = ? AND month = ?", storeID, p.Year, p.Month).
			Order("material_number").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanım listelenemedi")
		}

		res := make([]UsageLine, 0, len(rows))
		for _, r := range rows {
			res = append(res, UsageLine{MaterialNumber: r.MaterialNumber, Qty: r.Qty})
		}
		return c.JSON(res)
	}
}
