package catalog

import (
	"fmt"
	"strings"

	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Beklenen kolon sırası: dish_code, dish_size, material_number, standard_qty, loss_rate, unit_conversion_rate
var bomColumns = []string{"dish_code", "dish_size", "material_number", "standard_qty", "loss_rate", "unit_conversion_rate"}

type RowError struct {
	Row     int    `json:"row"` // Excel satır numarası (1'den başlar)
	Message string `json:"message"`
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func parseDecimalCell(row []string, i int) (decimal.Decimal, error) {
	v := cell(row, i)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s sayı değil: %q", bomColumns[i], v)
	}
	return d, nil
}

// ParseBomRows: başlık satırı varsa atlar, her satırı doğrular. Hatalı satırlar atlanır ve raporlanır.
func ParseBomRows(rows [][]string) ([]BomEdgeRequest, []RowError) {
	var out []BomEdgeRequest
	var rowErrs []RowError

	start := 0
	if len(rows) > 0 && strings.EqualFold(cell(rows[0], 0), "dish_code") {
		start = 1
	}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if cell(row, 0) == "" && cell(row, 2) == "" {
			continue
		}

		req := BomEdgeRequest{
			DishCode:       cell(row, 0),
			DishSize:       cell(row, 1),
			MaterialNumber: cell(row, 2),
		}

		var err error
		if req.StandardQty, err = parseDecimalCell(row, 3); err == nil {
			if req.LossRate, err = parseDecimalCell(row, 4); err == nil {
				req.UnitConversionRate, err = parseDecimalCell(row, 5)
			}
		}
		if err == nil {
			err = ValidateBomEdge(&req)
		}
		if err != nil {
			msg := err.Error()
			if fe, ok := err.(*fiber.Error); ok {
				msg = fe.Message
			}
			rowErrs = append(rowErrs, RowError{Row: i + 1, Message: msg})
			continue
		}
		out = append(out, req)
	}
	return out, rowErrs
}

// POST /api/bom-edges/import?store_id=1  (multipart, alan adı "file")
func ImportBomHandler() fiber.Handler {
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

		edges, rowErrs := ParseBomRows(rows)

		imported := 0
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			for _, e := range edges {
				if err := checkBomRefs(tx, storeID, e); err != nil {
					rowErrs = append(rowErrs, RowError{
						Message: fmt.Sprintf("%s/%s -> %s: %s", e.DishCode, e.DishSize, e.MaterialNumber, err.(*fiber.Error).Message),
					})
					continue
				}
				if _, err := upsertBomEdge(tx, storeID, e); err != nil {
					return err
				}
				imported++
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete içe aktarılamadı")
		}

		writeCatalogLog(c, storeID, "dish_material", 0, models.AuditActionImport,
			fmt.Sprintf("Reçete içe aktarıldı: %s (%d satır, %d hata)", fileHeader.Filename, imported, len(rowErrs)), nil, nil)

		return c.JSON(fiber.Map{
			"imported": imported,
			"errors":   rowErrs,
		})
	}
}
