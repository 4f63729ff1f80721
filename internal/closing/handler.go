package closing

import (
	"encoding/json"

	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RunRequest struct {
	Year   int  `json:"year"`
	Month  int  `json:"month"`
	DryRun bool `json:"dry_run"` // true ise hesaplanır, yazılmaz
}

type RunResponse struct {
	models.CostingRun
	Issues []costing.Issue `json:"issues"`
}

// bozuk issues kolonu yanıtı düşürmez, boş liste döner ve loglanır
func toRunResponse(run models.CostingRun, log *zap.Logger) RunResponse {
	res := RunResponse{CostingRun: run, Issues: []costing.Issue{}}
	if run.Issues != "" {
		if err := json.Unmarshal([]byte(run.Issues), &res.Issues); err != nil {
			log.Error("kapanış koşusu sorun listesi çözülemedi",
				zap.String("run_id", run.ID),
				zap.Error(err),
			)
			res.Issues = []costing.Issue{}
		}
	}
	return res
}

// POST /api/closing/runs
func RunClosingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RunRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		p, err := costing.NewPeriod(body.Year, body.Month)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz dönem: "+err.Error())
		}

		if body.DryRun {
			res, err := svc.Compute(c.UserContext(), p)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Hesaplama başarısız: "+err.Error())
			}
			return c.JSON(res)
		}

		userID, userName, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		run, err := svc.Run(c.UserContext(), p, Actor{UserID: userID, UserName: userName})
		if err != nil {
			if run == nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Kapanış başlatılamadı")
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(toRunResponse(*run, svc.Log))
		}
		return c.Status(fiber.StatusCreated).JSON(toRunResponse(*run, svc.Log))
	}
}

// GET /api/closing/runs?year=2025&month=5
func ListRunsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CostingRun{})
		if y := c.QueryInt("year"); y > 0 {
			dbq = dbq.Where("year = ?", y)
		}
		if m := c.QueryInt("month"); m > 0 {
			dbq = dbq.Where("month = ?", m)
		}

		var runs []models.CostingRun
		if err := dbq.Order("started_at desc").Limit(100).Find(&runs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kapanış koşuları listelenemedi")
		}
		return c.JSON(runs)
	}
}

// GET /api/closing/runs/:id
func GetRunHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var run models.CostingRun
		if err := database.DB.First(&run, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kapanış koşusu bulunamadı")
		}
		return c.JSON(toRunResponse(run, svc.Log))
	}
}
