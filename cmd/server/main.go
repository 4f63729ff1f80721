package main

import (
	"strings"

	"maliyet-backend/internal/admin"
	"maliyet-backend/internal/audit"
	"maliyet-backend/internal/auth"
	"maliyet-backend/internal/catalog"
	"maliyet-backend/internal/closing"
	"maliyet-backend/internal/config"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/inventory"
	"maliyet-backend/internal/logger"
	"maliyet-backend/internal/models"
	"maliyet-backend/internal/pricing"
	"maliyet-backend/internal/report"
	"maliyet-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	database.Init(cfg)

	closingSvc := closing.NewService(database.DB, log, cfg)

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // xlsx yüklemeleri
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Error("beklenmeyen hata",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg), auth.StoreScope())

	protected.Get("/auth/me", auth.MeHandler())

	// Super admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleSuperAdmin))

	// Mağaza yönetimi
	adminRoutes.Post("/stores", admin.CreateStoreHandler())
	adminRoutes.Get("/stores", admin.ListStoresHandler())
	adminRoutes.Get("/stores/:id", admin.GetStoreHandler())
	adminRoutes.Put("/stores/:id", admin.UpdateStoreHandler())
	adminRoutes.Delete("/stores/:id", admin.DeleteStoreHandler())
	adminRoutes.Post("/stores/:id/admin", admin.CreateStoreAdminHandler())
	adminRoutes.Get("/stores/:id/admins", admin.ListStoreAdminsHandler())

	// Kur ve aylık kapanış zincir geneli olduğu için yalnızca super_admin
	adminRoutes.Put("/exchange-rates", pricing.UpsertExchangeRateHandler(cfg.LocalCurrency, cfg.ReportCurrency))
	adminRoutes.Post("/closing/runs", closing.RunClosingHandler(closingSvc))
	adminRoutes.Get("/closing/runs", closing.ListRunsHandler())
	adminRoutes.Get("/closing/runs/:id", closing.GetRunHandler(closingSvc))

	// Ortak (auth gerektiren) route'lar

	// Ana veri
	protected.Get("/materials", catalog.ListMaterialsHandler())
	protected.Post("/materials", catalog.CreateMaterialHandler())
	protected.Put("/materials/:id", catalog.UpdateMaterialHandler())
	protected.Delete("/materials/:id", catalog.DeleteMaterialHandler())

	protected.Get("/dishes", catalog.ListDishesHandler())
	protected.Post("/dishes", catalog.CreateDishHandler())
	protected.Put("/dishes/:id", catalog.UpdateDishHandler())
	protected.Delete("/dishes/:id", catalog.DeleteDishHandler())

	protected.Get("/bom-edges", catalog.ListBomEdgesHandler())
	protected.Put("/bom-edges", catalog.UpsertBomEdgeHandler())
	protected.Post("/bom-edges/import", catalog.ImportBomHandler())
	protected.Delete("/bom-edges/:id", catalog.DeleteBomEdgeHandler())

	// Fiyat defterleri
	protected.Get("/prices/resolve", pricing.ResolvePriceHandler())
	protected.Get("/prices/materials", pricing.ListMaterialPricesHandler())
	protected.Post("/prices/materials", pricing.CreateMaterialPriceHandler())
	protected.Get("/prices/dishes", pricing.ListDishPricesHandler())
	protected.Post("/prices/dishes", pricing.CreateDishPriceHandler())
	protected.Patch("/prices/:kind/:id/active", pricing.SetPriceActiveHandler())
	protected.Get("/exchange-rates", pricing.ListExchangeRatesHandler())

	// Aylık girdiler
	protected.Put("/sales", sales.UpsertSalesHandler())
	protected.Get("/sales/dishes", sales.ListDishSalesHandler())
	protected.Get("/sales/combos", sales.ListComboSalesHandler())

	protected.Put("/usage", inventory.UpsertUsageHandler())
	protected.Post("/usage/import", inventory.ImportUsageHandler())
	protected.Get("/usage", inventory.ListUsageHandler())

	protected.Post("/inventory-counts", inventory.CreateCountHandler())
	protected.Get("/inventory-counts", inventory.ListCountsHandler())
	protected.Delete("/inventory-counts/:id", inventory.DeleteCountHandler())

	// Raporlar
	protected.Get("/reports/variance", report.VarianceReportHandler())
	protected.Get("/reports/aggregates", report.AggregateReportHandler())
	protected.Get("/reports/material-types", report.MaterialTypeReportHandler())
	protected.Get("/reports/export.xlsx", report.ExportHandler())
	protected.Get("/reports/usage-breakdown", report.UsageBreakdownHandler(closingSvc))

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Info("server çalışıyor", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal("server durdu", zap.Error(err))
	}
}
