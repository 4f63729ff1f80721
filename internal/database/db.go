package database

import (
	"log"

	"maliyet-backend/internal/config"
	"maliyet-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	logLevel := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		logLevel = gormlogger.Info
	}

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Store{},
		&models.User{},
		&models.AuditLog{},
		// Ana veri
		&models.Material{},
		&models.Dish{},
		&models.DishMaterial{},
		// Fiyat defterleri
		&models.MaterialPriceHistory{},
		&models.DishPriceHistory{},
		&models.ExchangeRate{},
		// Aylık girdiler
		&models.DishMonthlySale{},
		&models.ComboDishSale{},
		&models.MaterialMonthlyUsage{},
		&models.InventoryCount{},
		// Türetilmiş tablolar (aylık kapanış)
		&models.MaterialVariance{},
		&models.MonthlyAggregate{},
		&models.MaterialTypeCost{},
		&models.CostingRun{},
	)
}
