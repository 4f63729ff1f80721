package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=maliyet port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	LogLevel  string // debug, info, warn, error
	LogFormat string // json veya console

	// Sapma eşikleri yüzde olarak (5 = %5)
	VarianceWarningPct  float64
	VarianceCriticalPct float64

	// Aylık kapanışta aynı anda hesaplanan mağaza sayısı
	CostingParallelism int

	ReportCurrency string // zincir toplamlarının çevrildiği para birimi
	LocalCurrency  string // mağaza satırlarının para birimi
}

// Load .env dosyasını (varsa) okur, ardından ortam değişkenlerinden config üretir.
// Geçersiz değerlerde süreci durdurur.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env dosyası bulunamadı, ortam değişkenleri kullanılıyor")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "json")),
		ReportCurrency: strings.ToUpper(getEnv("REPORT_CURRENCY", "CAD")),
		LocalCurrency:  strings.ToUpper(getEnv("LOCAL_CURRENCY", "CNY")),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}

	var err error
	if cfg.VarianceWarningPct, err = getFloat("VARIANCE_WARNING_PCT", 5); err != nil {
		return nil, err
	}
	if cfg.VarianceCriticalPct, err = getFloat("VARIANCE_CRITICAL_PCT", 15); err != nil {
		return nil, err
	}
	if cfg.VarianceWarningPct < 0 || cfg.VarianceCriticalPct < 0 {
		return nil, errors.New("sapma eşikleri negatif olamaz")
	}
	if cfg.VarianceWarningPct >= cfg.VarianceCriticalPct {
		return nil, fmt.Errorf("VARIANCE_WARNING_PCT (%v) VARIANCE_CRITICAL_PCT (%v) değerinden küçük olmalı",
			cfg.VarianceWarningPct, cfg.VarianceCriticalPct)
	}

	if cfg.CostingParallelism, err = getInt("COSTING_PARALLELISM", 4); err != nil {
		return nil, err
	}
	if cfg.CostingParallelism < 1 {
		return nil, errors.New("COSTING_PARALLELISM en az 1 olmalı")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s sayı olmalı: %q", key, v)
	}
	return f, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s tam sayı olmalı: %q", key, v)
	}
	return n, nil
}
