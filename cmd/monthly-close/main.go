package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maliyet-backend/internal/closing"
	"maliyet-backend/internal/config"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/database"
	"maliyet-backend/internal/logger"

	"go.uber.org/zap"
)

// Aylık kapanışı komut satırından çalıştırır (cron için).
// Ay verilmezse bir önceki ay kapatılır.
func main() {
	prev := costing.PeriodOf(time.Now().UTC()).Prev()
	year := flag.Int("year", prev.Year, "kapanış yılı")
	month := flag.Int("month", prev.Month, "kapanış ayı (1-12)")
	dryRun := flag.Bool("dry-run", false, "hesapla ama yazma")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	p, err := costing.NewPeriod(*year, *month)
	if err != nil {
		log.Fatal("geçersiz dönem", zap.Error(err))
	}

	database.Init(cfg)
	svc := closing.NewService(database.DB, log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		res, err := svc.Compute(ctx, p)
		if err != nil {
			log.Fatal("hesaplama başarısız", zap.Error(err))
		}
		sum, err := costing.Checksum(res)
		if err != nil {
			log.Fatal("checksum hesaplanamadı", zap.Error(err))
		}
		log.Info("önizleme tamamlandı",
			zap.String("period", p.String()),
			zap.String("checksum", sum),
			zap.Int("variances", len(res.Variances)),
			zap.Int("issues", len(res.Issues)),
		)
		return
	}

	run, err := svc.Run(ctx, p, closing.Actor{UserName: "monthly-close"})
	if err != nil {
		log.Fatal("kapanış başarısız", zap.Error(err))
	}
	fmt.Printf("%s %s %s\n", run.ID, p, run.Checksum)
}
