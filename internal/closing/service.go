package closing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"maliyet-backend/internal/audit"
	"maliyet-backend/internal/config"
	"maliyet-backend/internal/costing"
	"maliyet-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// Service: aylık kapanış koşusu. Girdileri yükler, motoru çalıştırır ve
// türetilmiş tabloları tek transaction içinde ayın satırlarıyla değiştirir.
type Service struct {
	DB  *gorm.DB
	Log *zap.Logger
	Cfg *config.Config
}

func NewService(db *gorm.DB, log *zap.Logger, cfg *config.Config) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{DB: db, Log: log, Cfg: cfg}
}

// Actor: koşuyu başlatan kullanıcı (CLI için ID 0)
type Actor struct {
	UserID   uint
	UserName string
}

func (s *Service) engineOptions() (costing.Options, error) {
	th, err := costing.NewThresholds(s.Cfg.VarianceWarningPct, s.Cfg.VarianceCriticalPct)
	if err != nil {
		return costing.Options{}, err
	}
	return costing.Options{
		Thresholds:  th,
		Parallelism: s.Cfg.CostingParallelism,
		Logger:      s.Log,
	}, nil
}

// Compute: ayı hesaplar ama hiçbir şey yazmaz (önizleme)
func (s *Service) Compute(ctx context.Context, p costing.Period) (*costing.Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	engine, err := s.engine(ctx, p)
	if err != nil {
		return nil, err
	}
	return engine.Recompute(p)
}

func (s *Service) engine(ctx context.Context, p costing.Period) (*costing.Engine, error) {
	ds, err := LoadDataset(s.DB.WithContext(ctx), p)
	if err != nil {
		return nil, fmt.Errorf("girdiler yüklenemedi: %w", err)
	}
	opts, err := s.engineOptions()
	if err != nil {
		return nil, err
	}
	return costing.NewEngine(ds, opts)
}

// UsageBreakdown: bir malzemenin teorik kullanımının yemek bazlı kırılımı
func (s *Service) UsageBreakdown(ctx context.Context, material string, storeID uint, p costing.Period) (costing.MaterialUsage, error) {
	if err := p.Validate(); err != nil {
		return costing.MaterialUsage{}, err
	}
	engine, err := s.engine(ctx, p)
	if err != nil {
		return costing.MaterialUsage{}, err
	}
	return engine.UsageBreakdown(material, storeID, p)
}

// Run: ayı hesaplar ve kalıcı hale getirir. Aynı girdilerle tekrar çalıştırmak
// aynı satırları ve aynı checksum'ı üretir.
func (s *Service) Run(ctx context.Context, p costing.Period, actor Actor) (*models.CostingRun, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	run := &models.CostingRun{
		ID:        uuid.NewString(),
		Year:      p.Year,
		Month:     p.Month,
		Status:    models.CostingRunRunning,
		Issues:    "[]",
		StartedBy: actor.UserID,
		StartedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("kapanış koşusu oluşturulamadı: %w", err)
	}

	log := s.Log.With(zap.String("run_id", run.ID), zap.String("period", p.String()))
	log.Info("aylık kapanış başladı", zap.Uint("user_id", actor.UserID))

	res, err := s.Compute(ctx, p)
	if err == nil {
		err = s.persist(ctx, run, res, actor)
	}
	if err != nil {
		log.Error("aylık kapanış başarısız", zap.Error(err))
		s.fail(run, err)
		return run, err
	}

	log.Info("aylık kapanış tamamlandı",
		zap.String("checksum", run.Checksum),
		zap.Int("variances", run.VarianceCount),
		zap.Int("issues", run.IssueCount),
	)
	return run, nil
}

func (s *Service) fail(run *models.CostingRun, cause error) {
	now := time.Now()
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	run.Status = models.CostingRunFailed
	run.Error = msg
	run.FinishedAt = &now
	if err := s.DB.Save(run).Error; err != nil {
		s.Log.Error("kapanış koşusu durumu yazılamadı", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *Service) persist(ctx context.Context, run *models.CostingRun, res *costing.Result, actor Actor) error {
	sum, err := costing.Checksum(res)
	if err != nil {
		return err
	}
	issues, err := json.Marshal(res.Issues)
	if err != nil {
		return err
	}

	variances := VarianceRows(res)
	aggregates := AggregateRows(res, s.Cfg.LocalCurrency, s.Cfg.ReportCurrency)
	types := MaterialTypeRows(res)
	p := res.Period

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// aynı ayın eşzamanlı kapanışları sıraya girer
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(p.Year*100+p.Month)).Error; err != nil {
			return err
		}

		for _, m := range []any{&models.MaterialVariance{}, &models.MonthlyAggregate{}, &models.MaterialTypeCost{}} {
			if err := tx.Where("year = ? AND month = ?", p.Year, p.Month).Delete(m).Error; err != nil {
				return err
			}
		}
		if len(variances) > 0 {
			if err := tx.CreateInBatches(variances, insertBatchSize).Error; err != nil {
				return err
			}
		}
		if len(aggregates) > 0 {
			if err := tx.CreateInBatches(aggregates, insertBatchSize).Error; err != nil {
				return err
			}
		}
		if len(types) > 0 {
			if err := tx.CreateInBatches(types, insertBatchSize).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		run.Status = models.CostingRunCompleted
		run.Checksum = sum
		run.VarianceCount = len(variances)
		run.AggregateCount = len(aggregates)
		run.IssueCount = len(res.Issues)
		run.Issues = string(issues)
		run.FinishedAt = &now
		if err := tx.Save(run).Error; err != nil {
			return err
		}

		return audit.WriteLogTx(tx, audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  "costing_run",
			EntityID:    run.ID,
			Action:      models.AuditActionRun,
			Description: fmt.Sprintf("%s aylık kapanışı (%d sapma, %d sorun)", p, len(variances), len(res.Issues)),
			After: map[string]any{
				"checksum":   sum,
				"variances":  len(variances),
				"aggregates": len(aggregates),
				"issues":     len(res.Issues),
			},
		})
	})
}

// AggregateScope: "store-<id>" veya zincir için "chain"
func AggregateScope(r costing.AggregateRow) string {
	if r.IsChain() {
		return "chain"
	}
	return "store-" + strconv.FormatUint(uint64(*r.StoreID), 10)
}

func VarianceRows(res *costing.Result) []models.MaterialVariance {
	out := make([]models.MaterialVariance, 0, len(res.Variances))
	for _, v := range res.Variances {
		out = append(out, models.MaterialVariance{
			Year:           v.Period.Year,
			Month:          v.Period.Month,
			StoreID:        v.StoreID,
			MaterialNumber: v.MaterialNumber,
			TheoreticalQty: v.TheoreticalQty,
			RecordedQty:    v.RecordedQty,
			CountedQty:     v.CountedQty,
			VarianceQty:    v.VarianceQty,
			VarianceRate:   v.VarianceRate,
			Price:          v.Price,
			VarianceCost:   v.VarianceCost,
			Status:         models.VarianceStatus(v.Status),
		})
	}
	return out
}

// AggregateRows: mağaza satırları yerel para biriminde, kuru bulunan zincir satırı raporlama biriminde
func AggregateRows(res *costing.Result, localCurrency, reportCurrency string) []models.MonthlyAggregate {
	out := make([]models.MonthlyAggregate, 0, len(res.Aggregates))
	for _, a := range res.Aggregates {
		currency := localCurrency
		if a.IsChain() && a.ExchangeRate.Valid {
			currency = reportCurrency
		}
		out = append(out, models.MonthlyAggregate{
			Year:           a.Period.Year,
			Month:          a.Period.Month,
			Scope:          AggregateScope(a),
			StoreID:        a.StoreID,
			Currency:       currency,
			Revenue:        a.Revenue,
			Cost:           a.Cost,
			GrossMarginPct: a.GrossMarginPct,
			MomDeltaPct:    a.MomDeltaPct,
			YoyDeltaPct:    a.YoyDeltaPct,
			MomMarginPts:   a.MomMarginPts,
			YoyMarginPts:   a.YoyMarginPts,
			ExchangeRate:   a.ExchangeRate,
			MissingPrices:  a.MissingPrices,
		})
	}
	return out
}

func MaterialTypeRows(res *costing.Result) []models.MaterialTypeCost {
	out := make([]models.MaterialTypeCost, 0, len(res.MaterialTypes))
	for _, m := range res.MaterialTypes {
		out = append(out, models.MaterialTypeCost{
			Year:            m.Period.Year,
			Month:           m.Period.Month,
			StoreID:         m.StoreID,
			MaterialType:    m.MaterialType,
			Materials:       m.Materials,
			TheoreticalCost: m.TheoreticalCost,
			VarianceCost:    m.VarianceCost,
			MissingPrices:   m.MissingPrices,
		})
	}
	return out
}
