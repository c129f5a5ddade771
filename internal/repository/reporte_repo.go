package repository

import (
	"context"
	"errors"
	"time"

	"cobrofacil/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReporteRepository interface {
	Create(ctx context.Context, r *model.ReporteDiario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReporteDiario, error)
	Update(ctx context.Context, r *model.ReporteDiario) error
	ListByCaja(ctx context.Context, caja string, page, limit int) ([]model.ReporteDiario, int64, error)
	// ListPendingRetries returns failed deliveries whose next attempt is due.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.ReporteDiario, error)
}

type reporteRepo struct{ db *gorm.DB }

func NewReporteRepository(db *gorm.DB) ReporteRepository { return &reporteRepo{db: db} }

func (r *reporteRepo) Create(ctx context.Context, rep *model.ReporteDiario) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *reporteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ReporteDiario, error) {
	var rep model.ReporteDiario
	err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error
	return &rep, err
}

func (r *reporteRepo) Update(ctx context.Context, rep *model.ReporteDiario) error {
	return r.db.WithContext(ctx).Save(rep).Error
}

func (r *reporteRepo) ListByCaja(ctx context.Context, caja string, page, limit int) ([]model.ReporteDiario, int64, error) {
	var reps []model.ReporteDiario
	var total int64
	q := r.db.WithContext(ctx).Model(&model.ReporteDiario{}).Where("caja = ?", caja)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("fecha DESC").Offset((page - 1) * limit).Limit(limit).Find(&reps).Error
	return reps, total, err
}

func (r *reporteRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.ReporteDiario, error) {
	var reps []model.ReporteDiario
	err := r.db.WithContext(ctx).
		Where("estado_envio = ? AND proximo_intento IS NOT NULL AND proximo_intento <= ?", model.EnvioFallido, now).
		Order("proximo_intento ASC").
		Limit(limit).
		Find(&reps).Error
	return reps, err
}

// DistribucionRepository stores the per-register report distribution list.
type DistribucionRepository interface {
	// Get returns an empty list when the register was never configured.
	Get(ctx context.Context, caja string) (*model.DistribucionReporte, error)
	Upsert(ctx context.Context, d *model.DistribucionReporte) error
}

type distribucionRepo struct{ db *gorm.DB }

func NewDistribucionRepository(db *gorm.DB) DistribucionRepository {
	return &distribucionRepo{db: db}
}

func (r *distribucionRepo) Get(ctx context.Context, caja string) (*model.DistribucionReporte, error) {
	var d model.DistribucionReporte
	err := r.db.WithContext(ctx).First(&d, "caja = ?", caja).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.DistribucionReporte{Caja: caja, Emails: []string{}}, nil
	}
	return &d, err
}

func (r *distribucionRepo) Upsert(ctx context.Context, d *model.DistribucionReporte) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "caja"}},
		DoUpdates: clause.AssignmentColumns([]string{"emails", "actualizado_por", "updated_at"}),
	}).Create(d).Error
}
