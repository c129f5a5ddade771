package repository

import (
	"context"
	"errors"
	"time"

	"cobrofacil/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TurnoFiltro selects shifts of a register for the history view.
// Zero Desde/Hasta means unbounded.
type TurnoFiltro struct {
	Caja  string
	Desde time.Time
	Hasta time.Time
	Page  int
	Limit int
}

// TurnoRepository is the only writer of turnos and movimientos_caja.
// Movements are append-only: there is no Update/Delete for them.
type TurnoRepository interface {
	// ConCajaBloqueada runs fn inside a transaction holding the register's
	// advisory lock. fn must use the repository it receives.
	ConCajaBloqueada(ctx context.Context, caja string, fn func(repo TurnoRepository) error) error

	CreateTurno(ctx context.Context, t *model.Turno) error
	FindTurnoByID(ctx context.Context, id uuid.UUID) (*model.Turno, error)
	// FindTurnoAbierto returns (nil, nil) when the register has no open shift.
	FindTurnoAbierto(ctx context.Context, caja string) (*model.Turno, error)
	CountTurnosEntre(ctx context.Context, caja string, desde, hasta time.Time) (int, error)
	// CerrarTurno persists the closing stamps only if the shift is still
	// open; ok is false when another close won the race.
	CerrarTurno(ctx context.Context, t *model.Turno) (ok bool, err error)
	ListTurnos(ctx context.Context, f TurnoFiltro) ([]model.Turno, int64, error)
	// ListTurnosDelDia returns the shifts of one calendar day with their movements.
	ListTurnosDelDia(ctx context.Context, caja string, fecha time.Time) ([]model.Turno, error)

	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, turnoID uuid.UUID) ([]model.MovimientoCaja, error)
}

type turnoRepo struct{ db *gorm.DB }

func NewTurnoRepository(db *gorm.DB) TurnoRepository { return &turnoRepo{db: db} }

func (r *turnoRepo) ConCajaBloqueada(ctx context.Context, caja string, fn func(repo TurnoRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Released automatically at COMMIT/ROLLBACK.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "caja:"+caja).Error; err != nil {
			return err
		}
		return fn(&turnoRepo{db: tx})
	})
}

func (r *turnoRepo) CreateTurno(ctx context.Context, t *model.Turno) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Movimientos").Create(t).Error
}

func (r *turnoRepo) FindTurnoByID(ctx context.Context, id uuid.UUID) (*model.Turno, error) {
	var t model.Turno
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *turnoRepo) FindTurnoAbierto(ctx context.Context, caja string) (*model.Turno, error) {
	var t model.Turno
	err := r.db.WithContext(ctx).
		Where("caja = ? AND estado = ?", caja, model.TurnoAbierto).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *turnoRepo) CountTurnosEntre(ctx context.Context, caja string, desde, hasta time.Time) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Turno{}).
		Where("caja = ? AND abierto_en >= ? AND abierto_en < ?", caja, desde, hasta).
		Count(&n).Error
	return int(n), err
}

func (r *turnoRepo) CerrarTurno(ctx context.Context, t *model.Turno) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Turno{}).
		Where("id = ? AND estado = ?", t.ID, model.TurnoAbierto).
		Updates(map[string]interface{}{
			"estado":               t.Estado,
			"cerrado_en":           t.CerradoEn,
			"cerrado_por":          t.CerradoPor,
			"notas_cierre":         t.NotasCierre,
			"notas_arqueo":         t.NotasArqueo,
			"efectivo_contado":     t.EfectivoContado,
			"efectivo_esperado":    t.EfectivoEsperado,
			"desvio":               t.Desvio,
			"clasificacion_desvio": t.ClasificacionDesvio,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *turnoRepo) ListTurnos(ctx context.Context, f TurnoFiltro) ([]model.Turno, int64, error) {
	var turnos []model.Turno
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Turno{}).Where("caja = ?", f.Caja)
	if !f.Desde.IsZero() {
		q = q.Where("abierto_en >= ?", f.Desde)
	}
	if !f.Hasta.IsZero() {
		q = q.Where("abierto_en < ?", f.Hasta)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("abierto_en DESC").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Find(&turnos).Error
	return turnos, total, err
}

func (r *turnoRepo) ListTurnosDelDia(ctx context.Context, caja string, fecha time.Time) ([]model.Turno, error) {
	var turnos []model.Turno
	err := r.db.WithContext(ctx).
		Preload("Movimientos", func(db *gorm.DB) *gorm.DB {
			return db.Order("registrado_en ASC")
		}).
		Where("caja = ? AND fecha = ?", caja, fecha.Format("2006-01-02")).
		Order("numero ASC").
		Find(&turnos).Error
	return turnos, err
}

func (r *turnoRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *turnoRepo) ListMovimientos(ctx context.Context, turnoID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("turno_id = ?", turnoID).
		Order("registrado_en ASC, id ASC").
		Find(&movs).Error
	return movs, err
}
