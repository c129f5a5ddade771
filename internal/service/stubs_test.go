package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"cobrofacil/internal/model"
	"cobrofacil/internal/repository"
	"cobrofacil/internal/service"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory TurnoRepository ────────────────────────────────────────────────

type memTurnoRepo struct {
	lock sync.Mutex // stands in for the per-register advisory lock
	mu   sync.Mutex

	turnos map[uuid.UUID]*model.Turno
	movs   []model.MovimientoCaja
}

func newMemTurnoRepo() *memTurnoRepo {
	return &memTurnoRepo{turnos: make(map[uuid.UUID]*model.Turno)}
}

func (r *memTurnoRepo) ConCajaBloqueada(_ context.Context, _ string, fn func(repo repository.TurnoRepository) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return fn(r)
}

func (r *memTurnoRepo) CreateTurno(_ context.Context, t *model.Turno) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.turnos {
		if o.Caja == t.Caja && o.Estado == model.TurnoAbierto {
			return gorm.ErrDuplicatedKey
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	c := *t
	r.turnos[t.ID] = &c
	return nil
}

func (r *memTurnoRepo) FindTurnoByID(_ context.Context, id uuid.UUID) (*model.Turno, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.turnos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *t
	return &c, nil
}

func (r *memTurnoRepo) FindTurnoAbierto(_ context.Context, caja string) (*model.Turno, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.turnos {
		if t.Caja == caja && t.Estado == model.TurnoAbierto {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memTurnoRepo) CountTurnosEntre(_ context.Context, caja string, desde, hasta time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.turnos {
		if t.Caja == caja && !t.AbiertoEn.Before(desde) && t.AbiertoEn.Before(hasta) {
			n++
		}
	}
	return n, nil
}

func (r *memTurnoRepo) CerrarTurno(_ context.Context, t *model.Turno) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	actual, ok := r.turnos[t.ID]
	if !ok || actual.Estado != model.TurnoAbierto {
		return false, nil
	}
	c := *t
	c.Movimientos = nil
	r.turnos[t.ID] = &c
	return true, nil
}

func (r *memTurnoRepo) ListTurnos(_ context.Context, f repository.TurnoFiltro) ([]model.Turno, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Turno
	for _, t := range r.turnos {
		if t.Caja != f.Caja {
			continue
		}
		if !f.Desde.IsZero() && t.AbiertoEn.Before(f.Desde) {
			continue
		}
		if !f.Hasta.IsZero() && !t.AbiertoEn.Before(f.Hasta) {
			continue
		}
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AbiertoEn.After(all[j].AbiertoEn) })
	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := min(start+f.Limit, len(all))
	return all[start:end], total, nil
}

func (r *memTurnoRepo) ListTurnosDelDia(_ context.Context, caja string, fecha time.Time) ([]model.Turno, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Turno
	for _, t := range r.turnos {
		if t.Caja != caja || t.Fecha.Format("2006-01-02") != fecha.Format("2006-01-02") {
			continue
		}
		c := *t
		for _, m := range r.movs {
			if m.TurnoID == t.ID {
				c.Movimientos = append(c.Movimientos, m)
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero < out[j].Numero })
	return out, nil
}

func (r *memTurnoRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movs = append(r.movs, *m)
	return nil
}

func (r *memTurnoRepo) ListMovimientos(_ context.Context, turnoID uuid.UUID) ([]model.MovimientoCaja, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoCaja
	for _, m := range r.movs {
		if m.TurnoID == turnoID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memTurnoRepo) movimientosDe(turnoID uuid.UUID) int {
	movs, _ := r.ListMovimientos(context.Background(), turnoID)
	return len(movs)
}

var _ repository.TurnoRepository = (*memTurnoRepo)(nil)

// ── In-memory report repositories ────────────────────────────────────────────

type memReporteRepo struct {
	mu       sync.Mutex
	reportes map[uuid.UUID]*model.ReporteDiario
	updates  int
}

func newMemReporteRepo() *memReporteRepo {
	return &memReporteRepo{reportes: make(map[uuid.UUID]*model.ReporteDiario)}
}

func (r *memReporteRepo) Create(_ context.Context, rep *model.ReporteDiario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.reportes {
		if o.Caja == rep.Caja && o.Fecha.Equal(rep.Fecha) {
			return gorm.ErrDuplicatedKey
		}
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	rep.CreatedAt = time.Now()
	c := *rep
	r.reportes[rep.ID] = &c
	return nil
}

func (r *memReporteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ReporteDiario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reportes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *rep
	return &c, nil
}

func (r *memReporteRepo) Update(_ context.Context, rep *model.ReporteDiario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	c := *rep
	r.reportes[rep.ID] = &c
	return nil
}

func (r *memReporteRepo) ListByCaja(_ context.Context, caja string, _, _ int) ([]model.ReporteDiario, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ReporteDiario
	for _, rep := range r.reportes {
		if rep.Caja == caja {
			out = append(out, *rep)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memReporteRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.ReporteDiario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ReporteDiario
	for _, rep := range r.reportes {
		if rep.EstadoEnvio == model.EnvioFallido && rep.ProximoIntento != nil && !rep.ProximoIntento.After(now) {
			out = append(out, *rep)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memReporteRepo) unico() *model.ReporteDiario {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reportes {
		c := *rep
		return &c
	}
	return nil
}

var _ repository.ReporteRepository = (*memReporteRepo)(nil)

type memDistribucionRepo struct {
	mu    sync.Mutex
	items map[string]model.DistribucionReporte
}

func newMemDistribucionRepo() *memDistribucionRepo {
	return &memDistribucionRepo{items: make(map[string]model.DistribucionReporte)}
}

func (r *memDistribucionRepo) Get(_ context.Context, caja string) (*model.DistribucionReporte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[caja]
	if !ok {
		return &model.DistribucionReporte{Caja: caja, Emails: []string{}}, nil
	}
	return &d, nil
}

func (r *memDistribucionRepo) Upsert(_ context.Context, d *model.DistribucionReporte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[d.Caja] = *d
	return nil
}

var _ repository.DistribucionRepository = (*memDistribucionRepo)(nil)

// ── Collaborator stubs ───────────────────────────────────────────────────────

type stubMesas struct {
	mu     sync.Mutex
	mesas  []model.MesaPendiente
	err    error
	demora time.Duration
	calls  int
}

func (s *stubMesas) MesasImpagas(ctx context.Context, _ string) ([]model.MesaPendiente, error) {
	s.mu.Lock()
	s.calls++
	mesas, err, demora := s.mesas, s.err, s.demora
	s.mu.Unlock()
	if demora > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(demora):
		}
	}
	return mesas, err
}

type stubTrigger struct {
	mu      sync.Mutex
	turnos  []*model.Turno
	reporte *model.ReporteDiario
	err     error
}

func (s *stubTrigger) TercerCierre(_ context.Context, t *model.Turno) (*model.ReporteDiario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnos = append(s.turnos, t)
	return s.reporte, s.err
}

func (s *stubTrigger) llamadas() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turnos)
}

type stubEventos struct {
	mu      sync.Mutex
	eventos []model.EventoTurno
	err     error
}

func (s *stubEventos) PublicarEvento(_ context.Context, ev model.EventoTurno) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventos = append(s.eventos, ev)
	return s.err
}

func (s *stubEventos) tipos() []model.TipoEvento {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TipoEvento, 0, len(s.eventos))
	for _, e := range s.eventos {
		out = append(out, e.Tipo)
	}
	return out
}

type stubVentas struct {
	productos []model.VentaProducto
	err       error
	demora    time.Duration
}

func (s *stubVentas) ResumenVentas(ctx context.Context, _ string, _, _ time.Time) ([]model.VentaProducto, error) {
	if s.demora > 0 {
		select {
		case <-time.After(s.demora):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.productos, s.err
}

type stubRenderer struct {
	path      string
	err       error
	contenido *model.ContenidoReporte
}

func (s *stubRenderer) RenderReporte(c *model.ContenidoReporte) (string, error) {
	s.contenido = c
	return s.path, s.err
}

type stubDespachador struct {
	ids []uuid.UUID
	err error
}

func (s *stubDespachador) EnqueueReporteEmail(_ context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.ids = append(s.ids, id)
	return nil
}

var (
	_ service.MesasClient         = (*stubMesas)(nil)
	_ service.ReporteTrigger      = (*stubTrigger)(nil)
	_ service.EventPublisher      = (*stubEventos)(nil)
	_ service.VentasAgregador     = (*stubVentas)(nil)
	_ service.RenderizadorReporte = (*stubRenderer)(nil)
	_ service.DespachadorReporte  = (*stubDespachador)(nil)
)

var errColaboradorCaido = errors.New("connection refused")
