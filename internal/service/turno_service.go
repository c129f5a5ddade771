package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cobrofacil/internal/dto"
	"cobrofacil/internal/metrics"
	"cobrofacil/internal/model"
	"cobrofacil/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReporteTrigger is invoked once per day and register, on the normal close
// of the last allowed shift. A *DespachoReporteError means the report was
// generated and stored but its mail could not be queued.
type ReporteTrigger interface {
	TercerCierre(ctx context.Context, turno *model.Turno) (*model.ReporteDiario, error)
}

// EventPublisher pushes shift lifecycle events to gate consumers.
type EventPublisher interface {
	PublicarEvento(ctx context.Context, ev model.EventoTurno) error
}

type TurnoService interface {
	AbrirTurno(ctx context.Context, actor Actor, req dto.AbrirTurnoRequest) (*dto.TurnoResponse, error)
	RegistrarMovimiento(ctx context.Context, actor Actor, turnoID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	ListarMovimientos(ctx context.Context, turnoID uuid.UUID) ([]dto.MovimientoResponse, error)
	CerrarTurno(ctx context.Context, actor Actor, turnoID uuid.UUID, req dto.CierreRequest) (*dto.CierreResponse, error)
	CierreForzado(ctx context.Context, actor Actor, turnoID uuid.UUID, req dto.CierreForzadoRequest) (*dto.CierreResponse, error)
	ObtenerTurno(ctx context.Context, turnoID uuid.UUID) (*dto.TurnoDetalleResponse, error)
	TurnoActivo(ctx context.Context, caja string) (*dto.TurnoResponse, error)
	Historial(ctx context.Context, filter dto.HistorialFilter) (*dto.HistorialResponse, error)
	PuedeOperar(ctx context.Context, caja string) (*dto.EstadoCajaResponse, error)
	TurnosHoy(ctx context.Context, caja string) (*dto.TurnosHoyResponse, error)
}

// TurnoOptions carries the business parameters of the state machine.
type TurnoOptions struct {
	MaxTurnos    int
	Umbral       decimal.Decimal
	Location     *time.Location
	MesasTimeout time.Duration
	Now          func() time.Time
	Metrics      *metrics.Metrics
}

type turnoService struct {
	repo    repository.TurnoRepository
	arq     *arqueador
	trigger ReporteTrigger
	eventos EventPublisher
	opts    TurnoOptions
}

func NewTurnoService(
	repo repository.TurnoRepository,
	mesas MesasClient,
	trigger ReporteTrigger,
	eventos EventPublisher,
	opts TurnoOptions,
) TurnoService {
	if opts.MaxTurnos <= 0 {
		opts.MaxTurnos = 3
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MesasTimeout <= 0 {
		opts.MesasTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &turnoService{
		repo:    repo,
		arq:     &arqueador{mesas: mesas, timeout: opts.MesasTimeout},
		trigger: trigger,
		eventos: eventos,
		opts:    opts,
	}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *turnoService) AbrirTurno(ctx context.Context, actor Actor, req dto.AbrirTurnoRequest) (*dto.TurnoResponse, error) {
	caja := strings.TrimSpace(req.Caja)
	if caja == "" {
		return nil, invalido("caja", "requerida")
	}
	if err := validarMonto("monto_inicial", req.MontoInicial, false); err != nil {
		return nil, err
	}

	now := s.now()
	desde, hasta := s.dia(now)

	var turno *model.Turno
	err := s.repo.ConCajaBloqueada(ctx, caja, func(tx repository.TurnoRepository) error {
		abierto, err := tx.FindTurnoAbierto(ctx, caja)
		if err != nil {
			return err
		}
		if abierto != nil {
			return &ConflictoError{Turno: abierto}
		}

		n, err := tx.CountTurnosEntre(ctx, caja, desde, hasta)
		if err != nil {
			return err
		}
		if n >= s.opts.MaxTurnos {
			return &TopeDiarioError{Caja: caja, Abiertos: n, Maximo: s.opts.MaxTurnos}
		}

		turno = &model.Turno{
			Caja:          caja,
			Numero:        n + 1,
			Etiqueta:      fmt.Sprintf("Turno %d", n+1),
			Fecha:         desde,
			MontoInicial:  req.MontoInicial,
			NotasApertura: req.Notas,
			Estado:        model.TurnoAbierto,
			AbiertoPor:    actor.ID,
			AbiertoEn:     now,
		}
		return tx.CreateTurno(ctx, turno)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Partial unique index won a race the lock did not see.
		abierto, _ := s.repo.FindTurnoAbierto(ctx, caja)
		err = &ConflictoError{Turno: abierto}
	}
	if err != nil {
		s.rechazo("abrir", err)
		return nil, err
	}

	log.Info().Str("caja", caja).Str("turno_id", turno.ID.String()).Int("numero", turno.Numero).Msg("turno abierto")
	s.opts.Metrics.RecordTurnoAbierto(caja)
	s.publicar(ctx, model.EventoTurnoAbierto, turno)

	resp := toTurnoResponse(turno)
	if turno.MontoInicial.IsZero() {
		resp.Advertencias = append(resp.Advertencias, "el turno se abrió con monto inicial en cero")
	}
	return &resp, nil
}

// ── Movimientos ───────────────────────────────────────────────────────────────
// Append-only: no Update/Delete exists for MovimientoCaja.

func (s *turnoService) RegistrarMovimiento(ctx context.Context, actor Actor, turnoID uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	turno, err := s.buscarTurno(ctx, turnoID)
	if err != nil {
		return nil, err
	}
	// State before content: a closed shift rejects every movement.
	if !turno.Abierto() {
		s.rechazo("movimiento", ErrSinTurnoAbierto)
		return nil, ErrSinTurnoAbierto
	}

	mov, err := s.construirMovimiento(actor, turnoID, req)
	if err != nil {
		s.rechazo("movimiento", err)
		return nil, err
	}

	err = s.repo.ConCajaBloqueada(ctx, turno.Caja, func(tx repository.TurnoRepository) error {
		actual, err := tx.FindTurnoByID(ctx, turnoID)
		if err != nil {
			return err
		}
		if !actual.Abierto() {
			return ErrSinTurnoAbierto
		}
		mov.RegistradoEn = s.now()
		return tx.CreateMovimiento(ctx, mov)
	})
	if err != nil {
		s.rechazo("movimiento", err)
		return nil, err
	}

	s.opts.Metrics.RecordMovimiento(string(mov.Tipo), string(mov.MetodoPago))
	resp := toMovimientoResponse(mov)
	return &resp, nil
}

func (s *turnoService) construirMovimiento(actor Actor, turnoID uuid.UUID, req dto.MovimientoRequest) (*model.MovimientoCaja, error) {
	tipo := model.TipoMovimiento(req.Tipo)
	if !tipo.Valido() {
		return nil, invalido("tipo", "desconocido")
	}
	metodo := model.MetodoPago(req.MetodoPago)
	if !metodo.Valido() {
		return nil, invalido("metodo_pago", "desconocido")
	}
	concepto := strings.TrimSpace(req.Concepto)
	if concepto == "" {
		return nil, invalido("concepto", "requerido")
	}
	if err := validarMonto("monto", req.Monto, true); err != nil {
		return nil, err
	}

	sentido := model.Sentido(req.Sentido)
	if fijo, ok := tipo.SentidoFijo(); ok {
		if sentido != "" && sentido != fijo {
			return nil, invalido("sentido", fmt.Sprintf("un movimiento de tipo %s es siempre %s", tipo, fijo))
		}
		sentido = fijo
	} else if sentido != model.Ingreso && sentido != model.Egreso {
		return nil, invalido("sentido", fmt.Sprintf("requerido para movimientos de tipo %s", tipo))
	}

	mov := &model.MovimientoCaja{
		TurnoID:       turnoID,
		Tipo:          tipo,
		Sentido:       sentido,
		Concepto:      concepto,
		Monto:         req.Monto,
		MetodoPago:    metodo,
		Notas:         req.Notas,
		RegistradoPor: actor.ID,
	}

	if tipo.RequiereSupervisor() && req.Monto.GreaterThan(s.opts.Umbral) {
		if !actor.EsSupervisor() {
			return nil, ErrAutorizacionRequerida
		}
		autorizadoPor := actor.ID
		mov.RequiereAutorizacion = true
		mov.Autorizado = true
		mov.AutorizadoPor = &autorizadoPor
	}
	return mov, nil
}

func (s *turnoService) ListarMovimientos(ctx context.Context, turnoID uuid.UUID) ([]dto.MovimientoResponse, error) {
	if _, err := s.buscarTurno(ctx, turnoID); err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, turnoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		out = append(out, toMovimientoResponse(&movs[i]))
	}
	return out, nil
}

// ── Cierre ────────────────────────────────────────────────────────────────────

func (s *turnoService) CerrarTurno(ctx context.Context, actor Actor, turnoID uuid.UUID, req dto.CierreRequest) (*dto.CierreResponse, error) {
	return s.cerrar(ctx, actor, turnoID, cierre{
		estado:      model.TurnoCerrado,
		contado:     req.EfectivoContado,
		notasCierre: req.NotasCierre,
		notasArqueo: req.NotasArqueo,
	})
}

// CierreForzado closes a shift the cashier cannot close. It still requires
// every table to be settled, tolerates any variance and never triggers the
// daily report.
func (s *turnoService) CierreForzado(ctx context.Context, actor Actor, turnoID uuid.UUID, req dto.CierreForzadoRequest) (*dto.CierreResponse, error) {
	if !actor.EsSupervisor() {
		s.rechazo("cierre_forzado", ErrProhibido)
		return nil, ErrProhibido
	}
	motivo := strings.TrimSpace(req.Motivo)
	if motivo == "" {
		return nil, invalido("motivo", "requerido")
	}
	return s.cerrar(ctx, actor, turnoID, cierre{
		estado:      model.TurnoCerradoForzado,
		contado:     req.EfectivoContado,
		notasCierre: &motivo,
	})
}

type cierre struct {
	estado      model.EstadoTurno
	contado     *decimal.Decimal
	notasCierre *string
	notasArqueo *string
}

func (s *turnoService) cerrar(ctx context.Context, actor Actor, turnoID uuid.UUID, c cierre) (*dto.CierreResponse, error) {
	op := "cierre"
	if c.estado == model.TurnoCerradoForzado {
		op = "cierre_forzado"
	}
	if c.contado == nil {
		return nil, invalido("efectivo_contado", "requerido")
	}
	if err := validarMonto("efectivo_contado", *c.contado, false); err != nil {
		return nil, err
	}

	turno, err := s.buscarTurno(ctx, turnoID)
	if err != nil {
		return nil, err
	}
	if !turno.Abierto() {
		s.rechazo(op, ErrSinTurnoAbierto)
		return nil, ErrSinTurnoAbierto
	}

	// Outside the lock: the external call is bounded by its own timeout.
	if err := s.arq.verificarMesas(ctx, turno.Caja); err != nil {
		s.rechazo(op, err)
		return nil, err
	}

	var (
		totales   Totales
		resultado ResultadoArqueo
	)
	err = s.repo.ConCajaBloqueada(ctx, turno.Caja, func(tx repository.TurnoRepository) error {
		actual, err := tx.FindTurnoByID(ctx, turnoID)
		if err != nil {
			return err
		}
		if !actual.Abierto() {
			return ErrSinTurnoAbierto
		}
		movs, err := tx.ListMovimientos(ctx, turnoID)
		if err != nil {
			return err
		}

		totales = Totalizar(actual.MontoInicial, movs)
		resultado = CalcularDesvio(*c.contado, totales.SaldoEfectivo)

		ahora := s.now()
		cerradoPor := actor.ID
		clasificacion := resultado.Clasificacion
		actual.Estado = c.estado
		actual.CerradoEn = &ahora
		actual.CerradoPor = &cerradoPor
		actual.NotasCierre = c.notasCierre
		actual.NotasArqueo = c.notasArqueo
		actual.EfectivoContado = &resultado.Contado
		actual.EfectivoEsperado = &resultado.Esperado
		actual.Desvio = &resultado.Desvio
		actual.ClasificacionDesvio = &clasificacion

		ok, err := tx.CerrarTurno(ctx, actual)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSinTurnoAbierto
		}
		turno = actual
		return nil
	})
	if err != nil {
		s.rechazo(op, err)
		return nil, err
	}

	log.Info().
		Str("caja", turno.Caja).
		Str("turno_id", turno.ID.String()).
		Str("estado", string(turno.Estado)).
		Str("desvio", resultado.Desvio.StringFixed(2)).
		Str("clasificacion", string(resultado.Clasificacion)).
		Msg("turno cerrado")
	s.opts.Metrics.RecordTurnoCerrado(turno.Caja, string(turno.Estado))
	s.opts.Metrics.RecordDesvio(string(resultado.Clasificacion), resultado.Desvio.Abs().InexactFloat64())

	tipoEvento := model.EventoTurnoCerrado
	if turno.Estado == model.TurnoCerradoForzado {
		tipoEvento = model.EventoTurnoCerradoForzado
	}
	s.publicar(ctx, tipoEvento, turno)

	resp := &dto.CierreResponse{
		Turno: toTurnoResponse(turno),
		Arqueo: dto.ArqueoResponse{
			EfectivoEsperado: resultado.Esperado,
			EfectivoContado:  resultado.Contado,
			Desvio:           resultado.Desvio,
			Clasificacion:    string(resultado.Clasificacion),
		},
		Totales: toTotalesResponse(totales),
	}

	if turno.Estado == model.TurnoCerrado && turno.Numero == s.opts.MaxTurnos && s.trigger != nil {
		s.dispararReporte(ctx, turno, resp)
	}
	return resp, nil
}

// dispararReporte runs the daily report for the register. The close is
// already committed: every failure here becomes a warning.
func (s *turnoService) dispararReporte(ctx context.Context, turno *model.Turno, resp *dto.CierreResponse) {
	rep, err := s.trigger.TercerCierre(context.WithoutCancel(ctx), turno)
	if rep != nil {
		id := rep.ID.String()
		resp.ReporteGenerado = true
		resp.ReporteID = &id
	}
	if err == nil {
		return
	}

	var despacho *DespachoReporteError
	if errors.As(err, &despacho) {
		log.Error().Err(err).Str("caja", turno.Caja).Msg("reporte diario generado pero no despachado")
		resp.Advertencias = append(resp.Advertencias, "el reporte diario se generó pero no pudo enviarse por correo")
		return
	}
	log.Error().Err(err).Str("caja", turno.Caja).Str("turno_id", turno.ID.String()).Msg("no se pudo generar el reporte diario")
	resp.Advertencias = append(resp.Advertencias, "no se pudo generar el reporte diario")
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *turnoService) ObtenerTurno(ctx context.Context, turnoID uuid.UUID) (*dto.TurnoDetalleResponse, error) {
	turno, err := s.buscarTurno(ctx, turnoID)
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, turnoID)
	if err != nil {
		return nil, err
	}
	out := &dto.TurnoDetalleResponse{
		Turno:       toTurnoResponse(turno),
		Totales:     toTotalesResponse(Totalizar(turno.MontoInicial, movs)),
		Movimientos: make([]dto.MovimientoResponse, 0, len(movs)),
	}
	for i := range movs {
		out.Movimientos = append(out.Movimientos, toMovimientoResponse(&movs[i]))
	}
	return out, nil
}

func (s *turnoService) TurnoActivo(ctx context.Context, caja string) (*dto.TurnoResponse, error) {
	turno, err := s.repo.FindTurnoAbierto(ctx, caja)
	if err != nil {
		return nil, err
	}
	if turno == nil {
		return nil, ErrNoEncontrado
	}
	resp := toTurnoResponse(turno)
	return &resp, nil
}

func (s *turnoService) Historial(ctx context.Context, filter dto.HistorialFilter) (*dto.HistorialResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	f := repository.TurnoFiltro{Caja: filter.Caja, Page: filter.Page, Limit: filter.Limit}
	if filter.Desde != "" {
		d, err := time.ParseInLocation("2006-01-02", filter.Desde, s.opts.Location)
		if err != nil {
			return nil, invalido("desde", "formato esperado YYYY-MM-DD")
		}
		f.Desde = d
	}
	if filter.Hasta != "" {
		h, err := time.ParseInLocation("2006-01-02", filter.Hasta, s.opts.Location)
		if err != nil {
			return nil, invalido("hasta", "formato esperado YYYY-MM-DD")
		}
		f.Hasta = h.AddDate(0, 0, 1)
	}
	if !f.Desde.IsZero() && !f.Hasta.IsZero() && !f.Desde.Before(f.Hasta) {
		return nil, invalido("desde", "debe ser anterior o igual a hasta")
	}

	turnos, total, err := s.repo.ListTurnos(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.TurnoResponse, 0, len(turnos))
	for i := range turnos {
		data = append(data, toTurnoResponse(&turnos[i]))
	}
	return &dto.HistorialResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// PuedeOperar is the gate consulted before billing tables.
func (s *turnoService) PuedeOperar(ctx context.Context, caja string) (*dto.EstadoCajaResponse, error) {
	turno, err := s.repo.FindTurnoAbierto(ctx, caja)
	if err != nil {
		return nil, err
	}
	if turno == nil {
		motivo := "sin_turno_abierto"
		return &dto.EstadoCajaResponse{Caja: caja, Permitido: false, Motivo: &motivo}, nil
	}
	return &dto.EstadoCajaResponse{
		Caja:      caja,
		Permitido: true,
		TurnoActivo: &dto.TurnoActivoResumen{
			ID:         turno.ID.String(),
			Etiqueta:   turno.Etiqueta,
			Numero:     turno.Numero,
			AbiertoPor: turno.AbiertoPor.String(),
			AbiertoEn:  turno.AbiertoEn.Format(time.RFC3339),
		},
	}, nil
}

func (s *turnoService) TurnosHoy(ctx context.Context, caja string) (*dto.TurnosHoyResponse, error) {
	desde, hasta := s.dia(s.now())
	n, err := s.repo.CountTurnosEntre(ctx, caja, desde, hasta)
	if err != nil {
		return nil, err
	}
	resp := &dto.TurnosHoyResponse{
		Caja:        caja,
		Fecha:       desde.Format("2006-01-02"),
		Abiertos:    n,
		Maximo:      s.opts.MaxTurnos,
		Disponibles: max(s.opts.MaxTurnos-n, 0),
	}
	if n < s.opts.MaxTurnos {
		siguiente := n + 1
		resp.Siguiente = &siguiente
	}
	return resp, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *turnoService) now() time.Time { return s.opts.Now().In(s.opts.Location) }

// dia returns [startOfDay, startOfNextDay) of t in the configured zone.
func (s *turnoService) dia(t time.Time) (time.Time, time.Time) {
	t = t.In(s.opts.Location)
	desde := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.opts.Location)
	return desde, desde.AddDate(0, 0, 1)
}

func (s *turnoService) buscarTurno(ctx context.Context, id uuid.UUID) (*model.Turno, error) {
	turno, err := s.repo.FindTurnoByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoEncontrado
	}
	if err != nil {
		return nil, err
	}
	return turno, nil
}

func (s *turnoService) publicar(ctx context.Context, tipo model.TipoEvento, t *model.Turno) {
	if s.eventos == nil {
		return
	}
	ev := model.EventoTurno{Tipo: tipo, Caja: t.Caja, TurnoID: t.ID, Etiqueta: t.Etiqueta, Ocurrido: s.now()}
	if err := s.eventos.PublicarEvento(context.WithoutCancel(ctx), ev); err != nil {
		// Consumers still see the change on their next poll.
		log.Warn().Err(err).Str("caja", t.Caja).Str("evento", string(tipo)).Msg("no se pudo publicar evento de turno")
	}
}

func (s *turnoService) rechazo(op string, err error) {
	motivo := "interno"
	switch {
	case errors.Is(err, ErrConflicto):
		motivo = "conflicto"
	case errors.Is(err, ErrTopeDiario):
		motivo = "tope_diario"
	case errors.Is(err, ErrSinTurnoAbierto):
		motivo = "sin_turno_abierto"
	case errors.Is(err, ErrValidacion):
		motivo = "validacion"
	case errors.Is(err, ErrAutorizacionRequerida):
		motivo = "autorizacion"
	case errors.Is(err, ErrProhibido):
		motivo = "prohibido"
	case errors.Is(err, ErrEstadoExternoPendiente):
		motivo = "mesas_pendientes"
	case errors.Is(err, ErrNoEncontrado):
		motivo = "no_encontrado"
	}
	s.opts.Metrics.RecordRechazo(op, motivo)
}

func toTurnoResponse(t *model.Turno) dto.TurnoResponse {
	r := dto.TurnoResponse{
		ID:               t.ID.String(),
		Caja:             t.Caja,
		Numero:           t.Numero,
		Etiqueta:         t.Etiqueta,
		Fecha:            t.Fecha.Format("2006-01-02"),
		Estado:           string(t.Estado),
		MontoInicial:     t.MontoInicial,
		NotasApertura:    t.NotasApertura,
		NotasCierre:      t.NotasCierre,
		NotasArqueo:      t.NotasArqueo,
		AbiertoPor:       t.AbiertoPor.String(),
		AbiertoEn:        t.AbiertoEn.Format(time.RFC3339),
		EfectivoContado:  t.EfectivoContado,
		EfectivoEsperado: t.EfectivoEsperado,
		Desvio:           t.Desvio,
	}
	if t.CerradoPor != nil {
		s := t.CerradoPor.String()
		r.CerradoPor = &s
	}
	if t.CerradoEn != nil {
		s := t.CerradoEn.Format(time.RFC3339)
		r.CerradoEn = &s
	}
	if t.ClasificacionDesvio != nil {
		s := string(*t.ClasificacionDesvio)
		r.ClasificacionDesvio = &s
	}
	return r
}

func toMovimientoResponse(m *model.MovimientoCaja) dto.MovimientoResponse {
	r := dto.MovimientoResponse{
		ID:                   m.ID.String(),
		TurnoID:              m.TurnoID.String(),
		Tipo:                 string(m.Tipo),
		Sentido:              string(m.Sentido),
		Concepto:             m.Concepto,
		Monto:                m.Monto,
		MetodoPago:           string(m.MetodoPago),
		Notas:                m.Notas,
		RegistradoEn:         m.RegistradoEn.Format(time.RFC3339),
		RegistradoPor:        m.RegistradoPor.String(),
		RequiereAutorizacion: m.RequiereAutorizacion,
		Autorizado:           m.Autorizado,
	}
	if m.AutorizadoPor != nil {
		s := m.AutorizadoPor.String()
		r.AutorizadoPor = &s
	}
	return r
}

func toTotalesResponse(t Totales) dto.TotalesResponse {
	r := dto.TotalesResponse{
		PorTipo:          make(map[string]decimal.Decimal, len(t.PorTipo)),
		PorMetodo:        make(map[string]decimal.Decimal, len(t.PorMetodo)),
		IngresosEfectivo: t.IngresosEfectivo,
		EgresosEfectivo:  t.EgresosEfectivo,
		SaldoEfectivo:    t.SaldoEfectivo,
		Cantidad:         t.Cantidad,
	}
	for k, v := range t.PorTipo {
		r.PorTipo[string(k)] = v
	}
	for k, v := range t.PorMetodo {
		r.PorMetodo[string(k)] = v
	}
	return r
}
