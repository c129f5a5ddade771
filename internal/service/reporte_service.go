package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

// reintentoDespacho is how long a report waits for the retry cron after its
// mail job could not be queued.
const reintentoDespacho = time.Minute

// plazoVentas bounds the catalog call made on the closing request.
const plazoVentas = 3 * time.Second

// VentasAgregador is the catalog collaborator that knows what was sold.
type VentasAgregador interface {
	ResumenVentas(ctx context.Context, caja string, desde, hasta time.Time) ([]model.VentaProducto, error)
}

// RenderizadorReporte writes the printable version of a report and returns its path.
type RenderizadorReporte interface {
	RenderReporte(c *model.ContenidoReporte) (string, error)
}

// DespachadorReporte queues the report mail for the worker pool.
type DespachadorReporte interface {
	EnqueueReporteEmail(ctx context.Context, reporteID uuid.UUID) error
}

type ReporteService interface {
	ReporteTrigger
	Listar(ctx context.Context, caja string, page, limit int) (*dto.ReporteListResponse, error)
	RutaPDF(ctx context.Context, id uuid.UUID) (string, error)
}

type ReporteDeps struct {
	Turnos       repository.TurnoRepository
	Reportes     repository.ReporteRepository
	Distribucion repository.DistribucionRepository
	Ventas       VentasAgregador
	Renderer     RenderizadorReporte
	Despachador  DespachadorReporte
	Metrics      *metrics.Metrics
	Now          func() time.Time
	PlazoVentas  time.Duration
}

type reporteService struct {
	ReporteDeps
}

func NewReporteService(deps ReporteDeps) ReporteService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.PlazoVentas <= 0 {
		deps.PlazoVentas = plazoVentas
	}
	return &reporteService{ReporteDeps: deps}
}

// ── TercerCierre ──────────────────────────────────────────────────────────────
// Generation is synchronous; only the mail is queued.

func (s *reporteService) TercerCierre(ctx context.Context, turno *model.Turno) (*model.ReporteDiario, error) {
	logger := log.With().Str("caja", turno.Caja).Str("fecha", turno.Fecha.Format("2006-01-02")).Logger()

	turnos, err := s.Turnos.ListTurnosDelDia(ctx, turno.Caja, turno.Fecha)
	if err != nil {
		return nil, fmt.Errorf("reporte: turnos del día: %w", err)
	}
	contenido := consolidar(turno.Caja, turno.Fecha, turnos, s.Now())

	desde, hasta := rangoVentas(turno, turnos, s.Now())
	vctx, cancel := context.WithTimeout(ctx, s.PlazoVentas)
	productos, err := s.Ventas.ResumenVentas(vctx, turno.Caja, desde, hasta)
	cancel()
	if err != nil {
		logger.Warn().Err(err).Msg("reporte: resumen de ventas no disponible")
		contenido.Advertencias = append(contenido.Advertencias,
			"el detalle de ventas por producto no estuvo disponible al generar el reporte")
	} else {
		contenido.Productos = productos
		contenido.Categorias = agruparCategorias(productos)
	}

	dist, err := s.Distribucion.Get(ctx, turno.Caja)
	if err != nil {
		return nil, fmt.Errorf("reporte: lista de distribución: %w", err)
	}

	rep := &model.ReporteDiario{
		Caja:          turno.Caja,
		Fecha:         turno.Fecha,
		Destinatarios: append([]string{}, dist.Emails...),
		EstadoEnvio:   model.EnvioPendiente,
	}
	if len(rep.Destinatarios) == 0 {
		rep.EstadoEnvio = model.EnvioSinDestinatarios
	}

	if s.Renderer != nil {
		path, err := s.Renderer.RenderReporte(&contenido)
		if err != nil {
			logger.Warn().Err(err).Msg("reporte: no se pudo generar el PDF")
			contenido.Advertencias = append(contenido.Advertencias, "no se pudo generar el PDF del reporte")
		} else {
			rep.PDFPath = &path
		}
	}
	rep.Contenido = contenido

	if err := s.Reportes.Create(ctx, rep); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("reporte: ya existe un reporte para la caja %s del %s", rep.Caja, rep.Fecha.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("reporte: guardar: %w", err)
	}
	s.Metrics.RecordReporteGenerado(rep.Caja)
	logger.Info().Str("reporte_id", rep.ID.String()).Int("turnos", len(turnos)).Msg("reporte diario generado")

	if rep.EstadoEnvio == model.EnvioSinDestinatarios {
		logger.Info().Msg("reporte: sin destinatarios configurados, no se envía")
		s.Metrics.RecordEnvioReporte(string(model.EnvioSinDestinatarios))
		return rep, nil
	}

	if err := s.Despachador.EnqueueReporteEmail(ctx, rep.ID); err != nil {
		msg := err.Error()
		proximo := s.Now().Add(reintentoDespacho)
		rep.EstadoEnvio = model.EnvioFallido
		rep.UltimoError = &msg
		rep.ProximoIntento = &proximo
		if uerr := s.Reportes.Update(ctx, rep); uerr != nil {
			logger.Error().Err(uerr).Msg("reporte: no se pudo registrar el fallo de despacho")
		}
		return rep, &DespachoReporteError{Caja: rep.Caja, Causa: err}
	}
	return rep, nil
}

// consolidar folds every shift of the day into the report body.
func consolidar(caja string, fecha time.Time, turnos []model.Turno, ahora time.Time) model.ContenidoReporte {
	dia := NuevosTotales(decimal.Zero)
	c := model.ContenidoReporte{
		Caja:        caja,
		Fecha:       fecha.Format("2006-01-02"),
		GeneradoEn:  ahora,
		Turnos:      make([]model.ResumenTurno, 0, len(turnos)),
		DesvioTotal: decimal.Zero,
	}
	for _, t := range turnos {
		tot := Totalizar(t.MontoInicial, t.Movimientos)
		dia.Sumar(tot)
		c.Turnos = append(c.Turnos, model.ResumenTurno{
			TurnoID:          t.ID,
			Etiqueta:         t.Etiqueta,
			Estado:           t.Estado,
			AbiertoEn:        t.AbiertoEn,
			CerradoEn:        t.CerradoEn,
			MontoInicial:     t.MontoInicial,
			EfectivoEsperado: t.EfectivoEsperado,
			EfectivoContado:  t.EfectivoContado,
			Desvio:           t.Desvio,
			PorTipo:          tot.PorTipo,
			PorMetodo:        tot.PorMetodo,
		})
		if t.Desvio != nil {
			c.DesvioTotal = c.DesvioTotal.Add(*t.Desvio)
		}
		if t.Estado == model.TurnoCerradoForzado {
			c.Advertencias = append(c.Advertencias, fmt.Sprintf("%s fue cerrado forzosamente", t.Etiqueta))
		}
	}
	c.PorTipo = dia.PorTipo
	c.PorMetodo = dia.PorMetodo
	c.TotalVentas = dia.PorTipo[model.MovVenta]
	return c
}

// rangoVentas spans from the first opening of the day to the triggering close.
func rangoVentas(turno *model.Turno, turnos []model.Turno, ahora time.Time) (time.Time, time.Time) {
	desde := turno.AbiertoEn
	for _, t := range turnos {
		if t.AbiertoEn.Before(desde) {
			desde = t.AbiertoEn
		}
	}
	hasta := ahora
	if turno.CerradoEn != nil {
		hasta = *turno.CerradoEn
	}
	return desde, hasta
}

func agruparCategorias(productos []model.VentaProducto) []model.VentaCategoria {
	idx := make(map[string]int)
	var out []model.VentaCategoria
	for _, p := range productos {
		cat := p.Categoria
		if cat == "" {
			cat = "Sin categoría"
		}
		i, ok := idx[cat]
		if !ok {
			i = len(out)
			idx[cat] = i
			out = append(out, model.VentaCategoria{Categoria: cat})
		}
		out[i].Cantidad = out[i].Cantidad.Add(p.Cantidad)
		out[i].Total = out[i].Total.Add(p.Total)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Total.GreaterThan(out[b].Total) })
	return out
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *reporteService) Listar(ctx context.Context, caja string, page, limit int) (*dto.ReporteListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	reps, total, err := s.Reportes.ListByCaja(ctx, caja, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ReporteResponse, 0, len(reps))
	for i := range reps {
		data = append(data, toReporteResponse(&reps[i]))
	}
	return &dto.ReporteListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *reporteService) RutaPDF(ctx context.Context, id uuid.UUID) (string, error) {
	rep, err := s.Reportes.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoEncontrado
	}
	if err != nil {
		return "", err
	}
	if rep.PDFPath == nil {
		return "", ErrNoEncontrado
	}
	return *rep.PDFPath, nil
}

func toReporteResponse(r *model.ReporteDiario) dto.ReporteResponse {
	dest := r.Destinatarios
	if dest == nil {
		dest = []string{}
	}
	return dto.ReporteResponse{
		ID:            r.ID.String(),
		Caja:          r.Caja,
		Fecha:         r.Fecha.Format("2006-01-02"),
		EstadoEnvio:   string(r.EstadoEnvio),
		Destinatarios: dest,
		Intentos:      r.Intentos,
		UltimoError:   r.UltimoError,
		TienePDF:      r.PDFPath != nil,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}
