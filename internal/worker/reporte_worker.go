package worker

// reporte_worker.go
// Processes reporte_email jobs from QueueReportes.
// Sends the consolidated daily report PDF to the register's distribution list.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cobrofacil/internal/metrics"
	"cobrofacil/internal/model"
	"cobrofacil/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReporteJobPayload is the job envelope sent to QueueReportes.
type ReporteJobPayload struct {
	ReporteID string `json:"reporte_id"`
}

// ReporteMailer delivers one report to all its recipients.
type ReporteMailer interface {
	SendReporte(to []string, subject, body, pdfPath string) error
}

// ReporteWorker sends stored reports and records the delivery outcome on
// the report row. Delivery state lives in the database, so the retry cron
// can pick up where the queue left off.
type ReporteWorker struct {
	repo     repository.ReporteRepository
	mailer   ReporteMailer
	metrics  *metrics.Metrics
	attempts int
	now      func() time.Time
}

func NewReporteWorker(repo repository.ReporteRepository, mailer ReporteMailer, m *metrics.Metrics) *ReporteWorker {
	return &ReporteWorker{repo: repo, mailer: mailer, metrics: m, attempts: 3, now: time.Now}
}

// Process sends the report named by the job, retrying with backoff.
func (w *ReporteWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReporteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("reporte_worker: invalid payload")
		return
	}
	id, err := uuid.Parse(payload.ReporteID)
	if err != nil {
		log.Error().Str("reporte_id", payload.ReporteID).Msg("reporte_worker: invalid reporte_id")
		return
	}

	rep, err := w.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Str("reporte_id", payload.ReporteID).Msg("reporte_worker: reporte not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("reporte_id", payload.ReporteID).Msg("reporte_worker: failed to load reporte")
		return
	}
	if rep.EstadoEnvio == model.EnvioEnviado || rep.EstadoEnvio == model.EnvioSinDestinatarios {
		log.Info().Str("reporte_id", payload.ReporteID).Str("estado", string(rep.EstadoEnvio)).Msg("reporte_worker: nothing to send")
		return
	}

	sendErr := withRetry(ctx, w.attempts, func(attempt int) error {
		err := w.send(rep)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("reporte_id", payload.ReporteID).
				Msg("reporte_worker: send attempt failed")
		}
		return err
	})
	w.registrar(ctx, rep, sendErr)
}

func (w *ReporteWorker) send(rep *model.ReporteDiario) error {
	if len(rep.Destinatarios) == 0 {
		return errors.New("reporte sin destinatarios")
	}
	pdfPath := ""
	if rep.PDFPath != nil {
		pdfPath = *rep.PDFPath
	}
	subject := fmt.Sprintf("Reporte diario - Caja %s - %s", rep.Caja, rep.Fecha.Format("02/01/2006"))
	body := fmt.Sprintf(
		"Se cerró el último turno del día en la caja %s.\nTotal ventas: $%s\nDesvío total: $%s\nTurnos: %d\n",
		rep.Caja, rep.Contenido.TotalVentas.StringFixed(2), rep.Contenido.DesvioTotal.StringFixed(2), len(rep.Contenido.Turnos),
	)
	return w.mailer.SendReporte(rep.Destinatarios, subject, body, pdfPath)
}

// registrar persists the outcome of one delivery round. A failure schedules
// the next attempt; past MaxReporteReintentos the report is marked error
// and moved to the DLQ by the caller.
func (w *ReporteWorker) registrar(ctx context.Context, rep *model.ReporteDiario, sendErr error) {
	rep.Intentos++
	if sendErr == nil {
		now := w.now()
		rep.EstadoEnvio = model.EnvioEnviado
		rep.EnviadoEn = &now
		rep.ProximoIntento = nil
		rep.UltimoError = nil
		w.metrics.RecordEnvioReporte(string(model.EnvioEnviado))
		log.Info().Str("reporte_id", rep.ID.String()).Strs("to", rep.Destinatarios).Msg("reporte_worker: reporte sent")
	} else {
		msg := sendErr.Error()
		next := w.now().Add(computeRetryBackoff(rep.Intentos))
		rep.EstadoEnvio = model.EnvioFallido
		rep.UltimoError = &msg
		rep.ProximoIntento = &next
		w.metrics.RecordEnvioReporte(string(model.EnvioFallido))
		log.Error().Err(sendErr).Str("reporte_id", rep.ID.String()).Time("proximo_intento", next).Msg("reporte_worker: delivery failed")
	}
	if err := w.repo.Update(ctx, rep); err != nil {
		log.Error().Err(err).Str("reporte_id", rep.ID.String()).Msg("reporte_worker: failed to persist delivery state")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
