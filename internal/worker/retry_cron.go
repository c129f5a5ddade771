package worker

// retry_cron.go
// Background goroutine that periodically re-attempts the delivery of daily
// reports stuck in estado_envio='fallido' with a proximo_intento in the past.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cobrofacil/internal/model"
	"cobrofacil/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxReporteReintentos bounds delivery rounds (queue round included)
	// before a report is marked error and sent to the DLQ.
	MaxReporteReintentos = 5
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Reportes repository.ReporteRepository
	Worker   *ReporteWorker
	RDB      redis.Cmdable
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries failed deliveries and re-attempts them once each.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	reportes, err := cfg.Reportes.ListPendingRetries(ctx, cfg.Worker.now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(reportes) == 0 {
		return
	}

	log.Info().Int("count", len(reportes)).Msg("retry_cron: processing pending reportes")

	for i := range reportes {
		rep := &reportes[i]
		sendErr := cfg.Worker.send(rep)

		if sendErr != nil && rep.Intentos+1 >= MaxReporteReintentos {
			rep.Intentos++
			msg := sendErr.Error()
			rep.EstadoEnvio = model.EnvioError
			rep.UltimoError = &msg
			rep.ProximoIntento = nil
			cfg.Worker.metrics.RecordEnvioReporte(string(model.EnvioError))
			log.Error().
				Str("reporte_id", rep.ID.String()).
				Str("caja", rep.Caja).
				Int("intentos", rep.Intentos).
				Msg("retry_cron: max retries exceeded, moving to error/DLQ")

			payload, _ := json.Marshal(ReporteJobPayload{ReporteID: rep.ID.String()})
			if err := SendToDLQ(ctx, cfg.RDB, DLQEntry{
				Queue:    QueueReportes,
				JobType:  JobReporteEmail,
				Payload:  payload,
				Motivo:   fmt.Sprintf("max retries (%d) exceeded: %s", MaxReporteReintentos, msg),
				Intentos: rep.Intentos,
			}); err != nil {
				log.Error().Err(err).Str("reporte_id", rep.ID.String()).Msg("retry_cron: failed to push to DLQ")
			}

			if err := cfg.Reportes.Update(ctx, rep); err != nil {
				log.Error().Err(err).Str("reporte_id", rep.ID.String()).Msg("retry_cron: failed to persist error state")
			}
			continue
		}

		cfg.Worker.registrar(ctx, rep, sendErr)
	}
}

// computeRetryBackoff returns the wait before delivery round n+1:
// 1m, 2m, 4m … capped at 30m.
func computeRetryBackoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := time.Minute << uint(n-1)
	if d > 30*time.Minute || d <= 0 {
		return 30 * time.Minute
	}
	return d
}
