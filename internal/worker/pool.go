package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReportes = "jobs:reportes"

	JobReporteEmail = "reporte_email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReporteEmail pushes the delivery of a stored daily report.
func (d *Dispatcher) EnqueueReporteEmail(ctx context.Context, reporteID uuid.UUID) error {
	return d.enqueue(ctx, QueueReportes, JobReporteEmail, ReporteJobPayload{ReporteID: reporteID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// JobProcessor handles one job payload.
type JobProcessor interface {
	Process(ctx context.Context, raw json.RawMessage)
}

// WorkerHandlers routes job types to their processors.
type WorkerHandlers struct {
	Reporte JobProcessor
}

// brpopBackoff spaces BRPOP retries while Redis is unreachable.
var brpopBackoff = time.Second

// StartWorkerPool launches numWorkers goroutines consuming the queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueReportes}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if !esperarTrasError(ctx, id, err) {
					log.Info().Msgf("worker %d shutting down", id)
					return
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, handlers, result[0], result[1])
		}
	}
}

// esperarTrasError reports whether the worker should keep polling after a
// failed BRPOP. An empty pop retries at once; any other error waits
// brpopBackoff first.
func esperarTrasError(ctx context.Context, id int, err error) bool {
	if errors.Is(err, redis.Nil) {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	log.Warn().Err(err).Int("worker", id).Dur("backoff", brpopBackoff).Msg("brpop failed")
	t := time.NewTimer(brpopBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func processJob(ctx context.Context, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("processing job")

	switch job.Type {
	case JobReporteEmail:
		if handlers == nil || handlers.Reporte == nil {
			log.Error().Str("type", job.Type).Msg("no handler wired for job type")
			return
		}
		handlers.Reporte.Process(ctx, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type, discarded")
	}
}
