package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cobrofacil/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CanalEventosPrefix + caja is the pub/sub channel of a register.
const CanalEventosPrefix = "turnos:eventos:"

// ErrEventBusCerrado is returned by Suscribir once the bus has been closed.
var ErrEventBusCerrado = errors.New("eventos: bus cerrado")

// EventBus publishes and relays shift lifecycle events over Redis pub/sub.
type EventBus struct {
	rdb  *redis.Client
	done chan struct{}
	once sync.Once
}

func NewEventBus(rdb *redis.Client) *EventBus {
	return &EventBus{rdb: rdb, done: make(chan struct{})}
}

// Cerrar ends every live subscription and refuses new ones. Meant for
// http.Server.RegisterOnShutdown so open streams do not hold up Shutdown.
func (b *EventBus) Cerrar() {
	b.once.Do(func() { close(b.done) })
}

func CanalEventos(caja string) string { return CanalEventosPrefix + caja }

func (b *EventBus) PublicarEvento(ctx context.Context, ev model.EventoTurno) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventos: marshal: %w", err)
	}
	return b.rdb.Publish(ctx, CanalEventos(ev.Caja), data).Err()
}

// Suscribir relays the events of one register until ctx is done. The
// returned channel is closed when the subscription ends.
func (b *EventBus) Suscribir(ctx context.Context, caja string) (<-chan model.EventoTurno, error) {
	select {
	case <-b.done:
		return nil, ErrEventBusCerrado
	default:
	}
	sub := b.rdb.Subscribe(ctx, CanalEventos(caja))
	// Wait for the subscription confirmation so callers know it is live.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("eventos: subscribe: %w", err)
	}

	out := make(chan model.EventoTurno, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev model.EventoTurno
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("canal", msg.Channel).Msg("eventos: payload inválido")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				case <-b.done:
					return
				}
			}
		}
	}()
	return out, nil
}
