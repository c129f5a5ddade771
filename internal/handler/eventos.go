package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"cobrofacil/internal/apierror"
	"cobrofacil/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const heartbeatEventos = 25 * time.Second

// SuscriptorEventos relays shift events of one register.
type SuscriptorEventos interface {
	Suscribir(ctx context.Context, caja string) (<-chan model.EventoTurno, error)
}

type EventosHandler struct{ sub SuscriptorEventos }

func NewEventosHandler(sub SuscriptorEventos) *EventosHandler { return &EventosHandler{sub: sub} }

// Stream godoc
// @Summary Eventos de apertura y cierre de turnos (Server-Sent Events)
// @Description Cada evento indica que el estado de la caja cambio; el cliente debe volver a consultar /v1/cajas/{caja}/estado.
// @Tags turnos
// @Produce text/event-stream
// @Security BearerAuth
// @Param caja query string true "Caja"
// @Success 200 {object} model.EventoTurno
// @Router /v1/turnos/eventos [get]
func (h *EventosHandler) Stream(c *gin.Context) {
	caja := strings.TrimSpace(c.Query("caja"))
	if caja == "" {
		c.JSON(http.StatusBadRequest, apierror.New("caja requerida"))
		return
	}

	ctx := c.Request.Context()
	eventos, err := h.sub.Suscribir(ctx, caja)
	if err != nil {
		log.Error().Err(err).Str("caja", caja).Msg("eventos: no se pudo suscribir")
		c.JSON(http.StatusServiceUnavailable, apierror.New("eventos no disponibles"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatEventos)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-eventos:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Tipo), ev)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().Unix()})
			return true
		}
	})
}
