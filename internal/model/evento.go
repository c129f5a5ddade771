package model

import (
	"time"

	"github.com/google/uuid"
)

// MesaPendiente is a table with an issued but unpaid invoice, as reported by
// the table/billing system.
type MesaPendiente struct {
	ID       string `json:"id"`
	Etiqueta string `json:"etiqueta"`
	Area     string `json:"area"`
}

// TipoEvento names a shift lifecycle event pushed to gate consumers.
type TipoEvento string

const (
	EventoTurnoAbierto        TipoEvento = "turno.abierto"
	EventoTurnoCerrado        TipoEvento = "turno.cerrado"
	EventoTurnoCerradoForzado TipoEvento = "turno.cerrado_forzado"
)

// EventoTurno is published on every open/close so that consumers of the
// gate can re-query instead of polling.
type EventoTurno struct {
	Tipo     TipoEvento `json:"tipo"`
	Caja     string     `json:"caja"`
	TurnoID  uuid.UUID  `json:"turno_id"`
	Etiqueta string     `json:"etiqueta"`
	Ocurrido time.Time  `json:"ocurrido"`
}
