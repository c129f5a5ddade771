package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoTurno: "abierto" | "cerrado" | "cerrado_forzado"
type EstadoTurno string

const (
	TurnoAbierto        EstadoTurno = "abierto"
	TurnoCerrado        EstadoTurno = "cerrado"
	TurnoCerradoForzado EstadoTurno = "cerrado_forzado"
)

// Terminal reports whether no further transition is possible.
func (e EstadoTurno) Terminal() bool {
	return e == TurnoCerrado || e == TurnoCerradoForzado
}

// ClasificacionDesvio: "cuadrado" | "sobrante" | "faltante"
type ClasificacionDesvio string

const (
	DesvioCuadrado ClasificacionDesvio = "cuadrado"
	DesvioSobrante ClasificacionDesvio = "sobrante"
	DesvioFaltante ClasificacionDesvio = "faltante"
)

// Turno is a work shift against one register (caja).
// At most one Turno per Caja may be "abierto"; enforced by the partial unique
// index ux_turnos_caja_abierto and by the per-caja advisory lock.
// Turnos are never deleted.
type Turno struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Caja string    `gorm:"type:varchar(40);not null;index"`
	// Numero is the 1-based position of the shift within Fecha for this Caja.
	Numero   int       `gorm:"not null"`
	Etiqueta string    `gorm:"type:varchar(40);not null"`
	Fecha    time.Time `gorm:"type:date;not null"`

	MontoInicial  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	NotasApertura *string
	NotasCierre   *string
	NotasArqueo   *string

	Estado     EstadoTurno `gorm:"type:varchar(20);not null;default:'abierto'"`
	AbiertoPor uuid.UUID   `gorm:"type:uuid;not null"`
	CerradoPor *uuid.UUID  `gorm:"type:uuid"`
	AbiertoEn  time.Time   `gorm:"not null"`
	CerradoEn  *time.Time

	// Closing stamps, set exactly once at the terminal transition.
	EfectivoContado     *decimal.Decimal     `gorm:"type:decimal(14,2)"`
	EfectivoEsperado    *decimal.Decimal     `gorm:"type:decimal(14,2)"`
	Desvio              *decimal.Decimal     `gorm:"type:decimal(14,2)"`
	ClasificacionDesvio *ClasificacionDesvio `gorm:"type:varchar(20)"`

	Movimientos []MovimientoCaja `gorm:"foreignKey:TurnoID"`
}

func (Turno) TableName() string { return "turnos" }

// Abierto reports whether movements may still be appended.
func (t *Turno) Abierto() bool { return t.Estado == TurnoAbierto }
