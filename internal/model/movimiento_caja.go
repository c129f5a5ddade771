package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoMovimiento is the closed set of ledger entry kinds.
type TipoMovimiento string

const (
	MovVenta         TipoMovimiento = "venta"
	MovAporte        TipoMovimiento = "aporte"
	MovRetiro        TipoMovimiento = "retiro"
	MovGasto         TipoMovimiento = "gasto"
	MovPagoProveedor TipoMovimiento = "pago_proveedor"
	MovAjuste        TipoMovimiento = "ajuste"
	MovTransferencia TipoMovimiento = "transferencia"
	MovArqueo        TipoMovimiento = "arqueo"
)

// TiposMovimiento lists every valid kind in display order.
var TiposMovimiento = []TipoMovimiento{
	MovVenta, MovAporte, MovRetiro, MovGasto, MovPagoProveedor, MovAjuste, MovTransferencia, MovArqueo,
}

// Sentido is the direction of a movement relative to the register.
type Sentido string

const (
	Ingreso Sentido = "ingreso"
	Egreso  Sentido = "egreso"
)

// MetodoPago: "efectivo" | "debito" | "credito" | "transferencia" | "qr"
type MetodoPago string

const (
	PagoEfectivo      MetodoPago = "efectivo"
	PagoDebito        MetodoPago = "debito"
	PagoCredito       MetodoPago = "credito"
	PagoTransferencia MetodoPago = "transferencia"
	PagoQR            MetodoPago = "qr"
)

// MetodosPago lists every valid payment method in display order.
var MetodosPago = []MetodoPago{PagoEfectivo, PagoDebito, PagoCredito, PagoTransferencia, PagoQR}

// SentidoFijo returns the direction implied by the kind. ok is false for the
// kinds whose direction must be stated explicitly (ajuste, transferencia, arqueo).
func (t TipoMovimiento) SentidoFijo() (s Sentido, ok bool) {
	switch t {
	case MovVenta, MovAporte:
		return Ingreso, true
	case MovRetiro, MovGasto, MovPagoProveedor:
		return Egreso, true
	}
	return "", false
}

// Valido reports whether t is one of the known kinds.
func (t TipoMovimiento) Valido() bool {
	for _, k := range TiposMovimiento {
		if k == t {
			return true
		}
	}
	return false
}

// RequiereSupervisor reports whether the kind is subject to the
// authorization ceiling.
func (t TipoMovimiento) RequiereSupervisor() bool {
	return t == MovRetiro || t == MovGasto || t == MovPagoProveedor
}

// Valido reports whether m is one of the known payment methods.
func (m MetodoPago) Valido() bool {
	for _, k := range MetodosPago {
		if k == m {
			return true
		}
	}
	return false
}

// MovimientoCaja is an immutable event in the register ledger.
// Monto is always positive; direction lives in Sentido.
// Movements are NEVER modified or deleted; corrections are new "ajuste" entries.
type MovimientoCaja struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TurnoID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo       TipoMovimiento  `gorm:"type:varchar(20);not null"`
	Sentido    Sentido         `gorm:"type:varchar(10);not null"`
	Concepto   string          `gorm:"not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	MetodoPago MetodoPago      `gorm:"type:varchar(20);not null"`
	Notas      *string

	RegistradoEn  time.Time `gorm:"not null"`
	RegistradoPor uuid.UUID `gorm:"type:uuid;not null"`

	RequiereAutorizacion bool       `gorm:"not null;default:false"`
	Autorizado           bool       `gorm:"not null;default:false"`
	AutorizadoPor        *uuid.UUID `gorm:"type:uuid"`
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

// Signed returns the amount with the sign implied by Sentido.
func (m MovimientoCaja) Signed() decimal.Decimal {
	if m.Sentido == Egreso {
		return m.Monto.Neg()
	}
	return m.Monto
}
