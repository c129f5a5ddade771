package service

import (
	"errors"
	"fmt"
	"strings"

	"cobrofacil/internal/model"
)

// Sentinel errors, match with errors.Is. The structured errors below
// unwrap to one of these.
var (
	ErrNoEncontrado           = errors.New("turno no encontrado")
	ErrConflicto              = errors.New("ya existe un turno abierto en esta caja")
	ErrTopeDiario             = errors.New("se alcanzó el máximo de turnos diarios de la caja")
	ErrSinTurnoAbierto        = errors.New("no hay turno abierto")
	ErrValidacion             = errors.New("datos inválidos")
	ErrAutorizacionRequerida  = errors.New("el movimiento requiere autorización de un supervisor")
	ErrProhibido              = errors.New("permisos insuficientes")
	ErrEstadoExternoPendiente = errors.New("hay mesas con factura emitida sin cobrar")
	ErrDespachoReporte        = errors.New("no se pudo despachar el reporte diario")
)

// ConflictoError carries the shift that is already open on the register.
type ConflictoError struct {
	Turno *model.Turno
}

func (e *ConflictoError) Error() string {
	if e.Turno == nil {
		return ErrConflicto.Error()
	}
	return fmt.Sprintf("ya existe un turno abierto en la caja %s: %s (abierto %s)",
		e.Turno.Caja, e.Turno.Etiqueta, e.Turno.AbiertoEn.Format("15:04"))
}

func (e *ConflictoError) Unwrap() error { return ErrConflicto }

// TopeDiarioError reports how many shifts were already opened today.
type TopeDiarioError struct {
	Caja     string
	Abiertos int
	Maximo   int
}

func (e *TopeDiarioError) Error() string {
	return fmt.Sprintf("la caja %s ya abrió %d de %d turnos permitidos hoy", e.Caja, e.Abiertos, e.Maximo)
}

func (e *TopeDiarioError) Unwrap() error { return ErrTopeDiario }

// ValidacionError names the offending field.
type ValidacionError struct {
	Campo  string
	Motivo string
}

func (e *ValidacionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Campo, e.Motivo)
}

func (e *ValidacionError) Unwrap() error { return ErrValidacion }

func invalido(campo, motivo string) error {
	return &ValidacionError{Campo: campo, Motivo: motivo}
}

// EstadoExternoPendienteError lists the tables that block a close. Causa is
// set instead when the billing system could not be queried.
type EstadoExternoPendienteError struct {
	Caja  string
	Mesas []model.MesaPendiente
	Causa error
}

func (e *EstadoExternoPendienteError) Error() string {
	if e.Causa != nil {
		return fmt.Sprintf("no se pudo verificar el estado de las mesas de la caja %s: %v", e.Caja, e.Causa)
	}
	etiquetas := make([]string, 0, len(e.Mesas))
	for _, m := range e.Mesas {
		etiquetas = append(etiquetas, fmt.Sprintf("%s (%s)", m.Etiqueta, m.Area))
	}
	return fmt.Sprintf("%s: %s", ErrEstadoExternoPendiente.Error(), strings.Join(etiquetas, ", "))
}

func (e *EstadoExternoPendienteError) Unwrap() error { return ErrEstadoExternoPendiente }

// DespachoReporteError is non-fatal: the shift is closed, the report mail
// could not be queued.
type DespachoReporteError struct {
	Caja  string
	Causa error
}

func (e *DespachoReporteError) Error() string {
	return fmt.Sprintf("%s (caja %s): %v", ErrDespachoReporte.Error(), e.Caja, e.Causa)
}

func (e *DespachoReporteError) Unwrap() error { return ErrDespachoReporte }
