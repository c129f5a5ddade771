package service

import (
	"context"
	"errors"
	"time"

	"cobrofacil/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// epsilonDesvio is the tolerance below which a count is considered balanced.
var epsilonDesvio = decimal.NewFromFloat(0.01)

// MesasClient is the table/billing system consulted before any close.
type MesasClient interface {
	MesasImpagas(ctx context.Context, caja string) ([]model.MesaPendiente, error)
}

// ResultadoArqueo is the numeric side of the reconciliation.
type ResultadoArqueo struct {
	Esperado      decimal.Decimal
	Contado       decimal.Decimal
	Desvio        decimal.Decimal
	Clasificacion model.ClasificacionDesvio
}

// CalcularDesvio compares counted cash against the ledger's expected cash.
// It never fails: discrepancies are recorded, not blocking.
func CalcularDesvio(contado, esperado decimal.Decimal) ResultadoArqueo {
	desvio := contado.Sub(esperado)
	r := ResultadoArqueo{Esperado: esperado, Contado: contado, Desvio: desvio}
	switch {
	case desvio.Abs().LessThan(epsilonDesvio):
		r.Clasificacion = model.DesvioCuadrado
	case desvio.IsPositive():
		r.Clasificacion = model.DesvioSobrante
	default:
		r.Clasificacion = model.DesvioFaltante
	}
	return r
}

// arqueador runs the external-consistency check. It fails closed: an
// error, a timeout or an open circuit all block the close.
type arqueador struct {
	mesas   MesasClient
	timeout time.Duration
}

func (a *arqueador) verificarMesas(ctx context.Context, caja string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	mesas, err := a.mesas.MesasImpagas(ctx, caja)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Str("caja", caja).Dur("timeout", a.timeout).Msg("arqueo: timeout consultando mesas")
		} else {
			log.Warn().Err(err).Str("caja", caja).Msg("arqueo: no se pudo consultar mesas")
		}
		return &EstadoExternoPendienteError{Caja: caja, Causa: err}
	}
	if len(mesas) > 0 {
		return &EstadoExternoPendienteError{Caja: caja, Mesas: mesas}
	}
	return nil
}
