package service

import (
	"cobrofacil/internal/model"

	"github.com/shopspring/decimal"
)

// Money columns are DECIMAL(14,2).
var montoMaximo = decimal.New(1, 12)

// validarMonto rejects amounts the ledger cannot store exactly.
func validarMonto(campo string, m decimal.Decimal, positivo bool) error {
	switch {
	case positivo && !m.IsPositive():
		return invalido(campo, "debe ser mayor a cero")
	case !positivo && m.IsNegative():
		return invalido(campo, "no puede ser negativo")
	case !m.Equal(m.Round(2)):
		return invalido(campo, "admite hasta dos decimales")
	case m.GreaterThanOrEqual(montoMaximo):
		return invalido(campo, "excede el máximo permitido")
	}
	return nil
}

// Totales is the derived view of a shift's ledger. It is never persisted:
// Totalizar rebuilds it from the raw movements, and Aplicar is the
// incremental step of that same fold.
type Totales struct {
	MontoInicial decimal.Decimal
	// PorTipo holds the gross amount per kind.
	PorTipo map[model.TipoMovimiento]decimal.Decimal
	// PorMetodo holds the net (signed) flow per payment method.
	PorMetodo        map[model.MetodoPago]decimal.Decimal
	IngresosEfectivo decimal.Decimal
	EgresosEfectivo  decimal.Decimal
	// SaldoEfectivo = MontoInicial + IngresosEfectivo - EgresosEfectivo
	SaldoEfectivo decimal.Decimal
	Cantidad      int
}

// NuevosTotales returns the totals of a shift with no movements.
func NuevosTotales(montoInicial decimal.Decimal) Totales {
	t := Totales{
		MontoInicial:  montoInicial,
		PorTipo:       make(map[model.TipoMovimiento]decimal.Decimal, len(model.TiposMovimiento)),
		PorMetodo:     make(map[model.MetodoPago]decimal.Decimal, len(model.MetodosPago)),
		SaldoEfectivo: montoInicial,
	}
	for _, k := range model.TiposMovimiento {
		t.PorTipo[k] = decimal.Zero
	}
	for _, m := range model.MetodosPago {
		t.PorMetodo[m] = decimal.Zero
	}
	return t
}

// Aplicar folds one movement into the totals.
func (t *Totales) Aplicar(m model.MovimientoCaja) {
	t.Cantidad++
	t.PorTipo[m.Tipo] = t.PorTipo[m.Tipo].Add(m.Monto)
	t.PorMetodo[m.MetodoPago] = t.PorMetodo[m.MetodoPago].Add(m.Signed())

	if m.MetodoPago != model.PagoEfectivo {
		return
	}
	if m.Sentido == model.Egreso {
		t.EgresosEfectivo = t.EgresosEfectivo.Add(m.Monto)
	} else {
		t.IngresosEfectivo = t.IngresosEfectivo.Add(m.Monto)
	}
	t.SaldoEfectivo = t.MontoInicial.Add(t.IngresosEfectivo).Sub(t.EgresosEfectivo)
}

// Totalizar replays the movements from scratch. The result depends only on
// the multiset of movements, never on their order.
func Totalizar(montoInicial decimal.Decimal, movs []model.MovimientoCaja) Totales {
	t := NuevosTotales(montoInicial)
	for _, m := range movs {
		t.Aplicar(m)
	}
	return t
}

// Sumar merges o into t (used to consolidate several shifts of a day).
// MontoInicial and SaldoEfectivo are not meaningful across shifts and are left untouched.
func (t *Totales) Sumar(o Totales) {
	for k, v := range o.PorTipo {
		t.PorTipo[k] = t.PorTipo[k].Add(v)
	}
	for k, v := range o.PorMetodo {
		t.PorMetodo[k] = t.PorMetodo[k].Add(v)
	}
	t.IngresosEfectivo = t.IngresosEfectivo.Add(o.IngresosEfectivo)
	t.EgresosEfectivo = t.EgresosEfectivo.Add(o.EgresosEfectivo)
	t.Cantidad += o.Cantidad
}
