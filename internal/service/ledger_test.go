package service

import (
	"math/rand"
	"testing"

	"cobrofacil/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mov(tipo model.TipoMovimiento, sentido model.Sentido, metodo model.MetodoPago, monto int64) model.MovimientoCaja {
	return model.MovimientoCaja{Tipo: tipo, Sentido: sentido, MetodoPago: metodo, Monto: decimal.NewFromInt(monto)}
}

func libroDePrueba() []model.MovimientoCaja {
	return []model.MovimientoCaja{
		mov(model.MovVenta, model.Ingreso, model.PagoEfectivo, 500),
		mov(model.MovVenta, model.Ingreso, model.PagoDebito, 300),
		mov(model.MovRetiro, model.Egreso, model.PagoEfectivo, 200),
		mov(model.MovGasto, model.Egreso, model.PagoEfectivo, 45),
		mov(model.MovAporte, model.Ingreso, model.PagoEfectivo, 1000),
		mov(model.MovAjuste, model.Egreso, model.PagoQR, 15),
		mov(model.MovTransferencia, model.Ingreso, model.PagoTransferencia, 80),
	}
}

func TestTotalizar(t *testing.T) {
	tot := Totalizar(decimal.NewFromInt(1000), libroDePrueba())

	assert.Equal(t, 7, tot.Cantidad)
	assert.Equal(t, "1500", tot.IngresosEfectivo.String())
	assert.Equal(t, "245", tot.EgresosEfectivo.String())
	assert.Equal(t, "2255", tot.SaldoEfectivo.String())
	assert.Equal(t, "800", tot.PorTipo[model.MovVenta].String())
	assert.Equal(t, "15", tot.PorTipo[model.MovAjuste].String())
	assert.Equal(t, "-15", tot.PorMetodo[model.PagoQR].String())
	assert.Equal(t, "1255", tot.PorMetodo[model.PagoEfectivo].String())
	assert.True(t, tot.PorTipo[model.MovArqueo].IsZero())
}

func TestTotalizar_SinMovimientos(t *testing.T) {
	tot := Totalizar(decimal.NewFromInt(750), nil)
	assert.Equal(t, "750", tot.SaldoEfectivo.String())
	assert.Len(t, tot.PorTipo, len(model.TiposMovimiento))
	assert.Len(t, tot.PorMetodo, len(model.MetodosPago))
}

func TestTotalizar_NoDependeDelOrden(t *testing.T) {
	libro := libroDePrueba()
	base := Totalizar(decimal.NewFromInt(1000), libro)

	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 20; iter++ {
		rng.Shuffle(len(libro), func(i, j int) { libro[i], libro[j] = libro[j], libro[i] })
		otra := Totalizar(decimal.NewFromInt(1000), libro)
		require.True(t, base.SaldoEfectivo.Equal(otra.SaldoEfectivo))
		for k, v := range base.PorTipo {
			require.True(t, v.Equal(otra.PorTipo[k]), "tipo %s", k)
		}
		for k, v := range base.PorMetodo {
			require.True(t, v.Equal(otra.PorMetodo[k]), "metodo %s", k)
		}
	}
}

func TestAplicar_EquivaleAReconstruir(t *testing.T) {
	libro := libroDePrueba()
	inc := NuevosTotales(decimal.NewFromInt(1000))
	for i, m := range libro {
		inc.Aplicar(m)
		desde0 := Totalizar(decimal.NewFromInt(1000), libro[:i+1])
		require.True(t, inc.SaldoEfectivo.Equal(desde0.SaldoEfectivo), "paso %d", i)
		require.Equal(t, desde0.Cantidad, inc.Cantidad)
	}
}

func TestSumar(t *testing.T) {
	a := Totalizar(decimal.NewFromInt(100), libroDePrueba()[:2])
	b := Totalizar(decimal.NewFromInt(900), libroDePrueba()[2:])

	dia := NuevosTotales(decimal.Zero)
	dia.Sumar(a)
	dia.Sumar(b)
	todo := Totalizar(decimal.Zero, libroDePrueba())

	assert.Equal(t, todo.Cantidad, dia.Cantidad)
	assert.True(t, todo.IngresosEfectivo.Equal(dia.IngresosEfectivo))
	assert.True(t, todo.PorMetodo[model.PagoEfectivo].Equal(dia.PorMetodo[model.PagoEfectivo]))
}

func TestCalcularDesvio(t *testing.T) {
	casos := []struct {
		contado, esperado string
		desvio            string
		clasificacion     model.ClasificacionDesvio
	}{
		{"1300", "1300", "0", model.DesvioCuadrado},
		{"1300.004", "1300", "0.004", model.DesvioCuadrado},
		{"1350", "1300", "50", model.DesvioSobrante},
		{"1299.5", "1300", "-0.5", model.DesvioFaltante},
		{"0", "200", "-200", model.DesvioFaltante},
	}
	for _, c := range casos {
		r := CalcularDesvio(decimal.RequireFromString(c.contado), decimal.RequireFromString(c.esperado))
		assert.Equal(t, c.desvio, r.Desvio.String(), "%s vs %s", c.contado, c.esperado)
		assert.Equal(t, c.clasificacion, r.Clasificacion, "%s vs %s", c.contado, c.esperado)
	}
}

func TestValidarMonto(t *testing.T) {
	casos := []struct {
		monto    string
		positivo bool
		ok       bool
	}{
		{"0", false, true},
		{"0", true, false},
		{"-0.01", false, false},
		{"0.01", true, true},
		{"0.001", true, false},
		{"0.004", false, false},
		{"12.50", true, true},
		{"999999999999.99", true, true},
		{"1000000000000", true, false},
	}
	for _, c := range casos {
		err := validarMonto("monto", decimal.RequireFromString(c.monto), c.positivo)
		if c.ok {
			assert.NoError(t, err, c.monto)
			continue
		}
		var verr *ValidacionError
		require.ErrorAs(t, err, &verr, c.monto)
		assert.Equal(t, "monto", verr.Campo)
	}
}
