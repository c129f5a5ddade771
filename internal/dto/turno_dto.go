package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirTurnoRequest struct {
	Caja         string          `json:"caja"          validate:"required,max=40"`
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
	Notas        *string         `json:"notas"`
}

type MovimientoRequest struct {
	Tipo       string          `json:"tipo"        validate:"required,oneof=venta aporte retiro gasto pago_proveedor ajuste transferencia arqueo"`
	Concepto   string          `json:"concepto"    validate:"required"`
	Monto      decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	MetodoPago string          `json:"metodo_pago" validate:"required,oneof=efectivo debito credito transferencia qr"`
	// Sentido is required for ajuste, transferencia and arqueo.
	Sentido string  `json:"sentido" validate:"omitempty,oneof=ingreso egreso"`
	Notas   *string `json:"notas"`
}

type CierreRequest struct {
	EfectivoContado *decimal.Decimal `json:"efectivo_contado" validate:"required,min=0"`
	NotasCierre     *string          `json:"notas_cierre"`
	NotasArqueo     *string          `json:"notas_arqueo"`
}

type CierreForzadoRequest struct {
	Motivo          string           `json:"motivo"           validate:"required,min=3"`
	EfectivoContado *decimal.Decimal `json:"efectivo_contado" validate:"required,min=0"`
}

// HistorialFilter is bound from the query string of GET /v1/cajas/:caja/turnos.
type HistorialFilter struct {
	Caja  string `form:"-"`
	Desde string `form:"desde"` // YYYY-MM-DD, inclusive; empty = no bound
	Hasta string `form:"hasta"` // YYYY-MM-DD, inclusive; empty = no bound
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type DistribucionRequest struct {
	Emails []string `json:"emails" validate:"max=5,dive,required,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TurnoResponse struct {
	ID                  string           `json:"id"`
	Caja                string           `json:"caja"`
	Numero              int              `json:"numero"`
	Etiqueta            string           `json:"etiqueta"`
	Fecha               string           `json:"fecha"`
	Estado              string           `json:"estado"`
	MontoInicial        decimal.Decimal  `json:"monto_inicial"`
	NotasApertura       *string          `json:"notas_apertura"`
	NotasCierre         *string          `json:"notas_cierre"`
	NotasArqueo         *string          `json:"notas_arqueo"`
	AbiertoPor          string           `json:"abierto_por"`
	CerradoPor          *string          `json:"cerrado_por"`
	AbiertoEn           string           `json:"abierto_en"`
	CerradoEn           *string          `json:"cerrado_en"`
	EfectivoContado     *decimal.Decimal `json:"efectivo_contado"`
	EfectivoEsperado    *decimal.Decimal `json:"efectivo_esperado"`
	Desvio              *decimal.Decimal `json:"desvio"`
	ClasificacionDesvio *string          `json:"clasificacion_desvio"`
	Advertencias        []string         `json:"advertencias,omitempty"`
}

type MovimientoResponse struct {
	ID                   string          `json:"id"`
	TurnoID              string          `json:"turno_id"`
	Tipo                 string          `json:"tipo"`
	Sentido              string          `json:"sentido"`
	Concepto             string          `json:"concepto"`
	Monto                decimal.Decimal `json:"monto"`
	MetodoPago           string          `json:"metodo_pago"`
	Notas                *string         `json:"notas"`
	RegistradoEn         string          `json:"registrado_en"`
	RegistradoPor        string          `json:"registrado_por"`
	RequiereAutorizacion bool            `json:"requiere_autorizacion"`
	Autorizado           bool            `json:"autorizado"`
	AutorizadoPor        *string         `json:"autorizado_por"`
}

type TotalesResponse struct {
	PorTipo          map[string]decimal.Decimal `json:"por_tipo"`
	PorMetodo        map[string]decimal.Decimal `json:"por_metodo"`
	IngresosEfectivo decimal.Decimal            `json:"ingresos_efectivo"`
	EgresosEfectivo  decimal.Decimal            `json:"egresos_efectivo"`
	SaldoEfectivo    decimal.Decimal            `json:"saldo_efectivo"`
	Cantidad         int                        `json:"cantidad_movimientos"`
}

type TurnoDetalleResponse struct {
	Turno       TurnoResponse        `json:"turno"`
	Totales     TotalesResponse      `json:"totales"`
	Movimientos []MovimientoResponse `json:"movimientos"`
}

type ArqueoResponse struct {
	EfectivoEsperado decimal.Decimal `json:"efectivo_esperado"`
	EfectivoContado  decimal.Decimal `json:"efectivo_contado"`
	Desvio           decimal.Decimal `json:"desvio"`
	Clasificacion    string          `json:"clasificacion"` // cuadrado | sobrante | faltante
}

type CierreResponse struct {
	Turno           TurnoResponse   `json:"turno"`
	Arqueo          ArqueoResponse  `json:"arqueo"`
	Totales         TotalesResponse `json:"totales"`
	ReporteGenerado bool            `json:"reporte_generado"`
	ReporteID       *string         `json:"reporte_id,omitempty"`
	Advertencias    []string        `json:"advertencias,omitempty"`
}

type HistorialResponse struct {
	Data  []TurnoResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type TurnoActivoResumen struct {
	ID         string `json:"id"`
	Etiqueta   string `json:"etiqueta"`
	Numero     int    `json:"numero"`
	AbiertoPor string `json:"abierto_por"`
	AbiertoEn  string `json:"abierto_en"`
}

// EstadoCajaResponse is the gate answer consulted before billing tables.
type EstadoCajaResponse struct {
	Caja        string              `json:"caja"`
	Permitido   bool                `json:"permitido"`
	Motivo      *string             `json:"motivo,omitempty"` // sin_turno_abierto
	TurnoActivo *TurnoActivoResumen `json:"turno_activo,omitempty"`
}

type TurnosHoyResponse struct {
	Caja        string `json:"caja"`
	Fecha       string `json:"fecha"`
	Abiertos    int    `json:"abiertos"`
	Maximo      int    `json:"maximo"`
	Disponibles int    `json:"disponibles"`
	Siguiente   *int   `json:"siguiente,omitempty"`
}

type DistribucionResponse struct {
	Caja   string   `json:"caja"`
	Emails []string `json:"emails"`
}

type ReporteResponse struct {
	ID            string   `json:"id"`
	Caja          string   `json:"caja"`
	Fecha         string   `json:"fecha"`
	EstadoEnvio   string   `json:"estado_envio"`
	Destinatarios []string `json:"destinatarios"`
	Intentos      int      `json:"intentos"`
	UltimoError   *string  `json:"ultimo_error"`
	TienePDF      bool     `json:"tiene_pdf"`
	CreatedAt     string   `json:"created_at"`
}

type ReporteListResponse struct {
	Data  []ReporteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
