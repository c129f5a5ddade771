package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoEnvio: "pendiente" | "enviado" | "sin_destinatarios" | "fallido" | "error"
type EstadoEnvio string

const (
	EnvioPendiente        EstadoEnvio = "pendiente"
	EnvioEnviado          EstadoEnvio = "enviado"
	EnvioSinDestinatarios EstadoEnvio = "sin_destinatarios"
	EnvioFallido          EstadoEnvio = "fallido"
	// EnvioError is terminal: retries exhausted, entry moved to the DLQ.
	EnvioError EstadoEnvio = "error"
)

// ReporteDiario is the consolidated report produced when the last permitted
// shift of a day is closed. One per (Caja, Fecha).
type ReporteDiario struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Caja      string           `gorm:"type:varchar(40);not null;uniqueIndex:ux_reportes_caja_fecha"`
	Fecha     time.Time        `gorm:"type:date;not null;uniqueIndex:ux_reportes_caja_fecha"`
	Contenido ContenidoReporte `gorm:"type:jsonb;serializer:json;not null"`
	PDFPath   *string          `gorm:"column:pdf_path"`

	Destinatarios []string    `gorm:"type:jsonb;serializer:json;not null"`
	EstadoEnvio   EstadoEnvio `gorm:"type:varchar(20);not null;default:'pendiente'"`
	// Retry fields, used by the retry cron to re-attempt failed deliveries
	Intentos       int        `gorm:"not null;default:0"`
	ProximoIntento *time.Time
	UltimoError    *string
	EnviadoEn      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ReporteDiario) TableName() string { return "reportes_diarios" }

// ContenidoReporte is the serialized body of a ReporteDiario.
type ContenidoReporte struct {
	Caja         string                             `json:"caja"`
	Fecha        string                             `json:"fecha"` // YYYY-MM-DD
	GeneradoEn   time.Time                          `json:"generado_en"`
	Turnos       []ResumenTurno                     `json:"turnos"`
	PorMetodo    map[MetodoPago]decimal.Decimal     `json:"por_metodo"`
	PorTipo      map[TipoMovimiento]decimal.Decimal `json:"por_tipo"`
	Productos    []VentaProducto                    `json:"productos"`
	Categorias   []VentaCategoria                   `json:"categorias"`
	TotalVentas  decimal.Decimal                    `json:"total_ventas"`
	DesvioTotal  decimal.Decimal                    `json:"desvio_total"`
	Advertencias []string                           `json:"advertencias,omitempty"`
}

// ResumenTurno is one shift's line in the consolidated report.
type ResumenTurno struct {
	TurnoID          uuid.UUID                          `json:"turno_id"`
	Etiqueta         string                             `json:"etiqueta"`
	Estado           EstadoTurno                        `json:"estado"`
	AbiertoEn        time.Time                          `json:"abierto_en"`
	CerradoEn        *time.Time                         `json:"cerrado_en,omitempty"`
	MontoInicial     decimal.Decimal                    `json:"monto_inicial"`
	EfectivoEsperado *decimal.Decimal                   `json:"efectivo_esperado,omitempty"`
	EfectivoContado  *decimal.Decimal                   `json:"efectivo_contado,omitempty"`
	Desvio           *decimal.Decimal                   `json:"desvio,omitempty"`
	PorTipo          map[TipoMovimiento]decimal.Decimal `json:"por_tipo"`
	PorMetodo        map[MetodoPago]decimal.Decimal     `json:"por_metodo"`
}

// VentaProducto is a per-product sales line supplied by the catalog service.
type VentaProducto struct {
	ProductoID string          `json:"producto_id"`
	Nombre     string          `json:"nombre"`
	Categoria  string          `json:"categoria"`
	Cantidad   decimal.Decimal `json:"cantidad"`
	Total      decimal.Decimal `json:"total"`
}

// VentaCategoria aggregates VentaProducto lines by category.
type VentaCategoria struct {
	Categoria string          `json:"categoria"`
	Cantidad  decimal.Decimal `json:"cantidad"`
	Total     decimal.Decimal `json:"total"`
}

// DistribucionReporte is the list of addresses (max 5) that receive the
// automatic daily report of a register.
type DistribucionReporte struct {
	Caja           string     `gorm:"type:varchar(40);primaryKey"`
	Emails         []string   `gorm:"type:jsonb;serializer:json;not null"`
	ActualizadoPor *uuid.UUID `gorm:"type:uuid"`
	UpdatedAt      time.Time
}

func (DistribucionReporte) TableName() string { return "distribucion_reportes" }
