package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all service metrics. A nil *Metrics is valid: every Record
// method is a no-op on it, so services and tests can run without a registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Turnos
	TurnosAbiertos   *prometheus.CounterVec
	TurnosCerrados   *prometheus.CounterVec
	TurnosRechazados *prometheus.CounterVec
	Movimientos      *prometheus.CounterVec
	DesvioArqueo     *prometheus.HistogramVec

	// Reportes
	ReportesGenerados *prometheus.CounterVec
	ReportesEnviados  *prometheus.CounterVec

	// Circuit breakers
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates a Metrics instance on its own registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	m.TurnosAbiertos = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turnos_abiertos_total",
			Help:      "Shifts opened",
		},
		[]string{"caja"},
	)
	m.TurnosCerrados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turnos_cerrados_total",
			Help:      "Shifts closed, by terminal state",
		},
		[]string{"caja", "estado"},
	)
	m.TurnosRechazados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turnos_operaciones_rechazadas_total",
			Help:      "Shift operations rejected by a business rule",
		},
		[]string{"operacion", "motivo"},
	)
	m.Movimientos = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movimientos_caja_total",
			Help:      "Cash movements recorded",
		},
		[]string{"tipo", "metodo_pago"},
	)
	m.DesvioArqueo = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "arqueo_desvio_absoluto",
			Help:      "Absolute cash variance found at close",
			Buckets:   []float64{0.01, 1, 10, 100, 500, 1000, 5000, 10000},
		},
		[]string{"clasificacion"},
	)

	m.ReportesGenerados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reportes_diarios_generados_total",
			Help:      "Consolidated daily reports generated",
		},
		[]string{"caja"},
	)
	m.ReportesEnviados = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reportes_diarios_envios_total",
			Help:      "Daily report deliveries, by outcome",
		},
		[]string{"estado"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.TurnosAbiertos,
		m.TurnosCerrados,
		m.TurnosRechazados,
		m.Movimientos,
		m.DesvioArqueo,
		m.ReportesGenerados,
		m.ReportesEnviados,
		m.CircuitBreakerState,
	)
	return m
}

// Handler returns the HTTP handler for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) IncInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Inc()
	}
}

func (m *Metrics) DecInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Dec()
	}
}

func (m *Metrics) RecordTurnoAbierto(caja string) {
	if m != nil {
		m.TurnosAbiertos.WithLabelValues(caja).Inc()
	}
}

func (m *Metrics) RecordTurnoCerrado(caja, estado string) {
	if m != nil {
		m.TurnosCerrados.WithLabelValues(caja, estado).Inc()
	}
}

func (m *Metrics) RecordRechazo(operacion, motivo string) {
	if m != nil {
		m.TurnosRechazados.WithLabelValues(operacion, motivo).Inc()
	}
}

func (m *Metrics) RecordMovimiento(tipo, metodo string) {
	if m != nil {
		m.Movimientos.WithLabelValues(tipo, metodo).Inc()
	}
}

func (m *Metrics) RecordDesvio(clasificacion string, absoluto float64) {
	if m != nil {
		m.DesvioArqueo.WithLabelValues(clasificacion).Observe(absoluto)
	}
}

func (m *Metrics) RecordReporteGenerado(caja string) {
	if m != nil {
		m.ReportesGenerados.WithLabelValues(caja).Inc()
	}
}

func (m *Metrics) RecordEnvioReporte(estado string) {
	if m != nil {
		m.ReportesEnviados.WithLabelValues(estado).Inc()
	}
}

// SetCircuitBreakerState records 0=closed, 1=half-open, 2=open.
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m != nil {
		m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	}
}
