package router

import (
	"time"

	"cobrofacil/internal/config"
	"cobrofacil/internal/handler"
	"cobrofacil/internal/metrics"
	"cobrofacil/internal/middleware"
	"cobrofacil/internal/repository"
	"cobrofacil/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Collaborators are the infrastructure pieces built in main and shared with
// the worker pool.
type Collaborators struct {
	Mesas       service.MesasClient
	Ventas      service.VentasAgregador
	Renderer    service.RenderizadorReporte
	Despachador service.DespachadorReporte
	Eventos     EventBus
	Breakers    []handler.BreakerState
}

// EventBus both publishes and relays shift events.
type EventBus interface {
	service.EventPublisher
	handler.SuscriptorEventos
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, m *metrics.Metrics, col Collaborators) (*gin.Engine, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	umbral, err := cfg.Umbral()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP
	r.Use(middleware.Metrics(m))

	// ── Repositories ─────────────────────────────────────────────────────────
	turnoRepo := repository.NewTurnoRepository(db)
	reporteRepo := repository.NewReporteRepository(db)
	distribucionRepo := repository.NewDistribucionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	reporteSvc := service.NewReporteService(service.ReporteDeps{
		Turnos:       turnoRepo,
		Reportes:     reporteRepo,
		Distribucion: distribucionRepo,
		Ventas:       col.Ventas,
		Renderer:     col.Renderer,
		Despachador:  col.Despachador,
		Metrics:      m,
	})
	turnoSvc := service.NewTurnoService(turnoRepo, col.Mesas, reporteSvc, col.Eventos, service.TurnoOptions{
		MaxTurnos:    cfg.MaxTurnosDiarios,
		Umbral:       umbral,
		Location:     loc,
		MesasTimeout: cfg.MesasTimeout(),
		Metrics:      m,
	})
	distribucionSvc := service.NewDistribucionService(distribucionRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	turnoH := handler.NewTurnoHandler(turnoSvc)
	cajaH := handler.NewCajaHandler(turnoSvc)
	eventosH := handler.NewEventosHandler(col.Eventos)
	distribucionH := handler.NewDistribucionHandler(distribucionSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, col.Breakers...))
	r.GET("/metrics", middleware.MetricsEndpoint(m))

	todos := middleware.RequireRole(service.RolCajero, service.RolSupervisor, service.RolAdministrador)
	supervisores := middleware.RequireRole(service.RolSupervisor, service.RolAdministrador)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		turnos := v1.Group("/turnos")
		{
			turnos.POST("", todos, turnoH.Abrir)
			turnos.GET("/eventos", todos, eventosH.Stream)
			turnos.GET("/:id", todos, turnoH.Obtener)
			turnos.POST("/:id/movimientos", todos, turnoH.RegistrarMovimiento)
			turnos.GET("/:id/movimientos", todos, turnoH.ListarMovimientos)
			turnos.POST("/:id/cierre", todos, turnoH.Cerrar)
			turnos.POST("/:id/cierre-forzado", supervisores, turnoH.CierreForzado)
		}

		cajas := v1.Group("/cajas/:caja")
		{
			cajas.GET("/turno-activo", todos, cajaH.TurnoActivo)
			cajas.GET("/estado", todos, cajaH.Estado)
			cajas.GET("/turnos-hoy", todos, cajaH.TurnosHoy)
			cajas.GET("/turnos", supervisores, cajaH.Historial)
			cajas.GET("/reportes", supervisores, reportesH.Listar)

			dist := cajas.Group("/distribucion", middleware.RequireRole(service.RolAdministrador))
			{
				dist.GET("", distribucionH.Obtener)
				dist.PUT("", distribucionH.Actualizar)
			}
		}

		v1.GET("/reportes/:id/pdf", supervisores, reportesH.DescargarPDF)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}
