package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cobrofacil/internal/config"
	"cobrofacil/internal/handler"
	"cobrofacil/internal/infra"
	"cobrofacil/internal/metrics"
	"cobrofacil/internal/repository"
	"cobrofacil/internal/router"
	"cobrofacil/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.AutoMigrate {
		if err := infra.RunMigrations(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	rdb, err := infra.NewRedis(cfg.RedisURL, cfg.WorkerPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	m := metrics.New("cobrofacil")

	// ── Collaborators ────────────────────────────────────────────────────────
	mesasCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("mesas"), m)
	catalogoCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("catalogo"), m)
	mesas := infra.NewMesasClient(cfg.MesasURL, cfg.MesasTimeout(), mesasCB)
	catalogo := infra.NewCatalogoClient(cfg.CatalogoURL, catalogoCB)
	eventos := infra.NewEventBus(rdb)
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	// Worker handlers are wired here (composition root) so that the pool
	// shares the repositories used by the HTTP side.
	reporteRepo := repository.NewReporteRepository(db)
	reporteWorker := worker.NewReporteWorker(reporteRepo, mailer, m)
	worker.StartWorkerPool(ctx, rdb, &worker.WorkerHandlers{Reporte: reporteWorker}, cfg.WorkerPoolSize)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		Reportes: reporteRepo,
		Worker:   reporteWorker,
		RDB:      rdb,
	})

	r, err := router.New(cfg, db, rdb, m, router.Collaborators{
		Mesas:       mesas,
		Ventas:      catalogo,
		Renderer:    infra.NewPDFRenderer(cfg.PDFStoragePath),
		Despachador: dispatcher,
		Eventos:     eventos,
		Breakers:    []handler.BreakerState{mesasCB, catalogoCB},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /v1/turnos/eventos holds the connection open.
		IdleTimeout: 60 * time.Second,
	}
	// Shutdown does not interrupt active handlers; SSE streams end here.
	srv.RegisterOnShutdown(eventos.Cerrar)

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cobrofacil listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
