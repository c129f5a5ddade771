//go:build integration

package router_test

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cobrofacil/internal/config"
	"cobrofacil/internal/handler"
	"cobrofacil/internal/infra"
	"cobrofacil/internal/metrics"
	"cobrofacil/internal/middleware"
	"cobrofacil/internal/model"
	"cobrofacil/internal/router"
	"cobrofacil/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const secretoE2E = "test-secret-key"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = body
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	rdb        *redis.Client
	eventos    *infra.EventBus
	cajero     string
	supervisor string
	admin      string

	mu           sync.Mutex
	mesasPorCaja map[string][]model.MesaPendiente
}

func (e *testEnv) setMesas(caja string, mesas []model.MesaPendiente) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mesasPorCaja[caja] = mesas
}

func issue(t *testing.T, rol string) string {
	t.Helper()
	tok, err := middleware.IssueToken(secretoE2E, uuid.NewString(), rol, rol, time.Hour)
	require.NoError(t, err)
	return tok
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("cobrofacil_test"),
		tcPostgres.WithUsername("cobrofacil"),
		tcPostgres.WithPassword("cobrofacil"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	env := &testEnv{mesasPorCaja: map[string][]model.MesaPendiente{}}

	// Billing and catalog collaborators
	ext := http.NewServeMux()
	ext.HandleFunc("/v1/cajas/{caja}/mesas-impagas", func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		mesas := env.mesasPorCaja[r.PathValue("caja")]
		env.mu.Unlock()
		if mesas == nil {
			mesas = []model.MesaPendiente{}
		}
		_ = json.NewEncoder(w).Encode(mesas)
	})
	ext.HandleFunc("/v1/ventas/resumen", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"productos":[{"producto_id":"p-1","nombre":"Café","categoria":"Bebidas","cantidad":"4","total":"6000"}]}`))
	})
	extSrv := httptest.NewServer(ext)
	t.Cleanup(extSrv.Close)

	cfg := &config.Config{
		Port:                8000,
		Env:                 "test",
		Timezone:            "America/Argentina/Buenos_Aires",
		WorkerPoolSize:      1,
		CORSOrigins:         "*",
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		JWTSecret:           secretoE2E,
		JWTExpirationHours:  8,
		MaxTurnosDiarios:    3,
		UmbralAutorizacion:  "50000",
		MesasURL:            extSrv.URL,
		MesasTimeoutSeconds: 2,
		CatalogoURL:         extSrv.URL,
		PDFStoragePath:      t.TempDir(),
	}
	require.NoError(t, cfg.Validate())

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(ctx, db))

	rdb, err := infra.NewRedis(cfg.RedisURL, cfg.WorkerPoolSize)
	require.NoError(t, err)

	m := metrics.New("cobrofacil_test")
	mesasCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("mesas"), m)
	catalogoCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("catalogo"), m)
	env.eventos = infra.NewEventBus(rdb)
	env.rdb = rdb

	r, err := router.New(cfg, db, rdb, m, router.Collaborators{
		Mesas:       infra.NewMesasClient(cfg.MesasURL, cfg.MesasTimeout(), mesasCB),
		Ventas:      infra.NewCatalogoClient(cfg.CatalogoURL, catalogoCB),
		Renderer:    infra.NewPDFRenderer(cfg.PDFStoragePath),
		Despachador: worker.NewDispatcher(rdb),
		Eventos:     env.eventos,
		Breakers:    []handler.BreakerState{mesasCB, catalogoCB},
	})
	require.NoError(t, err)

	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)

	env.cajero = issue(t, "cajero")
	env.supervisor = issue(t, "supervisor")
	env.admin = issue(t, "administrador")
	return env
}

type turnoJSON struct {
	ID       string `json:"id"`
	Numero   int    `json:"numero"`
	Etiqueta string `json:"etiqueta"`
	Estado   string `json:"estado"`
}

func (e *testEnv) abrir(t *testing.T, caja string, monto string) turnoJSON {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/turnos",
		jsonBody(t, map[string]any{"caja": caja, "monto_inicial": monto}), e.cajero)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out turnoJSON
	decodeJSON(t, resp, &out)
	return out
}

type cierreJSON struct {
	Turno  turnoJSON `json:"turno"`
	Arqueo struct {
		Esperado      string `json:"efectivo_esperado"`
		Desvio        string `json:"desvio"`
		Clasificacion string `json:"clasificacion"`
	} `json:"arqueo"`
	ReporteGenerado bool     `json:"reporte_generado"`
	ReporteID       *string  `json:"reporte_id"`
	Advertencias    []string `json:"advertencias"`
}

func (e *testEnv) cerrar(t *testing.T, id, contado string) cierreJSON {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/turnos/"+id+"/cierre",
		jsonBody(t, map[string]any{"efectivo_contado": contado}), e.cajero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out cierreJSON
	decodeJSON(t, resp, &out)
	return out
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CicloDeTurno(t *testing.T) {
	env := setupTestEnv(t)

	turno := env.abrir(t, "caja-1", "1000")
	assert.Equal(t, 1, turno.Numero)
	assert.Equal(t, "abierto", turno.Estado)

	// Second open on the same register
	resp := do(t, env.server, "POST", "/v1/turnos",
		jsonBody(t, map[string]any{"caja": "caja-1", "monto_inicial": "0"}), env.cajero)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var conflicto struct {
		Code  string `json:"code"`
		Turno struct {
			ID string `json:"id"`
		} `json:"turno"`
	}
	decodeJSON(t, resp, &conflicto)
	assert.Equal(t, "turno_abierto", conflicto.Code)
	assert.Equal(t, turno.ID, conflicto.Turno.ID)

	// Gate
	resp = do(t, env.server, "GET", "/v1/cajas/caja-1/estado", nil, env.cajero)
	var estado struct {
		Permitido bool `json:"permitido"`
	}
	decodeJSON(t, resp, &estado)
	assert.True(t, estado.Permitido)

	movs := []map[string]any{
		{"tipo": "venta", "concepto": "Mesa 3", "monto": "500", "metodo_pago": "efectivo"},
		{"tipo": "venta", "concepto": "Mesa 5", "monto": "300", "metodo_pago": "debito"},
		{"tipo": "gasto", "concepto": "Hielo", "monto": "200", "metodo_pago": "efectivo"},
	}
	for _, mv := range movs {
		resp = do(t, env.server, "POST", "/v1/turnos/"+turno.ID+"/movimientos", jsonBody(t, mv), env.cajero)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// Above the ceiling needs a supervisor
	grande := map[string]any{"tipo": "retiro", "concepto": "Depósito", "monto": "60000", "metodo_pago": "efectivo"}
	resp = do(t, env.server, "POST", "/v1/turnos/"+turno.ID+"/movimientos", jsonBody(t, grande), env.cajero)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Pending tables block the close
	env.setMesas("caja-1", []model.MesaPendiente{{ID: "m-4", Etiqueta: "Mesa 4", Area: "Salón"}})
	resp = do(t, env.server, "POST", "/v1/turnos/"+turno.ID+"/cierre",
		jsonBody(t, map[string]any{"efectivo_contado": "1300"}), env.cajero)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var bloqueo struct {
		Code  string                `json:"code"`
		Mesas []model.MesaPendiente `json:"mesas"`
	}
	decodeJSON(t, resp, &bloqueo)
	assert.Equal(t, "mesas_pendientes", bloqueo.Code)
	require.Len(t, bloqueo.Mesas, 1)
	env.setMesas("caja-1", nil)

	cierre := env.cerrar(t, turno.ID, "1300")
	assert.Equal(t, "cerrado", cierre.Turno.Estado)
	assert.Equal(t, "1300", cierre.Arqueo.Esperado)
	assert.Equal(t, "cuadrado", cierre.Arqueo.Clasificacion)
	assert.False(t, cierre.ReporteGenerado)

	// Closed shift rejects movements and a second close
	resp = do(t, env.server, "POST", "/v1/turnos/"+turno.ID+"/movimientos", jsonBody(t, movs[0]), env.cajero)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, env.server, "POST", "/v1/turnos/"+turno.ID+"/cierre",
		jsonBody(t, map[string]any{"efectivo_contado": "1300"}), env.cajero)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// History is supervisor-only
	resp = do(t, env.server, "GET", "/v1/cajas/caja-1/turnos", nil, env.cajero)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, env.server, "GET", "/v1/cajas/caja-1/turnos", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, resp, &hist)
	assert.EqualValues(t, 1, hist.Total)
}

func TestE2E_AperturaConcurrente(t *testing.T) {
	env := setupTestEnv(t)

	const n = 8
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for iter := 0; iter < n; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/turnos",
				jsonBody(t, map[string]any{"caja": "caja-2", "monto_inicial": "100"}), env.cajero)
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	creados := 0
	for c := range codes {
		if c == http.StatusCreated {
			creados++
		} else {
			assert.Equal(t, http.StatusConflict, c)
		}
	}
	assert.Equal(t, 1, creados)
}

func TestE2E_EventosPorRedis(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := env.eventos.Suscribir(ctx, "caja-3")
	require.NoError(t, err)

	turno := env.abrir(t, "caja-3", "0")

	select {
	case ev := <-ch:
		assert.Equal(t, model.EventoTurnoAbierto, ev.Tipo)
		assert.Equal(t, turno.ID, ev.TurnoID.String())
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestE2E_ShutdownCortaStreamsDeEventos(t *testing.T) {
	env := setupTestEnv(t)
	env.server.Config.RegisterOnShutdown(env.eventos.Cerrar)

	terminado := make(chan struct{})
	go func() {
		defer close(terminado)
		req, err := http.NewRequest("GET", env.server.URL+"/v1/turnos/eventos?caja=caja-5", nil)
		if err != nil {
			return
		}
		req.Header.Set("Authorization", "Bearer "+env.cajero)
		resp, err := env.server.Client().Do(req)
		if err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	require.Eventually(t, func() bool {
		subs, err := env.rdb.PubSubNumSub(context.Background(), infra.CanalEventos("caja-5")).Result()
		return err == nil && subs[infra.CanalEventos("caja-5")] == 1
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.server.Config.Shutdown(ctx))

	select {
	case <-terminado:
	case <-time.After(5 * time.Second):
		t.Fatal("stream still open after shutdown")
	}

	_, err := env.eventos.Suscribir(context.Background(), "caja-5")
	assert.ErrorIs(t, err, infra.ErrEventBusCerrado)
}

func TestE2E_ReporteAlTercerCierre(t *testing.T) {
	env := setupTestEnv(t)

	// Only the administrator configures recipients
	dist := map[string]any{"emails": []string{"Gerencia@Example.com", "gerencia@example.com"}}
	resp := do(t, env.server, "PUT", "/v1/cajas/caja-4/distribucion", jsonBody(t, dist), env.supervisor)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, env.server, "PUT", "/v1/cajas/caja-4/distribucion", jsonBody(t, dist), env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d struct {
		Emails []string `json:"emails"`
	}
	decodeJSON(t, resp, &d)
	assert.Equal(t, []string{"gerencia@example.com"}, d.Emails)

	var ultimo cierreJSON
	for i := 1; i <= 3; i++ {
		turno := env.abrir(t, "caja-4", "100")
		require.Equal(t, i, turno.Numero)
		ultimo = env.cerrar(t, turno.ID, "100")
		if i < 3 {
			assert.False(t, ultimo.ReporteGenerado)
		}
	}
	require.True(t, ultimo.ReporteGenerado)
	require.NotNil(t, ultimo.ReporteID)
	assert.Empty(t, ultimo.Advertencias)

	// Daily budget is exhausted
	resp = do(t, env.server, "POST", "/v1/turnos",
		jsonBody(t, map[string]any{"caja": "caja-4", "monto_inicial": "0"}), env.cajero)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var tope struct {
		Code string `json:"code"`
	}
	decodeJSON(t, resp, &tope)
	assert.Equal(t, "tope_diario", tope.Code)

	// The mail job is queued for the worker pool
	n, err := env.rdb.LLen(context.Background(), worker.QueueReportes).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	resp = do(t, env.server, "GET", "/v1/cajas/caja-4/reportes", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lista struct {
		Data []struct {
			ID          string `json:"id"`
			EstadoEnvio string `json:"estado_envio"`
			TienePDF    bool   `json:"tiene_pdf"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &lista)
	require.Len(t, lista.Data, 1)
	assert.Equal(t, *ultimo.ReporteID, lista.Data[0].ID)
	assert.True(t, lista.Data[0].TienePDF)

	resp = do(t, env.server, "GET", "/v1/reportes/"+*ultimo.ReporteID+"/pdf", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pdf, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
