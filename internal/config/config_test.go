package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 3, cfg.MaxTurnosDiarios)
	assert.Equal(t, "*", cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.MesasTimeout())

	umbral, err := cfg.Umbral()
	require.NoError(t, err)
	assert.Equal(t, "50000", umbral.String())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Argentina/Buenos_Aires", loc.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MAX_TURNOS_DIARIOS", "2")
	t.Setenv("UMBRAL_AUTORIZACION", "12500.50")
	t.Setenv("MESAS_TIMEOUT_SECONDS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxTurnosDiarios)
	assert.Equal(t, 2*time.Second, cfg.MesasTimeout())
	umbral, err := cfg.Umbral()
	require.NoError(t, err)
	assert.Equal(t, "12500.5", umbral.String())
}

func TestValidate(t *testing.T) {
	base := Config{
		JWTSecret:          "s3cret",
		MaxTurnosDiarios:   3,
		UmbralAutorizacion: "50000",
		Timezone:           "UTC",
	}
	require.NoError(t, base.Validate())

	casos := map[string]func(c *Config){
		"sin secreto":      func(c *Config) { c.JWTSecret = "" },
		"tope cero":        func(c *Config) { c.MaxTurnosDiarios = 0 },
		"umbral invalido":  func(c *Config) { c.UmbralAutorizacion = "mucho" },
		"umbral negativo":  func(c *Config) { c.UmbralAutorizacion = "-1" },
		"zona desconocida": func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for nombre, romper := range casos {
		t.Run(nombre, func(t *testing.T) {
			c := base
			romper(&c)
			assert.Error(t, c.Validate())
		})
	}
}
