package service_test

import (
	"context"
	"errors"
	"testing"

	"cobrofacil/internal/dto"
	"cobrofacil/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var administrador = service.Actor{ID: uuid.New(), Rol: service.RolAdministrador}

func TestDistribucion_SoloAdministrador(t *testing.T) {
	svc := service.NewDistribucionService(newMemDistribucionRepo())

	for _, actor := range []service.Actor{cajero, supervisor} {
		_, err := svc.Actualizar(context.Background(), actor, "caja-1", dto.DistribucionRequest{Emails: []string{"a@example.com"}})
		assert.True(t, errors.Is(err, service.ErrProhibido), actor.Rol)
	}
}

func TestDistribucion_NormalizaYDeduplica(t *testing.T) {
	repo := newMemDistribucionRepo()
	svc := service.NewDistribucionService(repo)

	resp, err := svc.Actualizar(context.Background(), administrador, "caja-1", dto.DistribucionRequest{
		Emails: []string{" Dueno@Example.com", "dueno@example.com", "contador@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dueno@example.com", "contador@example.com"}, resp.Emails)

	got, err := svc.Obtener(context.Background(), "caja-1")
	require.NoError(t, err)
	assert.Equal(t, resp.Emails, got.Emails)
	require.NotNil(t, repo.items["caja-1"].ActualizadoPor)
	assert.Equal(t, administrador.ID, *repo.items["caja-1"].ActualizadoPor)
}

func TestDistribucion_Limites(t *testing.T) {
	svc := service.NewDistribucionService(newMemDistribucionRepo())

	seis := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com", "f@x.com"}
	_, err := svc.Actualizar(context.Background(), administrador, "caja-1", dto.DistribucionRequest{Emails: seis})
	assert.True(t, errors.Is(err, service.ErrValidacion))

	_, err = svc.Actualizar(context.Background(), administrador, "caja-1", dto.DistribucionRequest{Emails: []string{"no-es-un-mail"}})
	var verr *service.ValidacionError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "emails", verr.Campo)

	// An empty list is valid: it disables the automatic mail.
	resp, err := svc.Actualizar(context.Background(), administrador, "caja-1", dto.DistribucionRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Emails)
}

func TestDistribucion_CajaSinConfigurar(t *testing.T) {
	svc := service.NewDistribucionService(newMemDistribucionRepo())
	resp, err := svc.Obtener(context.Background(), "caja-9")
	require.NoError(t, err)
	assert.NotNil(t, resp.Emails)
	assert.Empty(t, resp.Emails)
}
