package handler

import (
	"net/http"

	"cobrofacil/internal/dto"
	"cobrofacil/internal/service"

	"github.com/gin-gonic/gin"
)

type TurnoHandler struct{ svc service.TurnoService }

func NewTurnoHandler(svc service.TurnoService) *TurnoHandler { return &TurnoHandler{svc: svc} }

// Abrir godoc
// @Summary Abre un turno en una caja
// @Tags turnos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirTurnoRequest true "Datos de apertura"
// @Success 201 {object} dto.TurnoResponse
// @Failure 409 {object} apierror.APIError "turno abierto o tope diario alcanzado"
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/turnos [post]
func (h *TurnoHandler) Abrir(c *gin.Context) {
	var req dto.AbrirTurnoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	resp, err := h.svc.AbrirTurno(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un movimiento de caja en el turno
// @Tags turnos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Param body body dto.MovimientoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoResponse
// @Failure 403 {object} apierror.APIError "requiere autorizacion de supervisor"
// @Failure 409 {object} apierror.APIError "turno no abierto"
// @Router /v1/turnos/{id}/movimientos [post]
func (h *TurnoHandler) RegistrarMovimiento(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.MovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMovimientos godoc
// @Summary Lista los movimientos del turno en orden de registro
// @Tags turnos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Success 200 {array} dto.MovimientoResponse
// @Router /v1/turnos/{id}/movimientos [get]
func (h *TurnoHandler) ListarMovimientos(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Cierra el turno con arqueo
// @Description Bloquea si hay mesas con factura emitida sin cobrar. El desvio nunca bloquea.
// @Tags turnos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Param body body dto.CierreRequest true "Efectivo contado y notas"
// @Success 200 {object} dto.CierreResponse
// @Failure 409 {object} apierror.APIError "mesas pendientes o turno no abierto"
// @Router /v1/turnos/{id}/cierre [post]
func (h *TurnoHandler) Cerrar(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	resp, err := h.svc.CerrarTurno(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CierreForzado godoc
// @Summary Cierre forzado del turno (supervisor)
// @Tags turnos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Param body body dto.CierreForzadoRequest true "Motivo y efectivo contado"
// @Success 200 {object} dto.CierreResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/turnos/{id}/cierre-forzado [post]
func (h *TurnoHandler) CierreForzado(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CierreForzadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	resp, err := h.svc.CierreForzado(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Detalle del turno con totales y movimientos
// @Tags turnos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del turno"
// @Success 200 {object} dto.TurnoDetalleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/turnos/{id} [get]
func (h *TurnoHandler) Obtener(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerTurno(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
