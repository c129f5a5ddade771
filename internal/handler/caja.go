package handler

import (
	"net/http"

	"cobrofacil/internal/apierror"
	"cobrofacil/internal/dto"
	"cobrofacil/internal/service"

	"github.com/gin-gonic/gin"
)

// CajaHandler serves the register-scoped reads: active shift, gate, daily
// budget and history.
type CajaHandler struct{ svc service.TurnoService }

func NewCajaHandler(svc service.TurnoService) *CajaHandler { return &CajaHandler{svc: svc} }

// TurnoActivo godoc
// @Summary Turno abierto de la caja
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param caja path string true "Caja"
// @Success 200 {object} dto.TurnoResponse
// @Failure 404 {object} apierror.APIError "sin turno abierto"
// @Router /v1/cajas/{caja}/turno-activo [get]
func (h *CajaHandler) TurnoActivo(c *gin.Context) {
	resp, err := h.svc.TurnoActivo(c.Request.Context(), c.Param("caja"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Estado godoc
// @Summary Indica si la caja puede operar (hay turno abierto)
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param caja path string true "Caja"
// @Success 200 {object} dto.EstadoCajaResponse
// @Router /v1/cajas/{caja}/estado [get]
func (h *CajaHandler) Estado(c *gin.Context) {
	resp, err := h.svc.PuedeOperar(c.Request.Context(), c.Param("caja"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TurnosHoy godoc
// @Summary Turnos abiertos hoy y cupo restante
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param caja path string true "Caja"
// @Success 200 {object} dto.TurnosHoyResponse
// @Router /v1/cajas/{caja}/turnos-hoy [get]
func (h *CajaHandler) TurnosHoy(c *gin.Context) {
	resp, err := h.svc.TurnosHoy(c.Request.Context(), c.Param("caja"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary Historial de turnos de la caja
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param caja path string true "Caja"
// @Param desde query string false "YYYY-MM-DD"
// @Param hasta query string false "YYYY-MM-DD"
// @Param page query int false "Pagina" default(1)
// @Param limit query int false "Tamano de pagina" default(20)
// @Success 200 {object} dto.HistorialResponse
// @Router /v1/cajas/{caja}/turnos [get]
func (h *CajaHandler) Historial(c *gin.Context) {
	var f dto.HistorialFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("parametros invalidos: "+err.Error()))
		return
	}
	if !validateStruct(c, &f) {
		return
	}
	f.Caja = c.Param("caja")
	resp, err := h.svc.Historial(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
