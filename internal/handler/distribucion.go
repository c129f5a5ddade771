package handler

import (
	"net/http"

	"cobrofacil/internal/dto"
	"cobrofacil/internal/service"

	"github.com/gin-gonic/gin"
)

type DistribucionHandler struct{ svc service.DistribucionService }

func NewDistribucionHandler(svc service.DistribucionService) *DistribucionHandler {
	return &DistribucionHandler{svc: svc}
}

// Obtener godoc
// @Summary Lista de distribucion del reporte diario de la caja
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param caja path string true "Caja"
// @Success 200 {object} dto.DistribucionResponse
// @Router /v1/cajas/{caja}/distribucion [get]
func (h *DistribucionHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.Obtener(c.Request.Context(), c.Param("caja"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary Reemplaza la lista de distribucion (max 5 emails)
// @Tags reportes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param caja path string true "Caja"
// @Param body body dto.DistribucionRequest true "Emails"
// @Success 200 {object} dto.DistribucionResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cajas/{caja}/distribucion [put]
func (h *DistribucionHandler) Actualizar(c *gin.Context) {
	var req dto.DistribucionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), actor, c.Param("caja"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
