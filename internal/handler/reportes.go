package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"cobrofacil/internal/apierror"
	"cobrofacil/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Listar godoc
// @Summary Reportes diarios generados para la caja
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param caja path string true "Caja"
// @Param page query int false "Pagina" default(1)
// @Param limit query int false "Tamano de pagina" default(20)
// @Success 200 {object} dto.ReporteListResponse
// @Router /v1/cajas/{caja}/reportes [get]
func (h *ReportesHandler) Listar(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	resp, err := h.svc.Listar(c.Request.Context(), c.Param("caja"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary Descarga el PDF de un reporte diario
// @Tags reportes
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID del reporte"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/reportes/{id}/pdf [get]
func (h *ReportesHandler) DescargarPDF(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, err := h.svc.RutaPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if path == "" {
		c.JSON(http.StatusNotFound, apierror.New("PDF no disponible"))
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
