package infra

// pdf.go: consolidated daily report rendered with go-pdf/fpdf.
// Layout (A4 portrait):
//   - Register and date header
//   - One block per shift: opening float, expected / counted cash, variance
//   - Day totals by payment method and by movement kind
//   - Sales by category and by product, when the catalog answered
//   - Warnings
//
// The output file is saved to storagePath/reporte_{caja}_{fecha}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"cobrofacil/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

var nombreArchivoInvalido = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// PDFRenderer writes report PDFs into a fixed directory.
type PDFRenderer struct {
	storagePath string
}

func NewPDFRenderer(storagePath string) *PDFRenderer {
	return &PDFRenderer{storagePath: storagePath}
}

func (r *PDFRenderer) RenderReporte(c *model.ContenidoReporte) (string, error) {
	return GenerateReporteDiarioPDF(c, r.storagePath)
}

// GenerateReporteDiarioPDF renders c and returns the path of the written file.
func GenerateReporteDiarioPDF(c *model.ContenidoReporte, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("reporte_%s_%s.pdf", nombreArchivoInvalido.ReplaceAllString(c.Caja, "_"), c.Fecha)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr("Reporte diario de caja"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr(fmt.Sprintf("Caja %s  ·  %s", c.Caja, c.Fecha)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, "Generado "+c.GeneradoEn.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Turnos ────────────────────────────────────────────────────────────────
	col := contentW / 6
	seccion(pdf, tr, contentW, "Turnos")
	pdf.SetFont("Helvetica", "B", 8)
	for _, h := range []string{"Turno", "Estado", "Inicial", "Esperado", "Contado", "Desvío"} {
		pdf.CellFormat(col, 6, tr(h), "B", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, t := range c.Turnos {
		pdf.CellFormat(col, 6, tr(t.Etiqueta), "", 0, "L", false, 0, "")
		pdf.CellFormat(col, 6, tr(string(t.Estado)), "", 0, "C", false, 0, "")
		pdf.CellFormat(col, 6, monto(t.MontoInicial), "", 0, "R", false, 0, "")
		pdf.CellFormat(col, 6, montoPtr(t.EfectivoEsperado), "", 0, "R", false, 0, "")
		pdf.CellFormat(col, 6, montoPtr(t.EfectivoContado), "", 0, "R", false, 0, "")
		pdf.CellFormat(col, 6, montoPtr(t.Desvio), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col*5, 6, tr("Desvío total del día"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(col, 6, monto(c.DesvioTotal), "T", 1, "R", false, 0, "")
	pdf.Ln(4)

	// ── Totales ───────────────────────────────────────────────────────────────
	seccion(pdf, tr, contentW, "Totales por medio de pago (neto)")
	pdf.SetFont("Helvetica", "", 9)
	for _, m := range model.MetodosPago {
		fila(pdf, tr, contentW, string(m), monto(c.PorMetodo[m]))
	}
	pdf.Ln(3)

	seccion(pdf, tr, contentW, "Totales por tipo de movimiento")
	pdf.SetFont("Helvetica", "", 9)
	for _, k := range model.TiposMovimiento {
		fila(pdf, tr, contentW, string(k), monto(c.PorTipo[k]))
	}
	pdf.SetFont("Helvetica", "B", 10)
	fila(pdf, tr, contentW, "Total ventas", monto(c.TotalVentas))
	pdf.Ln(3)

	// ── Ventas ────────────────────────────────────────────────────────────────
	if len(c.Categorias) > 0 {
		seccion(pdf, tr, contentW, "Ventas por categoría")
		pdf.SetFont("Helvetica", "", 9)
		for _, cat := range c.Categorias {
			fila(pdf, tr, contentW, fmt.Sprintf("%s (x%s)", cat.Categoria, cat.Cantidad.String()), monto(cat.Total))
		}
		pdf.Ln(3)
	}
	if len(c.Productos) > 0 {
		seccion(pdf, tr, contentW, "Ventas por producto")
		pdf.SetFont("Helvetica", "", 8)
		for _, p := range c.Productos {
			nombre := p.Nombre
			if len([]rune(nombre)) > 60 {
				nombre = string([]rune(nombre)[:59]) + "…"
			}
			fila(pdf, tr, contentW, fmt.Sprintf("%s (x%s)", nombre, p.Cantidad.String()), monto(p.Total))
		}
		pdf.Ln(3)
	}

	// ── Advertencias ──────────────────────────────────────────────────────────
	if len(c.Advertencias) > 0 {
		seccion(pdf, tr, contentW, "Advertencias")
		pdf.SetFont("Helvetica", "I", 8)
		for _, a := range c.Advertencias {
			pdf.MultiCell(contentW, 5, tr("- "+a), "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func seccion(pdf *fpdf.Fpdf, tr func(string) string, w float64, titulo string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(w, 7, tr(titulo), "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func fila(pdf *fpdf.Fpdf, tr func(string) string, w float64, etiqueta, valor string) {
	pdf.CellFormat(w*0.7, 5, tr(etiqueta), "", 0, "L", false, 0, "")
	pdf.CellFormat(w*0.3, 5, valor, "", 1, "R", false, 0, "")
}

func monto(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

func montoPtr(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return monto(*d)
}
