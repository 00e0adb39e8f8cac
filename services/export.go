package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"gorm.io/gorm"
)

const exportTimeLayout = "2006-01-02 15:04"

var csvHeader = []string{
	"codigo_seguimiento", "estado", "categoria", "descripcion", "email",
	"direccion", "lat", "lng", "foto", "fecha_creacion", "fecha_actualizacion", "asignado_a",
}

type ExportService struct {
	DB       *gorm.DB
	Reports  *ReportService
	MediaURL string
	now      func() time.Time
}

func NewExportService(db *gorm.DB, reports *ReportService, mediaURL string) *ExportService {
	return &ExportService{DB: db, Reports: reports, MediaURL: mediaURL, now: time.Now}
}

// Load returns the filtered reports with their category and assignee.
func (s *ExportService) Load(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	var reports []models.Report
	query := filter.Apply(s.DB.WithContext(ctx).Model(&models.Report{})).
		Preload("Category").Preload("AssignedTo")
	if err := query.Find(&reports).Error; err != nil {
		return nil, errors.Wrap(err, "load reports for export")
	}
	return reports, nil
}

// WriteCSV writes one row per report after a header row.
func (s *ExportService) WriteCSV(w io.Writer, reports []models.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}

	for i := range reports {
		r := reports[i].ToResponse(s.MediaURL)
		row := []string{
			r.CodigoSeguimiento,
			r.Estado,
			deref(r.CategoriaNombre),
			r.Descripcion,
			r.Email,
			r.Direccion,
			formatCoord(r.Lat),
			formatCoord(r.Lng),
			deref(r.Foto),
			r.FechaCreacion.UTC().Format(time.RFC3339),
			r.FechaActualizacion.UTC().Format(time.RFC3339),
			assigneeName(&reports[i]),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// WritePDF renders the statistics table, a status chart and the report list.
func (s *ExportService) WritePDF(ctx context.Context, w io.Writer, reports []models.Report) error {
	stats, err := s.Reports.Statistics(ctx)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("EcoAlerta - Reporte de denuncias"), false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("EcoAlerta - Reporte de denuncias"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Generado: "+s.now().Format(exportTimeLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr("Resumen por estado"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	summary := []struct {
		label string
		value int64
	}{
		{"Total", stats.Total},
		{models.EstadoLabel(models.EstadoNuevo), stats.Nuevos},
		{models.EstadoLabel(models.EstadoProceso), stats.EnProceso},
		{models.EstadoLabel(models.EstadoResuelto), stats.Resueltos},
		{models.EstadoLabel(models.EstadoCerrado), stats.Cerrados},
	}
	for _, row := range summary {
		pdf.CellFormat(50, 7, tr(row.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, strconv.FormatInt(row.value, 10), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	if png, err := statusChart(stats); err != nil {
		utils.ErrorLogger.Printf("Skipping status chart in PDF export: %v", err)
	} else if png != nil {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("estados.png", opts, bytes.NewReader(png))
		pdf.ImageOptions("estados.png", 15, pdf.GetY(), 150, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Reportes (%d)", len(reports))), "", 1, "L", false, 0, "")

	widths := []float64{25, 25, 45, 30, 55}
	headers := []string{"Código", "Estado", "Categoría", "Fecha", "Dirección"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 235, 220)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for i := range reports {
		r := &reports[i]
		category := "Sin categoría"
		if r.Category != nil {
			category = r.Category.Nombre
		}
		cells := []string{
			r.TrackingCode,
			models.EstadoLabel(r.Estado),
			truncate(category, 28),
			r.FechaCreacion.Format(exportTimeLayout),
			truncate(r.Direccion, 36),
		}
		for j, text := range cells {
			pdf.CellFormat(widths[j], 6, tr(text), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "render pdf")
	}
	return nil
}

// statusChart renders a bar chart of reports per estado as PNG. It
// returns nil when there is nothing to plot.
func statusChart(stats *Statistics) ([]byte, error) {
	if stats.Total == 0 {
		return nil, nil
	}

	graph := chart.BarChart{
		Title:      "Reportes por estado",
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      640,
		Height:     360,
		BarWidth:   80,
		Bars: []chart.Value{
			{Label: models.EstadoLabel(models.EstadoNuevo), Value: float64(stats.Nuevos)},
			{Label: models.EstadoLabel(models.EstadoProceso), Value: float64(stats.EnProceso)},
			{Label: models.EstadoLabel(models.EstadoResuelto), Value: float64(stats.Resueltos)},
			{Label: models.EstadoLabel(models.EstadoCerrado), Value: float64(stats.Cerrados)},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "render status chart")
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func assigneeName(r *models.Report) string {
	if r.AssignedTo == nil {
		return ""
	}
	return r.AssignedTo.Username
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
