package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/ecoalerta/ecoalerta-api/services"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
)

type ExportController struct {
	Export *services.ExportService
}

func NewExportController(export *services.ExportService) *ExportController {
	return &ExportController{Export: export}
}

// ExportCSV streams the filtered reports as CSV.
func (ec *ExportController) ExportCSV(c *gin.Context) {
	filter := services.ParseReportFilter(c.Query("estado"), c.Query("categoria"), c.Query("codigo"))
	reports, err := ec.Export.Load(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorLogger.Printf("Error loading reports for CSV: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := ec.Export.WriteCSV(&buf, reports); err != nil {
		utils.ErrorLogger.Printf("Error writing CSV: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", attachment("csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportPDF renders the filtered reports and the status summary as PDF.
func (ec *ExportController) ExportPDF(c *gin.Context) {
	filter := services.ParseReportFilter(c.Query("estado"), c.Query("categoria"), c.Query("codigo"))
	reports, err := ec.Export.Load(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorLogger.Printf("Error loading reports for PDF: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := ec.Export.WritePDF(c.Request.Context(), &buf, reports); err != nil {
		utils.ErrorLogger.Printf("Error generating PDF: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", attachment("pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="reportes_%s.%s"`, time.Now().Format("20060102_150405"), ext)
}
