package controllers

import (
	"net/http"
	"time"

	"github.com/ecoalerta/ecoalerta-api/database"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const serviceName = "ecoalerta-api"

type DiagnosticController struct {
	DB *gorm.DB
}

func NewDiagnosticController(db *gorm.DB) *DiagnosticController {
	return &DiagnosticController{DB: db}
}

func (dc *DiagnosticController) Health(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, gin.H{
		"status":    "ok",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DBStatus reports connectivity, tables and location columns of the store.
func (dc *DiagnosticController) DBStatus(c *gin.Context) {
	status, err := database.Inspect(c.Request.Context(), dc.DB)
	if err != nil && status.Database == "error" {
		utils.ErrorLogger.Printf("Database diagnostic failed: %v", err)
		utils.RespondJSON(c, http.StatusServiceUnavailable, status)
		return
	}
	if err != nil {
		utils.ErrorLogger.Printf("Database diagnostic incomplete: %v", err)
		status.Error = err.Error()
	}
	utils.RespondJSON(c, http.StatusOK, status)
}
