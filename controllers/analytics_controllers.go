package controllers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/services"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
)

type AnalyticsController struct {
	Heatmap       *services.HeatmapService
	DefaultRadius float64
}

func NewAnalyticsController(heatmap *services.HeatmapService, defaultRadius float64) *AnalyticsController {
	if defaultRadius <= 0 {
		defaultRadius = services.DefaultGridSize
	}
	return &AnalyticsController{Heatmap: heatmap, DefaultRadius: defaultRadius}
}

type heatmapParameters struct {
	Radio       float64 `json:"radio"`
	MinDensidad int     `json:"min_densidad"`
	GridSize    float64 `json:"grid_size"`
	Estado      *string `json:"estado"`
	Categoria   *string `json:"categoria"`
}

type heatmapResponse struct {
	Puntos        []services.HeatmapPoint `json:"puntos"`
	TotalPuntos   int                     `json:"total_puntos"`
	TotalReportes int                     `json:"total_reportes"`
	Parametros    heatmapParameters       `json:"parametros"`
	Error         string                  `json:"error,omitempty"`
}

// GetHeatmap aggregates report positions into density cells. Failures are
// reported in the body with an empty result and status 200 so map widgets
// keep rendering.
func (ac *AnalyticsController) GetHeatmap(c *gin.Context) {
	params, echo := ac.parseHeatmapQuery(c)

	resp := heatmapResponse{Puntos: []services.HeatmapPoint{}, Parametros: echo}
	result, err := ac.Heatmap.Build(c.Request.Context(), params)
	if err != nil {
		utils.ErrorLogger.Printf("Heatmap degraded: %v", err)
		resp.Error = err.Error()
	} else {
		resp.Puntos = result.Points
		resp.TotalPuntos = len(result.Points)
		resp.TotalReportes = result.TotalReports
	}

	if strings.EqualFold(c.Query("formato"), "geojson") {
		utils.RespondJSON(c, http.StatusOK, heatmapGeoJSON(resp))
		return
	}
	utils.RespondJSON(c, http.StatusOK, resp)
}

func (ac *AnalyticsController) parseHeatmapQuery(c *gin.Context) (services.HeatmapParams, heatmapParameters) {
	radius := ac.DefaultRadius
	if raw := c.Query("radio"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			radius = v
		}
	}

	minDensity := 1
	if raw := c.Query("min_densidad"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			minDensity = v
		}
	}

	params := services.HeatmapParams{Radius: radius, MinDensity: minDensity}
	echo := heatmapParameters{
		Radio:       radius,
		MinDensidad: minDensity,
		GridSize:    services.GridSize(radius),
	}

	if estado := c.Query("estado"); estado != "" {
		params.Estado = estado
		echo.Estado = &estado
	}
	if categoria := c.Query("categoria"); categoria != "" {
		echo.Categoria = &categoria
		if id, err := strconv.ParseUint(categoria, 10, 64); err == nil {
			cat := uint(id)
			params.CategoryID = &cat
		}
	}
	return params, echo
}

func heatmapGeoJSON(resp heatmapResponse) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range resp.Puntos {
		f := geojson.NewFeature(models.Location{Lat: p.Lat, Lng: p.Lng}.Point())
		f.Properties["densidad"] = p.Densidad
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"total_puntos":   resp.TotalPuntos,
		"total_reportes": resp.TotalReportes,
		"parametros":     resp.Parametros,
	}
	if resp.Error != "" {
		fc.ExtraMembers["error"] = resp.Error
	}
	return fc
}
