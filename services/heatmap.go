package services

import (
	"context"
	"math"
	"sort"

	"github.com/ecoalerta/ecoalerta-api/database"
	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DefaultGridSize is the cell size used when 2*radius is not positive.
const DefaultGridSize = 0.01

// Coordinates is one report position as stored; either side may be null.
type Coordinates struct {
	Lat *float64 `gorm:"column:ubicacion_lat"`
	Lng *float64 `gorm:"column:ubicacion_lng"`
}

// HeatmapPoint is one populated grid cell.
type HeatmapPoint struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Densidad int     `json:"densidad"`
}

type HeatmapParams struct {
	Radius     float64
	MinDensity int
	Estado     string
	CategoryID *uint
}

type HeatmapResult struct {
	Points       []HeatmapPoint
	TotalReports int
	GridSize     float64
}

// GridSize returns the cell edge for a radius in degrees.
func GridSize(radius float64) float64 {
	g := 2 * radius
	if g <= 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		return DefaultGridSize
	}
	return g
}

type cellKey struct {
	lat, lng int64
}

// AggregateDensity buckets coordinates into square cells of GridSize(radius)
// centered on multiples of the cell size, keeps cells holding at least
// minDensity points and orders them by density, highest first.
// Rows with a missing or non-finite coordinate are skipped.
func AggregateDensity(rows []Coordinates, radius float64, minDensity int) []HeatmapPoint {
	g := GridSize(radius)
	counts := make(map[cellKey]int)

	for _, row := range rows {
		if row.Lat == nil || row.Lng == nil {
			continue
		}
		lat, lng := *row.Lat, *row.Lng
		if !finite(lat) || !finite(lng) {
			continue
		}
		counts[cellKey{
			lat: int64(math.RoundToEven(lat / g)),
			lng: int64(math.RoundToEven(lng / g)),
		}]++
	}

	points := make([]HeatmapPoint, 0, len(counts))
	for key, count := range counts {
		if count < minDensity {
			continue
		}
		points = append(points, HeatmapPoint{
			Lat:      roundCoord(float64(key.lat) * g),
			Lng:      roundCoord(float64(key.lng) * g),
			Densidad: count,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Densidad != points[j].Densidad {
			return points[i].Densidad > points[j].Densidad
		}
		if points[i].Lat != points[j].Lat {
			return points[i].Lat < points[j].Lat
		}
		return points[i].Lng < points[j].Lng
	})
	return points
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// roundCoord trims float noise from idx*g products.
func roundCoord(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

type HeatmapService struct {
	DB *gorm.DB
}

func NewHeatmapService(db *gorm.DB) *HeatmapService {
	return &HeatmapService{DB: db}
}

// Build loads the filtered coordinates and aggregates them. It fails when
// the location columns are missing, which happens on a partially migrated schema.
func (s *HeatmapService) Build(ctx context.Context, params HeatmapParams) (*HeatmapResult, error) {
	if !database.HasLocationColumns(s.DB) {
		return nil, errors.New("las columnas de ubicación no existen en la tabla de reportes")
	}

	query := s.DB.WithContext(ctx).Model(&models.Report{}).
		Select("ubicacion_lat", "ubicacion_lng").
		Where("ubicacion_lat IS NOT NULL AND ubicacion_lng IS NOT NULL")
	if params.Estado != "" {
		query = query.Where("estado = ?", params.Estado)
	}
	if params.CategoryID != nil {
		query = query.Where("categoria_id = ?", *params.CategoryID)
	}

	var rows []Coordinates
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load report coordinates")
	}

	minDensity := params.MinDensity
	if minDensity < 1 {
		minDensity = 1
	}

	return &HeatmapResult{
		Points:       AggregateDensity(rows, params.Radius, minDensity),
		TotalReports: len(rows),
		GridSize:     GridSize(params.Radius),
	}, nil
}
