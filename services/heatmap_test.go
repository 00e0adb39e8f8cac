package services

import (
	"context"
	"math"
	"testing"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridSize(t *testing.T) {
	assert.InDelta(t, 0.02, GridSize(0.01), 1e-12)
	assert.Equal(t, DefaultGridSize, GridSize(0))
	assert.Equal(t, DefaultGridSize, GridSize(-1))
	assert.Equal(t, DefaultGridSize, GridSize(math.NaN()))
}

func TestAggregateDensitySameCell(t *testing.T) {
	rows := []Coordinates{
		{Lat: fptr(-33.4489), Lng: fptr(-70.6693)},
		{Lat: fptr(-33.4491), Lng: fptr(-70.6690)},
	}

	points := AggregateDensity(rows, 0.01, 1)
	require.Len(t, points, 1)
	assert.Equal(t, 2, points[0].Densidad)
	assert.InDelta(t, -33.44, points[0].Lat, 1e-9)
	assert.InDelta(t, -70.66, points[0].Lng, 1e-9)
}

func TestAggregateDensityMinDensityAndOrder(t *testing.T) {
	rows := []Coordinates{
		{Lat: fptr(10.0), Lng: fptr(10.0)},
		{Lat: fptr(10.001), Lng: fptr(10.001)},
		{Lat: fptr(10.002), Lng: fptr(9.999)},
		{Lat: fptr(20.0), Lng: fptr(20.0)},
		{Lat: fptr(20.001), Lng: fptr(20.001)},
		{Lat: fptr(30.0), Lng: fptr(30.0)},
	}

	points := AggregateDensity(rows, 0.01, 2)
	require.Len(t, points, 2)
	assert.Equal(t, 3, points[0].Densidad)
	assert.Equal(t, 2, points[1].Densidad)

	all := AggregateDensity(rows, 0.01, 1)
	assert.Len(t, all, 3)
}

func TestAggregateDensitySkipsIncompleteRows(t *testing.T) {
	rows := []Coordinates{
		{Lat: fptr(1), Lng: nil},
		{Lat: nil, Lng: fptr(1)},
		{Lat: fptr(math.Inf(1)), Lng: fptr(1)},
		{Lat: fptr(1), Lng: fptr(1)},
	}

	points := AggregateDensity(rows, 0.5, 1)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].Densidad)
}

func TestAggregateDensityNonPositiveRadiusUsesDefaultGrid(t *testing.T) {
	rows := []Coordinates{
		{Lat: fptr(0.004), Lng: fptr(0.004)},
		{Lat: fptr(0.0), Lng: fptr(0.0)},
	}

	points := AggregateDensity(rows, 0, 1)
	require.Len(t, points, 1)
	assert.Equal(t, 2, points[0].Densidad)
}

func TestHeatmapServiceBuild(t *testing.T) {
	db := setupTestDB(t)
	cat := createCategory(t, db, "Escombros")
	svc := NewReportService(db, nil, "/media/")
	ctx := context.Background()

	for _, loc := range []models.Location{
		{Lat: -33.4489, Lng: -70.6693},
		{Lat: -33.4491, Lng: -70.6690},
		{Lat: -20.0, Lng: -70.0},
	} {
		_, err := svc.Create(ctx, CreateReportInput{CategoryID: &cat.ID, Location: loc})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, CreateReportInput{Location: models.Location{Lat: -33.449, Lng: -70.669}})
	require.NoError(t, err)

	heatmap := NewHeatmapService(db)

	result, err := heatmap.Build(ctx, HeatmapParams{Radius: 0.01, MinDensity: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalReports)
	require.Len(t, result.Points, 1)
	assert.Equal(t, 3, result.Points[0].Densidad)

	byCategory, err := heatmap.Build(ctx, HeatmapParams{Radius: 0.01, MinDensity: 1, CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, byCategory.TotalReports)
	assert.Len(t, byCategory.Points, 2)

	byEstado, err := heatmap.Build(ctx, HeatmapParams{Radius: 0.01, Estado: models.EstadoResuelto})
	require.NoError(t, err)
	assert.Equal(t, 0, byEstado.TotalReports)
	assert.Empty(t, byEstado.Points)
}

func TestHeatmapServiceMissingColumns(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Exec("DROP TABLE notificaciones").Error)
	require.NoError(t, db.Exec("DROP TABLE reportes").Error)
	require.NoError(t, db.Exec("CREATE TABLE reportes (id integer primary key, estado text)").Error)

	_, err := NewHeatmapService(db).Build(context.Background(), HeatmapParams{Radius: 0.01})
	assert.Error(t, err)
}
