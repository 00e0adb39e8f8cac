package database

import (
	"context"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.WasteCategory{},
		&models.Report{},
		&models.Notification{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// HasLocationColumns reports whether the reports table carries both
// coordinate columns.
func HasLocationColumns(db *gorm.DB) bool {
	m := db.Migrator()
	return m.HasTable(&models.Report{}) &&
		m.HasColumn(&models.Report{}, "ubicacion_lat") &&
		m.HasColumn(&models.Report{}, "ubicacion_lng")
}

// Status is a snapshot of the store used by the diagnostic endpoint.
type Status struct {
	Database string           `json:"database"`
	Engine   string           `json:"engine"`
	Tables   map[string]bool  `json:"tables"`
	Columns  map[string]bool  `json:"columns"`
	Counts   map[string]int64 `json:"counts"`
	Error    string           `json:"error,omitempty"`
}

// Inspect pings the store and reports tables, location columns and row counts.
func Inspect(ctx context.Context, db *gorm.DB) (*Status, error) {
	status := &Status{
		Engine:  db.Dialector.Name(),
		Tables:  map[string]bool{},
		Columns: map[string]bool{},
		Counts:  map[string]int64{},
	}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status.Database = "error"
		status.Error = err.Error()
		return status, errors.Wrap(err, "ping database")
	}
	status.Database = "connected"

	m := db.Migrator()
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return status, errors.Wrap(err, "parse model")
		}
		table := stmt.Schema.Table
		exists := m.HasTable(model)
		status.Tables[table] = exists
		if !exists {
			continue
		}
		var count int64
		if err := db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
			status.Error = err.Error()
			continue
		}
		status.Counts[table] = count
	}

	for _, column := range []string{"ubicacion_lat", "ubicacion_lng"} {
		status.Columns[column] = status.Tables["reportes"] && m.HasColumn(&models.Report{}, column)
	}
	return status, nil
}
