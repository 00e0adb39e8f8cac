package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ecoalerta/ecoalerta-api/database"
	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createCategory(t *testing.T, db *gorm.DB, nombre string) *models.WasteCategory {
	t.Helper()
	cat := &models.WasteCategory{Nombre: nombre}
	require.NoError(t, db.Create(cat).Error)
	return cat
}

func createUser(t *testing.T, db *gorm.DB, username, tipo string) *models.User {
	t.Helper()
	user := models.NewUser(username, tipo)
	require.NoError(t, user.SetPassword("secret"))
	require.NoError(t, db.Create(user).Error)
	return user
}

type recordedEvent struct {
	event string
	data  interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Broadcast(event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event, data})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.event
	}
	return out
}

func fptr(v float64) *float64 { return &v }
