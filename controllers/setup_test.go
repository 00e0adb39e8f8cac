package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecoalerta/ecoalerta-api/config"
	"github.com/ecoalerta/ecoalerta-api/database"
	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/router"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	cfg    *config.Config
	router *gin.Engine
	tokens *utils.TokenManager
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.DBDriver = "sqlite"
	cfg.DBPath = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.MediaRoot = t.TempDir()
	cfg.RateLimitPerSecond = 0
	cfg.AuthRateLimitPerMinute = 1000
	cfg.PageSize = 3
	cfg.SecretKey = "controllers-test-secret"

	db, err := config.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return &testEnv{
		t:      t,
		db:     db,
		cfg:    cfg,
		router: router.SetupRouter(db, cfg, nil),
		tokens: utils.NewTokenManager(cfg.SecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
	}
}

func (e *testEnv) createUser(username, tipo string, staff bool) *models.User {
	e.t.Helper()
	user := models.NewUser(username, tipo)
	user.IsStaff = staff
	require.NoError(e.t, user.SetPassword("secret123"))
	require.NoError(e.t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) token(user *models.User) string {
	e.t.Helper()
	access, _, err := e.tokens.GenerateTokens(user.ID, user.Tipo, user.IsStaff)
	require.NoError(e.t, err)
	return access
}

func (e *testEnv) createCategory(nombre string) *models.WasteCategory {
	e.t.Helper()
	cat := &models.WasteCategory{Nombre: nombre}
	require.NoError(e.t, e.db.Create(cat).Error)
	return cat
}

func (e *testEnv) createReport(code, estado string, lat, lng float64, categoryID *uint) *models.Report {
	e.t.Helper()
	report := &models.Report{TrackingCode: code, Estado: estado, CategoryID: categoryID}
	report.SetLocation(&models.Location{Lat: lat, Lng: lng})
	require.NoError(e.t, e.db.Create(report).Error)
	return report
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
