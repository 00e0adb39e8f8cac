package middlewares

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuth(t *testing.T) (*gorm.DB, *utils.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db, utils.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
}

func createUser(t *testing.T, db *gorm.DB, username, tipo string, active bool) *models.User {
	t.Helper()
	user := models.NewUser(username, tipo)
	user.IsActive = active
	user.Password = "x"
	require.NoError(t, db.Create(user).Error)
	return user
}

func accessToken(t *testing.T, tm *utils.TokenManager, user *models.User) string {
	t.Helper()
	access, _, err := tm.GenerateTokens(user.ID, user.Tipo, user.IsStaff)
	require.NoError(t, err)
	return access
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["detail"]
}

func staffRouter(db *gorm.DB, tm *utils.TokenManager) *gin.Engine {
	r := gin.New()
	r.GET("/staff", AuthMiddleware(db, tm), RequireStaff(), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	r.GET("/optional", OptionalAuth(db, tm), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"username": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	r.GET("/ws", WebSocketAuthMiddleware(db, tm), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	db, tm := setupAuth(t)
	inspector := createUser(t, db, "inspector", models.TipoInspector, true)
	citizen := createUser(t, db, "vecino", models.TipoCiudadano, true)
	inactive := createUser(t, db, "baja", models.TipoInspector, false)
	r := staffRouter(db, tm)

	_, refresh, err := tm.GenerateTokens(inspector.ID, inspector.Tipo, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{"missing header", "", http.StatusUnauthorized, utils.MsgNotAuthenticated},
		{"wrong scheme", "Token abc", http.StatusUnauthorized, utils.MsgNotAuthenticated},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, utils.MsgInvalidToken},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, utils.MsgInvalidToken},
		{"inactive user", "Bearer " + accessToken(t, tm, inactive), http.StatusUnauthorized, utils.MsgInvalidToken},
		{"citizen", "Bearer " + accessToken(t, tm, citizen), http.StatusForbidden, utils.MsgNoPermission},
		{"inspector", "Bearer " + accessToken(t, tm, inspector), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/staff", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, detailOf(t, w))
			}
		})
	}
}

func TestStaffFlagGrantsAccess(t *testing.T) {
	db, tm := setupAuth(t)
	staff := models.NewUser("staff", models.TipoCiudadano)
	staff.IsStaff = true
	staff.Password = "x"
	require.NoError(t, db.Create(staff).Error)

	req, _ := http.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tm, staff))
	w := httptest.NewRecorder()
	staffRouter(db, tm).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	db, tm := setupAuth(t)
	citizen := createUser(t, db, "vecino", models.TipoCiudadano, true)
	r := staffRouter(db, tm)

	for _, tc := range []struct {
		header string
		want   interface{}
	}{
		{"", nil},
		{"Bearer broken", nil},
		{"Bearer " + accessToken(t, tm, citizen), "vecino"},
	} {
		req, _ := http.NewRequest(http.MethodGet, "/optional", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.want, body["username"])
	}
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	db, tm := setupAuth(t)
	inspector := createUser(t, db, "inspector", models.TipoInspector, true)
	r := staffRouter(db, tm)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ws?token=nope", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ws?token="+accessToken(t, tm, inspector), nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/window", NewRateLimiter(2, 60).RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/login", NewStrictRateLimiter(3).Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(method, path, ip string) int {
		req, _ := http.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit(http.MethodGet, "/window", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(http.MethodGet, "/window", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(http.MethodGet, "/window", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(http.MethodGet, "/window", "10.0.0.2"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(http.MethodPost, "/login", "10.0.0.3"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(http.MethodPost, "/login", "10.0.0.3"))
	assert.Equal(t, http.StatusOK, hit(http.MethodPost, "/login", "10.0.0.4"))
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestRateLimitersForgetIdleClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	window := NewRateLimiter(2, 60)
	window.now = clock.Now
	strict := NewStrictRateLimiter(3)
	strict.now = clock.Now

	r := gin.New()
	r.GET("/window", window.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/login", strict.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(method, path, ip string) int {
		req, _ := http.NewRequest(method, path, nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 50; i++ {
		ip := fmt.Sprintf("10.1.0.%d", i)
		hit(http.MethodGet, "/window", ip)
		hit(http.MethodPost, "/login", ip)
	}
	assert.Equal(t, 50, window.tracked())
	assert.Equal(t, 50, strict.tracked())

	for i := 0; i < 3; i++ {
		hit(http.MethodPost, "/login", "10.2.0.1")
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(http.MethodPost, "/login", "10.2.0.1"))

	clock.Advance(61 * time.Second)

	assert.Equal(t, http.StatusOK, hit(http.MethodGet, "/window", "10.3.0.1"))
	assert.Equal(t, 1, window.tracked())
	assert.Equal(t, http.StatusOK, hit(http.MethodPost, "/login", "10.2.0.1"))
	assert.Equal(t, 1, strict.tracked())
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggerMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/x?y=1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
}
