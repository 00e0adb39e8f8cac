package controllers

import (
	"errors"
	"net/http"

	"github.com/ecoalerta/ecoalerta-api/models"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const msgBadCredentials = "No active account found with the given credentials"

type AuthController struct {
	DB     *gorm.DB
	Tokens *utils.TokenManager
}

func NewAuthController(db *gorm.DB, tokens *utils.TokenManager) *AuthController {
	return &AuthController{DB: db, Tokens: tokens}
}

type credentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// authenticate returns the active user matching the credentials.
func (ac *AuthController) authenticate(c *gin.Context, req credentialsRequest) (*models.User, bool) {
	var user models.User
	if err := ac.DB.WithContext(c.Request.Context()).Where("username = ?", req.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorLogger.Printf("Error loading user %s: %v", req.Username, err)
		}
		return nil, false
	}
	if !user.IsActive || !user.CheckPassword(req.Password) {
		return nil, false
	}
	return &user, true
}

// Login is the dashboard login: only staff may enter.
func (ac *AuthController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidation(c, err)
		return
	}

	user, ok := ac.authenticate(c, req)
	if !ok {
		utils.InfoLogger.Printf("Failed login for %s from %s", req.Username, c.ClientIP())
		utils.RespondError(c, http.StatusUnauthorized, errors.New("Credenciales incorrectas"))
		return
	}
	if !user.CanManageReports() {
		utils.RespondError(c, http.StatusForbidden, errors.New("No tienes permisos para acceder"))
		return
	}

	access, refresh, err := ac.Tokens.GenerateTokens(user.ID, user.Tipo, user.IsStaff)
	if err != nil {
		utils.ErrorLogger.Printf("Error signing tokens: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, tipo: %s", user.Username, user.Tipo)
	utils.RespondJSON(c, http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"tipo":     user.Tipo,
		},
		"access":  access,
		"refresh": refresh,
	})
}

// ObtainToken issues an access/refresh pair for any active user.
func (ac *AuthController) ObtainToken(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidation(c, err)
		return
	}

	user, ok := ac.authenticate(c, req)
	if !ok {
		utils.RespondDetail(c, http.StatusUnauthorized, msgBadCredentials)
		return
	}

	access, refresh, err := ac.Tokens.GenerateTokens(user.ID, user.Tipo, user.IsStaff)
	if err != nil {
		utils.ErrorLogger.Printf("Error signing tokens: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, gin.H{
		"access":  access,
		"refresh": refresh,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"tipo":     user.Tipo,
			"is_staff": user.IsStaff,
		},
	})
}

// RefreshToken exchanges a refresh token for a new access token.
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh" form:"refresh" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidation(c, err)
		return
	}

	claims, err := ac.Tokens.ParseTyped(req.Refresh, utils.TokenTypeRefresh)
	if err != nil {
		utils.RespondDetail(c, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	var user models.User
	if err := ac.DB.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil || !user.IsActive {
		utils.RespondDetail(c, http.StatusUnauthorized, msgBadCredentials)
		return
	}

	access, err := ac.Tokens.GenerateAccessToken(user.ID, user.Tipo, user.IsStaff)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{"access": access})
}

// VerifyToken checks signature and expiry of any token.
func (ac *AuthController) VerifyToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" form:"token" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondValidation(c, err)
		return
	}

	if _, err := ac.Tokens.ParseToken(req.Token); err != nil {
		utils.RespondDetail(c, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{})
}
