package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	tokenIssuer = "ecoalerta"
)

var (
	ErrInvalidToken   = errors.New("token is invalid or expired")
	ErrWrongTokenType = errors.New("token has wrong type")
)

type CustomClaims struct {
	UserID    uint   `json:"user_id"`
	Tipo      string `json:"tipo"`
	IsStaff   bool   `json:"is_staff"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager issues and parses HS256 access/refresh token pairs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateTokens returns a fresh access and refresh token for the user.
func (tm *TokenManager) GenerateTokens(userID uint, tipo string, isStaff bool) (access string, refresh string, err error) {
	access, err = tm.generate(userID, tipo, isStaff, TokenTypeAccess, tm.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = tm.generate(userID, tipo, isStaff, TokenTypeRefresh, tm.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// GenerateAccessToken issues only an access token, used by the refresh endpoint.
func (tm *TokenManager) GenerateAccessToken(userID uint, tipo string, isStaff bool) (string, error) {
	return tm.generate(userID, tipo, isStaff, TokenTypeAccess, tm.accessTTL)
}

func (tm *TokenManager) generate(userID uint, tipo string, isStaff bool, tokenType string, ttl time.Duration) (string, error) {
	now := tm.now()
	claims := &CustomClaims{
		UserID:    userID,
		Tipo:      tipo,
		IsStaff:   isStaff,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ParseToken validates signature, expiry and issuer. It accepts any token type.
func (tm *TokenManager) ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(tm.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseTyped is ParseToken plus a token_type check.
func (tm *TokenManager) ParseTyped(tokenString, tokenType string) (*CustomClaims, error) {
	claims, err := tm.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
