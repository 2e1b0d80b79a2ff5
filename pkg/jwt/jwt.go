package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// 토큰 종류
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims JWT 페이로드
type Claims struct {
	jwt.RegisteredClaims
	UserID    uint64 `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
}

// Manager 토큰 발급/검증
type Manager struct {
	secretKey     []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewManager creates a token manager using HS256
func NewManager(secret, issuer string, accessExpiry, refreshExpiry time.Duration) *Manager {
	return &Manager{
		secretKey:     []byte(secret),
		issuer:        issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

// AccessExpiry returns the access token lifetime
func (m *Manager) AccessExpiry() time.Duration {
	return m.accessExpiry
}

// GenerateAccessToken issues a short-lived access token
func (m *Manager) GenerateAccessToken(userID uint64, username string) (string, error) {
	return m.generate(userID, username, TokenTypeAccess, m.accessExpiry)
}

// GenerateRefreshToken issues a long-lived refresh token
func (m *Manager) GenerateRefreshToken(userID uint64, username string) (string, error) {
	return m.generate(userID, username, TokenTypeRefresh, m.refreshExpiry)
}

func (m *Manager) generate(userID uint64, username, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken validates signature and expiry of any token
//
//nolint:dupl // JWT 검증 로직은 표준 패턴을 따르므로 유사함
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// VerifyAccessToken rejects refresh tokens presented as bearer tokens
func (m *Manager) VerifyAccessToken(tokenString string) (*Claims, error) {
	return m.verifyType(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken rejects access tokens presented for refresh
func (m *Manager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return m.verifyType(tokenString, TokenTypeRefresh)
}

func (m *Manager) verifyType(tokenString, tokenType string) (*Claims, error) {
	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
