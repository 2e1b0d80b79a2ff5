package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/pkg/jwt"
)

// gin context keys
const (
	ctxUserID   = "userID"
	ctxUsername = "username"
)

// JWTAuth JWT authentication middleware. Only access tokens are accepted.
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Authorization 헤더
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.V2ErrorResponse(c, http.StatusUnauthorized, "Missing authorization header", nil)
			c.Abort()
			return
		}

		// 2. Bearer 토큰 파싱
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			common.V2ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		// 3. 검증
		claims, err := jwtManager.VerifyAccessToken(parts[1])
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token expired"
			}
			common.V2ErrorResponse(c, http.StatusUnauthorized, msg, nil)
			c.Abort()
			return
		}

		// 4. 컨텍스트에 사용자 정보 저장
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)

		c.Next()
	}
}

// GetUserID extracts the authenticated user id from context
func GetUserID(c *gin.Context) uint64 {
	if id, ok := c.Get(ctxUserID); ok {
		if v, ok := id.(uint64); ok {
			return v
		}
	}
	return 0
}

// GetUsername extracts the authenticated username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}
