package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/middleware"
	"github.com/journalkeep/journal-backend/internal/service"
)

const refreshCookie = "refresh_token"

// AuthHandler handles authentication requests
type AuthHandler struct {
	service      service.AuthService
	secureCookie bool
	refreshTTL   int // seconds
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the refresh
// cookie HTTPS-only; refreshTTL is its max age in seconds.
func NewAuthHandler(s service.AuthService, secureCookie bool, refreshTTL int) *AuthHandler {
	return &AuthHandler{service: s, secureCookie: secureCookie, refreshTTL: refreshTTL}
}

// Register handles POST /api/v1/auth/register
// @Summary 회원가입
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.RegisterRequest true "요청 본문"
// @Success 201 {object} common.V2Response{data=domain.UserResponse}
// @Failure 400 {object} common.V2Response
// @Failure 409 {object} common.V2Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.Register(&req)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Created(c, user)
}

// Login handles POST /api/v1/auth/login
// refresh_token은 body와 httpOnly 쿠키 양쪽으로 전달
// @Summary 로그인
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "요청 본문"
// @Success 200 {object} common.V2Response{data=domain.LoginResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	h.setRefreshCookie(c, resp.RefreshToken, h.refreshTTL)
	common.V2Success(c, resp)
}

// RefreshToken handles POST /api/v1/auth/refresh
// 쿠키 우선, 없으면 body의 refreshToken
// @Summary 토큰 갱신
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.RefreshRequest true "요청 본문"
// @Success 200 {object} common.V2Response{data=domain.LoginResponse}
// @Failure 401 {object} common.V2Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		var req domain.RefreshRequest
		if !bindJSON(c, &req) {
			return
		}
		token = req.RefreshToken
	}

	resp, err := h.service.RefreshToken(token)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	h.setRefreshCookie(c, resp.RefreshToken, h.refreshTTL)
	common.V2Success(c, resp)
}

// Logout handles POST /api/v1/auth/logout
// @Summary 로그아웃 (refresh 쿠키 삭제)
// @Tags auth
// @Produce json
// @Success 200 {object} common.V2Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
	common.V2NoContent(c)
}

// Me handles GET /api/v1/auth/me
// @Summary 내 정보 조회
// @Tags auth
// @Produce json
// @Success 200 {object} common.V2Response{data=domain.UserResponse}
// @Failure 401 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.GetCurrentUser(middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, user)
}

// VerifyEmail handles GET /api/v1/auth/verify?token=
// @Summary 이메일 인증
// @Tags auth
// @Produce json
// @Param token query string true "인증 토큰"
// @Success 200 {object} common.V2Response{data=domain.UserResponse}
// @Failure 400 {object} common.V2Response
// @Router /auth/verify [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.service.VerifyEmail(c.Query("token"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, user)
}

// ResendVerification handles POST /api/v1/auth/resend-verification
// @Summary 인증 메일 재발송
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.ResendVerificationRequest true "요청 본문"
// @Success 200 {object} common.V2Response
// @Failure 400 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Failure 409 {object} common.V2Response
// @Router /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req domain.ResendVerificationRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ResendVerification(req.Email); err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, gin.H{"message": "Verification email sent"})
}

// ChangePassword handles POST /api/v1/auth/change-password
// @Summary 비밀번호 변경
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.ChangePasswordRequest true "요청 본문"
// @Success 200 {object} common.V2Response
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Security BearerAuth
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req domain.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(middleware.GetUsername(c), &req); err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2NoContent(c)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, token, maxAge, "/api/v1/auth", "", h.secureCookie, true)
}
