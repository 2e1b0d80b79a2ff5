package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	"github.com/journalkeep/journal-backend/pkg/jwt"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService authentication business logic
type AuthService interface {
	Register(req *domain.RegisterRequest) (*domain.UserResponse, error)
	Login(username, password string) (*domain.LoginResponse, error)
	RefreshToken(refreshToken string) (*domain.LoginResponse, error)
	GetCurrentUser(username string) (*domain.UserResponse, error)
	VerifyEmail(token string) (*domain.UserResponse, error)
	ResendVerification(email string) error
	ChangePassword(username string, req *domain.ChangePasswordRequest) error
}

// VerificationTokenTTL 인증 토큰 유효 기간
const VerificationTokenTTL = 24 * time.Hour

// VerificationMailer delivers verification emails (pkg/mailer)
type VerificationMailer interface {
	SendVerification(to, username, token string) error
}

type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.VerificationTokenRepository
	jwtManager *jwt.Manager
	mailer     VerificationMailer
	autoVerify bool
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new AuthService. With autoVerify, new accounts are
// marked verified immediately and become eligible for reminders; otherwise a
// verification token is issued and mailed.
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.VerificationTokenRepository, jwtManager *jwt.Manager, autoVerify bool, opts ...AuthOption) AuthService {
	s := &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
		autoVerify: autoVerify,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthOption configures optional AuthService collaborators
type AuthOption func(*authService)

// WithVerificationMailer 인증 메일 발송기 (없으면 토큰만 저장)
func WithVerificationMailer(m VerificationMailer) AuthOption {
	return func(s *authService) { s.mailer = m }
}

// WithAuthClock 테스트용 시계 주입
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

// Register creates a new user account
func (s *authService) Register(req *domain.RegisterRequest) (*domain.UserResponse, error) {
	// 중복 체크
	exists, err := s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.Conflict("Username is already taken")
	}

	exists, err = s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.Conflict("Email is already in use")
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, common.BadRequest("Invalid timezone: %s", tz)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Timezone:     tz,
		Verified:     s.autoVerify,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	log := pkglogger.WithUserID(user.ID)
	log.Info().Str("username", user.Username).Msg("user registered")

	// 메일 실패는 가입을 막지 않는다. resend-verification으로 재시도 가능.
	if !user.Verified {
		if err := s.sendVerification(user); err != nil {
			log.Warn().Err(err).Msg("verification email not sent")
		}
	}
	resp := user.ToResponse()
	return &resp, nil
}

// Login authenticates user and returns tokens
func (s *authService) Login(username, password string) (*domain.LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.Unauthorized("Invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.Unauthorized("Invalid username or password")
	}

	return s.issue(user)
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (s *authService) RefreshToken(refreshToken string) (*domain.LoginResponse, error) {
	claims, err := s.jwtManager.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, common.Unauthorized("Invalid refresh token")
	}

	// 토큰 발급 이후 탈퇴/변경된 사용자 거르기
	user, err := s.userRepo.FindByUsername(claims.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}
	if user.ID != claims.UserID {
		return nil, common.Unauthorized("Invalid refresh token")
	}

	return s.issue(user)
}

// GetCurrentUser returns the profile of the authenticated user
func (s *authService) GetCurrentUser(username string) (*domain.UserResponse, error) {
	user, err := resolveUser(s.userRepo, username)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// VerifyEmail marks the token's owner verified and consumes the token
func (s *authService) VerifyEmail(token string) (*domain.UserResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.BadRequest("Verification token is required")
	}

	vt, err := s.tokenRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.BadRequest("Invalid verification token")
		}
		return nil, err
	}
	if vt.Expired(s.now()) {
		return nil, common.BadRequest("Verification token has expired")
	}

	user, err := s.userRepo.FindByID(vt.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.BadRequest("Invalid verification token")
		}
		return nil, err
	}
	if err := s.userRepo.MarkVerified(user.ID); err != nil {
		return nil, err
	}
	if err := s.tokenRepo.DeleteByUserID(user.ID); err != nil {
		return nil, err
	}
	user.Verified = true

	log := pkglogger.WithUserID(user.ID)
	log.Info().Msg("email verified")
	resp := user.ToResponse()
	return &resp, nil
}

// ResendVerification replaces the user's token and mails it again
func (s *authService) ResendVerification(email string) error {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFound("User not found")
		}
		return err
	}
	if user.Verified {
		return common.Conflict("Account is already verified")
	}
	return s.sendVerification(user)
}

// ChangePassword re-hashes the password after checking the current one
func (s *authService) ChangePassword(username string, req *domain.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return common.BadRequest("Passwords do not match")
	}

	user, err := resolveUser(s.userRepo, username)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return common.BadRequest("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, string(hash)); err != nil {
		return err
	}

	log := pkglogger.WithUserID(user.ID)
	log.Info().Msg("password changed")
	return nil
}

// sendVerification 새 토큰 저장 후 메일 발송
func (s *authService) sendVerification(user *domain.User) error {
	vt := &domain.VerificationToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(VerificationTokenTTL),
	}
	if err := s.tokenRepo.Replace(vt); err != nil {
		return err
	}
	if s.mailer == nil {
		log := pkglogger.WithUserID(user.ID)
		log.Warn().Msg("mail disabled, verification token stored only")
		return nil
	}
	return s.mailer.SendVerification(user.Email, user.Username, vt.Token)
}

func (s *authService) issue(user *domain.User) (*domain.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}
