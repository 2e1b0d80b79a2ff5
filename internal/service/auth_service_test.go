package service

import (
	"errors"
	"testing"
	"time"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	"github.com/journalkeep/journal-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) WithTx(_ *gorm.DB) repository.UserRepository {
	return m
}

func (m *mockUserRepo) Create(user *domain.User) error {
	args := m.Called(user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(id uint64) (*domain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByUsername(username string) (*domain.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByUsername(username string) (bool, error) {
	args := m.Called(username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(email string) (*domain.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ListVerified() ([]*domain.User, error) {
	args := m.Called()
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *mockUserRepo) MarkVerified(id uint64) error {
	return m.Called(id).Error(0)
}

func (m *mockUserRepo) UpdatePassword(id uint64, passwordHash string) error {
	return m.Called(id, passwordHash).Error(0)
}

// --- Mock VerificationTokenRepository ---

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) WithTx(_ *gorm.DB) repository.VerificationTokenRepository {
	return m
}

func (m *mockTokenRepo) Replace(token *domain.VerificationToken) error {
	return m.Called(token).Error(0)
}

func (m *mockTokenRepo) FindByToken(token string) (*domain.VerificationToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationToken), args.Error(1)
}

func (m *mockTokenRepo) DeleteByUserID(userID uint64) error {
	return m.Called(userID).Error(0)
}

type mockVerificationMailer struct {
	mock.Mock
}

func (m *mockVerificationMailer) SendVerification(to, username, token string) error {
	return m.Called(to, username, token).Error(0)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager("test-secret", "journal-test", 15*time.Minute, time.Hour)
}

func hashedUser(t *testing.T, password string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return &domain.User{ID: 7, Username: "kim", Email: "kim@example.com", PasswordHash: string(hash), Timezone: "UTC"}
}

func TestRegister_Success(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("ExistsByUsername", "kim").Return(false, nil)
	repo.On("ExistsByEmail", "kim@example.com").Return(false, nil)
	repo.On("Create", mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "kim" && u.Timezone == "Asia/Seoul" && u.Verified &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Return(nil)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), true)
	resp, err := svc.Register(&domain.RegisterRequest{
		Username: "kim", Email: "kim@example.com", Password: "password123", Timezone: "Asia/Seoul",
	})

	assert.NoError(t, err)
	assert.Equal(t, "kim", resp.Username)
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("ExistsByUsername", "kim").Return(true, nil)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), false)
	_, err := svc.Register(&domain.RegisterRequest{Username: "kim", Email: "kim@example.com", Password: "password123"})

	assert.True(t, errors.Is(err, common.ErrConflict))
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRegister_InvalidTimezone(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("ExistsByUsername", "kim").Return(false, nil)
	repo.On("ExistsByEmail", "kim@example.com").Return(false, nil)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), false)
	_, err := svc.Register(&domain.RegisterRequest{Username: "kim", Email: "kim@example.com", Password: "password123", Timezone: "Mars/Base"})

	assert.True(t, errors.Is(err, common.ErrBadRequest))
}

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByUsername", "kim").Return(hashedUser(t, "password123"), nil)

	manager := newTestJWT()
	svc := NewAuthService(repo, new(mockTokenRepo), manager, false)
	resp, err := svc.Login("kim", "password123")

	assert.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	claims, err := manager.VerifyAccessToken(resp.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "kim", claims.Username)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByUsername", "kim").Return(hashedUser(t, "password123"), nil)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), false)
	_, err := svc.Login("kim", "wrong")

	assert.True(t, errors.Is(err, common.ErrUnauthorized))
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), false)
	_, err := svc.Login("ghost", "whatever")

	assert.Equal(t, 401, common.StatusOf(err))
}

func TestRefreshToken(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByUsername", "kim").Return(hashedUser(t, "password123"), nil)

	manager := newTestJWT()
	svc := NewAuthService(repo, new(mockTokenRepo), manager, false)
	login, err := svc.Login("kim", "password123")
	assert.NoError(t, err)

	refreshed, err := svc.RefreshToken(login.RefreshToken)
	assert.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// access token은 refresh로 사용 불가
	_, err = svc.RefreshToken(login.AccessToken)
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), false)
	_, err := svc.GetCurrentUser("ghost")

	assert.EqualError(t, err, "User not found")
}

func TestRegister_IssuesVerificationToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := new(mockUserRepo)
	repo.On("ExistsByUsername", "kim").Return(false, nil)
	repo.On("ExistsByEmail", "kim@example.com").Return(false, nil)
	repo.On("Create", mock.MatchedBy(func(u *domain.User) bool { return !u.Verified })).Return(nil)

	var issued string
	tokens := new(mockTokenRepo)
	tokens.On("Replace", mock.MatchedBy(func(vt *domain.VerificationToken) bool {
		issued = vt.Token
		return vt.UserID == 1 && vt.Token != "" && vt.ExpiresAt.Equal(now.Add(VerificationTokenTTL))
	})).Return(nil)

	mailer := new(mockVerificationMailer)
	mailer.On("SendVerification", "kim@example.com", "kim", mock.AnythingOfType("string")).Return(nil)

	svc := NewAuthService(repo, tokens, newTestJWT(), false,
		WithVerificationMailer(mailer), WithAuthClock(func() time.Time { return now }))
	resp, err := svc.Register(&domain.RegisterRequest{Username: "kim", Email: "kim@example.com", Password: "password123"})

	assert.NoError(t, err)
	assert.False(t, resp.Verified)
	tokens.AssertExpectations(t)
	mailer.AssertCalled(t, "SendVerification", "kim@example.com", "kim", issued)
}

func TestRegister_MailFailureDoesNotFail(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("ExistsByUsername", "kim").Return(false, nil)
	repo.On("ExistsByEmail", "kim@example.com").Return(false, nil)
	repo.On("Create", mock.Anything).Return(nil)
	tokens := new(mockTokenRepo)
	tokens.On("Replace", mock.Anything).Return(nil)
	mailer := new(mockVerificationMailer)
	mailer.On("SendVerification", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := NewAuthService(repo, tokens, newTestJWT(), false, WithVerificationMailer(mailer))
	_, err := svc.Register(&domain.RegisterRequest{Username: "kim", Email: "kim@example.com", Password: "password123"})

	assert.NoError(t, err)
}

func TestRegister_AutoVerifySkipsToken(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("ExistsByUsername", "kim").Return(false, nil)
	repo.On("ExistsByEmail", "kim@example.com").Return(false, nil)
	repo.On("Create", mock.Anything).Return(nil)
	tokens := new(mockTokenRepo)

	svc := NewAuthService(repo, tokens, newTestJWT(), true)
	_, err := svc.Register(&domain.RegisterRequest{Username: "kim", Email: "kim@example.com", Password: "password123"})

	assert.NoError(t, err)
	tokens.AssertNotCalled(t, "Replace", mock.Anything)
}

func TestVerifyEmail(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	user := hashedUser(t, "password123")

	repo := new(mockUserRepo)
	repo.On("FindByID", uint64(7)).Return(user, nil)
	repo.On("MarkVerified", uint64(7)).Return(nil)
	tokens := new(mockTokenRepo)
	tokens.On("FindByToken", "good").Return(&domain.VerificationToken{UserID: 7, Token: "good", ExpiresAt: now.Add(time.Hour)}, nil)
	tokens.On("FindByToken", "stale").Return(&domain.VerificationToken{UserID: 7, Token: "stale", ExpiresAt: now}, nil)
	tokens.On("FindByToken", "nope").Return(nil, gorm.ErrRecordNotFound)
	tokens.On("DeleteByUserID", uint64(7)).Return(nil)

	svc := NewAuthService(repo, tokens, newTestJWT(), false, WithAuthClock(func() time.Time { return now }))

	resp, err := svc.VerifyEmail("good")
	assert.NoError(t, err)
	assert.True(t, resp.Verified)
	repo.AssertCalled(t, "MarkVerified", uint64(7))
	tokens.AssertCalled(t, "DeleteByUserID", uint64(7))

	_, err = svc.VerifyEmail("stale")
	assert.EqualError(t, err, "Verification token has expired")

	_, err = svc.VerifyEmail("nope")
	assert.EqualError(t, err, "Invalid verification token")

	_, err = svc.VerifyEmail("  ")
	assert.True(t, errors.Is(err, common.ErrBadRequest))
}

func TestResendVerification(t *testing.T) {
	pending := hashedUser(t, "password123")
	verified := &domain.User{ID: 8, Username: "lee", Email: "lee@example.com", Verified: true}

	repo := new(mockUserRepo)
	repo.On("FindByEmail", "kim@example.com").Return(pending, nil)
	repo.On("FindByEmail", "lee@example.com").Return(verified, nil)
	repo.On("FindByEmail", "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
	tokens := new(mockTokenRepo)
	tokens.On("Replace", mock.MatchedBy(func(vt *domain.VerificationToken) bool { return vt.UserID == 7 })).Return(nil)
	mailer := new(mockVerificationMailer)
	mailer.On("SendVerification", "kim@example.com", "kim", mock.AnythingOfType("string")).Return(nil)

	svc := NewAuthService(repo, tokens, newTestJWT(), false, WithVerificationMailer(mailer))

	assert.NoError(t, svc.ResendVerification("kim@example.com"))
	mailer.AssertNumberOfCalls(t, "SendVerification", 1)

	err := svc.ResendVerification("lee@example.com")
	assert.True(t, errors.Is(err, common.ErrConflict))

	err = svc.ResendVerification("ghost@example.com")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestChangePassword(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByUsername", "kim").Return(hashedUser(t, "password123"), nil)
	repo.On("UpdatePassword", uint64(7), mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword1")) == nil
	})).Return(nil)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), false)

	err := svc.ChangePassword("kim", &domain.ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: "newpassword1", ConfirmPassword: "newpassword1",
	})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestChangePassword_Rejections(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByUsername", "kim").Return(hashedUser(t, "password123"), nil)

	svc := NewAuthService(repo, new(mockTokenRepo), newTestJWT(), false)

	err := svc.ChangePassword("kim", &domain.ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: "newpassword1", ConfirmPassword: "different1",
	})
	assert.EqualError(t, err, "Passwords do not match")

	err = svc.ChangePassword("kim", &domain.ChangePasswordRequest{
		CurrentPassword: "wrong-one", NewPassword: "newpassword1", ConfirmPassword: "newpassword1",
	})
	assert.EqualError(t, err, "Current password is incorrect")
	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything)
}
