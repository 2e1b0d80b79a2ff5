package domain

import "time"

// User is a journal owner
type User struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"column:username;size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	Timezone     string    `gorm:"column:timezone;size:64;not null;default:UTC" json:"timezone"`
	Verified     bool      `gorm:"column:verified;not null;default:false" json:"verified"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// Location resolves the user's timezone, falling back to UTC for unknown zones
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// VerificationToken 이메일 인증 토큰 (사용자당 1개, 재발송 시 교체)
type VerificationToken struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;uniqueIndex;not null"`
	Token     string    `gorm:"column:token;size:64;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName returns the table name
func (VerificationToken) TableName() string {
	return "verification_tokens"
}

// Expired reports whether the token is no longer usable at now
func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Timezone string `json:"timezone"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ResendVerificationRequest asks for a fresh verification email
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ChangePasswordRequest carries the current and new password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Timezone  string    `json:"timezone"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Timezone:  u.Timezone,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

// LoginResponse is returned by login and refresh
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
}
