package repository

import (
	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
)

// UserRepository 사용자 저장소 인터페이스
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository

	Create(user *domain.User) error
	FindByID(id uint64) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	ExistsByUsername(username string) (bool, error)
	ExistsByEmail(email string) (bool, error)
	ListVerified() ([]*domain.User, error)
	MarkVerified(id uint64) error
	UpdatePassword(id uint64, passwordHash string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 생성자
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *domain.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uint64) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(username string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ListVerified 리마인더 발송 대상 (이메일 인증 완료)
func (r *userRepository) ListVerified() ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.Where("verified = ?", true).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) MarkVerified(id uint64) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).Update("verified", true).Error
}

func (r *userRepository) UpdatePassword(id uint64, passwordHash string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).Update("password_hash", passwordHash).Error
}
