package repository

import (
	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
)

// VerificationTokenRepository 이메일 인증 토큰 저장소
type VerificationTokenRepository interface {
	WithTx(tx *gorm.DB) VerificationTokenRepository

	// Replace 사용자의 기존 토큰을 지우고 새 토큰 저장
	Replace(token *domain.VerificationToken) error
	FindByToken(token string) (*domain.VerificationToken, error)
	DeleteByUserID(userID uint64) error
}

type verificationTokenRepository struct {
	db *gorm.DB
}

// NewVerificationTokenRepository 생성자
func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &verificationTokenRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *verificationTokenRepository) WithTx(tx *gorm.DB) VerificationTokenRepository {
	return &verificationTokenRepository{db: tx}
}

func (r *verificationTokenRepository) Replace(token *domain.VerificationToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", token.UserID).Delete(&domain.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *verificationTokenRepository) FindByToken(token string) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	if err := r.db.Where("token = ?", token).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *verificationTokenRepository) DeleteByUserID(userID uint64) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.VerificationToken{}).Error
}
