package repository

import (
	"strings"

	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
)

// TagRepository 태그 저장소 인터페이스
type TagRepository interface {
	WithTx(tx *gorm.DB) TagRepository

	Create(tag *domain.Tag) error
	FindByID(id uint64) (*domain.Tag, error)
	ExistsByUserAndName(userID uint64, name string) (bool, error)
	ListByUser(userID uint64) ([]*domain.Tag, error)
	SearchByUser(userID uint64, query string) ([]*domain.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository 생성자
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) WithTx(tx *gorm.DB) TagRepository {
	return &tagRepository{db: tx}
}

func (r *tagRepository) Create(tag *domain.Tag) error {
	return r.db.Create(tag).Error
}

func (r *tagRepository) FindByID(id uint64) (*domain.Tag, error) {
	var tag domain.Tag
	if err := r.db.Where("id = ?", id).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) ExistsByUserAndName(userID uint64, name string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Tag{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error
	return count > 0, err
}

func (r *tagRepository) ListByUser(userID uint64) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error
	return tags, err
}

// SearchByUser 대소문자 구분 없는 부분 일치 검색
func (r *tagRepository) SearchByUser(userID uint64, query string) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.Where("user_id = ? AND LOWER(name) LIKE ?", userID, pattern).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}
