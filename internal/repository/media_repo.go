package repository

import (
	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
)

// MediaRepository 첨부파일 저장소 인터페이스
type MediaRepository interface {
	WithTx(tx *gorm.DB) MediaRepository

	Create(media *domain.Media) error
	FindByIDAndEntry(id, entryID uint64) (*domain.Media, error)
	ListByEntry(entryID uint64) ([]*domain.Media, error)
	StorageKeysByEntry(entryID uint64) ([]string, error)
	Delete(id uint64) error
	DeleteByEntry(entryID uint64) error
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository 생성자
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) WithTx(tx *gorm.DB) MediaRepository {
	return &mediaRepository{db: tx}
}

func (r *mediaRepository) Create(media *domain.Media) error {
	return r.db.Create(media).Error
}

func (r *mediaRepository) FindByIDAndEntry(id, entryID uint64) (*domain.Media, error) {
	var media domain.Media
	if err := r.db.Where("id = ? AND entry_id = ?", id, entryID).First(&media).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *mediaRepository) ListByEntry(entryID uint64) ([]*domain.Media, error) {
	var list []*domain.Media
	err := r.db.Where("entry_id = ?", entryID).Order("upload_date ASC, id ASC").Find(&list).Error
	return list, err
}

// StorageKeysByEntry 오브젝트 스토리지 정리용 키 목록
func (r *mediaRepository) StorageKeysByEntry(entryID uint64) ([]string, error) {
	var keys []string
	err := r.db.Model(&domain.Media{}).Where("entry_id = ?", entryID).Pluck("storage_key", &keys).Error
	return keys, err
}

func (r *mediaRepository) Delete(id uint64) error {
	return r.db.Where("id = ?", id).Delete(&domain.Media{}).Error
}

func (r *mediaRepository) DeleteByEntry(entryID uint64) error {
	return r.db.Where("entry_id = ?", entryID).Delete(&domain.Media{}).Error
}
