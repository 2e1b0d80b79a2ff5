package repository

import (
	"time"

	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryVersionRepository 버전 이력 저장소 인터페이스
type EntryVersionRepository interface {
	WithTx(tx *gorm.DB) EntryVersionRepository

	FindByIDAndEntry(versionID, entryID uint64) (*domain.EntryVersion, error)
	ListByEntry(entryID uint64) ([]*domain.EntryVersion, error)
	FindSoftDeletedBefore(cutoff time.Time) ([]uint64, error)
	DeleteIfStillDeletedBefore(versionID uint64, cutoff time.Time) (bool, error)
}

type entryVersionRepository struct {
	db *gorm.DB
}

// NewEntryVersionRepository 생성자
func NewEntryVersionRepository(db *gorm.DB) EntryVersionRepository {
	return &entryVersionRepository{db: db}
}

func (r *entryVersionRepository) WithTx(tx *gorm.DB) EntryVersionRepository {
	return &entryVersionRepository{db: tx}
}

func (r *entryVersionRepository) FindByIDAndEntry(versionID, entryID uint64) (*domain.EntryVersion, error) {
	var v domain.EntryVersion
	err := r.db.Preload("Tags").
		Where("id = ? AND entry_id = ?", versionID, entryID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByEntry 삭제된 버전 포함, 삽입 순
func (r *entryVersionRepository) ListByEntry(entryID uint64) ([]*domain.EntryVersion, error) {
	var versions []*domain.EntryVersion
	err := r.db.Preload("Tags").
		Where("entry_id = ?", entryID).
		Order("id ASC").
		Find(&versions).Error
	return versions, err
}

// FindSoftDeletedBefore cutoff 이전에 삭제된 버전 ID (정리 후보)
func (r *entryVersionRepository) FindSoftDeletedBefore(cutoff time.Time) ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&domain.EntryVersion{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff.UTC()).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteIfStillDeletedBefore 행 잠금 후 삭제 조건을 재확인하고 영구 삭제.
// 후보 선정 이후 복원된 버전은 건드리지 않는다.
func (r *entryVersionRepository) DeleteIfStillDeletedBefore(versionID uint64, cutoff time.Time) (bool, error) {
	var v domain.EntryVersion
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NOT NULL AND deleted_at < ?", versionID, cutoff.UTC()).
		First(&v).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := r.db.Exec("DELETE FROM "+entryVersionTagsTable+" WHERE entry_version_id = ?", versionID).Error; err != nil {
		return false, err
	}
	if err := r.db.Model(&domain.Entry{}).
		Where("current_version_id = ?", versionID).
		UpdateColumn("current_version_id", nil).Error; err != nil {
		return false, err
	}
	if err := r.db.Where("id = ?", versionID).Delete(&domain.EntryVersion{}).Error; err != nil {
		return false, err
	}
	return true, nil
}
