package repository

import (
	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
)

// JournalRepository 저널 저장소 인터페이스
type JournalRepository interface {
	WithTx(tx *gorm.DB) JournalRepository

	Create(journal *domain.Journal) error
	FindByID(id uint64) (*domain.Journal, error)
	ListByUser(userID uint64) ([]*domain.Journal, error)
	UpdateTitle(journal *domain.Journal) error
}

type journalRepository struct {
	db *gorm.DB
}

// NewJournalRepository 생성자
func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) WithTx(tx *gorm.DB) JournalRepository {
	return &journalRepository{db: tx}
}

func (r *journalRepository) Create(journal *domain.Journal) error {
	return r.db.Create(journal).Error
}

func (r *journalRepository) FindByID(id uint64) (*domain.Journal, error) {
	var journal domain.Journal
	if err := r.db.Where("id = ?", id).First(&journal).Error; err != nil {
		return nil, err
	}
	return &journal, nil
}

func (r *journalRepository) ListByUser(userID uint64) ([]*domain.Journal, error) {
	var journals []*domain.Journal
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&journals).Error
	return journals, err
}

func (r *journalRepository) UpdateTitle(journal *domain.Journal) error {
	return r.db.Model(&domain.Journal{}).
		Where("id = ?", journal.ID).
		Updates(map[string]interface{}{
			"title":      journal.Title,
			"updated_at": journal.UpdatedAt,
		}).Error
}
