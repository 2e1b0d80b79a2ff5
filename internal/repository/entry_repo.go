package repository

import (
	"time"

	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// many2many 조인 테이블
const (
	entryTagsTable        = "entry_tags"
	entryVersionTagsTable = "entry_version_tags"
)

// EntryRepository 일기 엔트리 저장소 인터페이스
type EntryRepository interface {
	WithTx(tx *gorm.DB) EntryRepository

	// 조회
	FindActive(journalID, entryID uint64, lock bool) (*domain.Entry, error)
	FindIncludeDeleted(journalID, entryID uint64, lock bool) (*domain.Entry, error)
	ListActive(journalID uint64) ([]*domain.Entry, error)
	ListDeleted(journalID uint64) ([]*domain.Entry, error)
	ListActiveByTag(tagID uint64) ([]*domain.Entry, error)
	ListActiveByIDs(journalID uint64, ids []uint64) ([]*domain.Entry, error)

	// 작성/수정/삭제
	Create(entry *domain.Entry) error
	AppendVersion(entry *domain.Entry, version *domain.EntryVersion) error
	TouchVersion(version *domain.EntryVersion) error
	SaveState(entry *domain.Entry) error
	SaveDeletion(entry *domain.Entry) error
	HardDelete(entryID uint64) error

	// 리마인더 통계
	CountForUserBetween(userID uint64, start, end time.Time) (int64, error)
	DistinctEntryDates(userID uint64) ([]time.Time, error)

	// 보존 기간 정리
	FindDeletedWithoutVersions() ([]uint64, error)
	DeleteIfOrphaned(entryID uint64) (bool, error)
}

type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository 생성자
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) WithTx(tx *gorm.DB) EntryRepository {
	return &entryRepository{db: tx}
}

// withHistory 버전(삽입 순), 버전별 태그, 현재 태그를 함께 로드
func (r *entryRepository) withHistory(lock bool) *gorm.DB {
	q := r.db.
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("entry_versions.id ASC")
		}).
		Preload("Versions.Tags").
		Preload("Tags")
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// FindActive 삭제되지 않은 엔트리 조회
func (r *entryRepository) FindActive(journalID, entryID uint64, lock bool) (*domain.Entry, error) {
	var entry domain.Entry
	err := r.withHistory(lock).
		Where("id = ? AND journal_id = ? AND deleted_at IS NULL", entryID, journalID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	entry.LinkCurrentVersion()
	return &entry, nil
}

// FindIncludeDeleted 휴지통 포함 조회
func (r *entryRepository) FindIncludeDeleted(journalID, entryID uint64, lock bool) (*domain.Entry, error) {
	var entry domain.Entry
	err := r.withHistory(lock).
		Where("id = ? AND journal_id = ?", entryID, journalID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	entry.LinkCurrentVersion()
	return &entry, nil
}

func (r *entryRepository) list(query *gorm.DB) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	if err := query.Preload("Tags").Order("entries.created_at DESC, entries.id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepository) ListActive(journalID uint64) ([]*domain.Entry, error) {
	return r.list(r.db.Where("journal_id = ? AND deleted_at IS NULL", journalID))
}

// ListDeleted 휴지통 목록
func (r *entryRepository) ListDeleted(journalID uint64) ([]*domain.Entry, error) {
	return r.list(r.db.Where("journal_id = ? AND deleted_at IS NOT NULL", journalID))
}

func (r *entryRepository) ListActiveByTag(tagID uint64) ([]*domain.Entry, error) {
	return r.list(r.db.
		Joins("JOIN "+entryTagsTable+" et ON et.entry_id = entries.id").
		Where("et.tag_id = ? AND entries.deleted_at IS NULL", tagID))
}

// ListActiveByIDs 검색 결과 ID로 활성 엔트리 조회 (순서 보장 없음)
func (r *entryRepository) ListActiveByIDs(journalID uint64, ids []uint64) ([]*domain.Entry, error) {
	if len(ids) == 0 {
		return []*domain.Entry{}, nil
	}
	return r.list(r.db.Where("journal_id = ? AND deleted_at IS NULL AND id IN ?", journalID, ids))
}

// Create 엔트리와 초기 버전 저장 후 current_version_id 연결
func (r *entryRepository) Create(entry *domain.Entry) error {
	versions := entry.Versions
	if err := r.db.Omit(clause.Associations).Create(entry).Error; err != nil {
		return err
	}
	for _, v := range versions {
		v.EntryID = entry.ID
		if err := r.insertVersion(v); err != nil {
			return err
		}
	}

	entry.LinkCurrentVersion()
	if entry.CurrentVersion != nil {
		id := entry.CurrentVersion.ID
		entry.CurrentVersionID = &id
	}
	if err := r.db.Model(&domain.Entry{}).
		Where("id = ?", entry.ID).
		UpdateColumn("current_version_id", entry.CurrentVersionID).Error; err != nil {
		return err
	}
	return replaceTagLinks(r.db, entryTagsTable, "entry_id", entry.ID, entry.Tags)
}

// AppendVersion 새 버전을 저장하고 엔트리의 현재 버전으로 지정
func (r *entryRepository) AppendVersion(entry *domain.Entry, version *domain.EntryVersion) error {
	version.EntryID = entry.ID
	if err := r.insertVersion(version); err != nil {
		return err
	}
	entry.AppendVersion(version)
	return nil
}

func (r *entryRepository) insertVersion(v *domain.EntryVersion) error {
	if err := r.db.Omit(clause.Associations).Create(v).Error; err != nil {
		return err
	}
	return replaceTagLinks(r.db, entryVersionTagsTable, "entry_version_id", v.ID, v.Tags)
}

// TouchVersion 현재 버전의 태그 교체 및 updated_at 갱신
func (r *entryRepository) TouchVersion(version *domain.EntryVersion) error {
	if err := r.db.Model(&domain.EntryVersion{}).
		Where("id = ?", version.ID).
		UpdateColumn("updated_at", version.UpdatedAt).Error; err != nil {
		return err
	}
	return replaceTagLinks(r.db, entryVersionTagsTable, "entry_version_id", version.ID, version.Tags)
}

// SaveState 현재 상태(제목/본문/날짜/타임스탬프/현재 버전/태그) 저장
func (r *entryRepository) SaveState(entry *domain.Entry) error {
	err := r.db.Model(&domain.Entry{}).
		Where("id = ?", entry.ID).
		UpdateColumns(map[string]interface{}{
			"title":              entry.Title,
			"body":               entry.Body,
			"entry_date":         entry.EntryDate,
			"current_version_id": entry.CurrentVersionID,
			"updated_at":         entry.UpdatedAt,
			"last_edited_at":     entry.LastEditedAt,
		}).Error
	if err != nil {
		return err
	}
	return replaceTagLinks(r.db, entryTagsTable, "entry_id", entry.ID, entry.Tags)
}

// SaveDeletion 엔트리와 모든 버전의 deleted_at을 한 번에 반영 (nil이면 복원)
func (r *entryRepository) SaveDeletion(entry *domain.Entry) error {
	if err := r.db.Model(&domain.Entry{}).
		Where("id = ?", entry.ID).
		UpdateColumn("deleted_at", entry.DeletedAt).Error; err != nil {
		return err
	}
	return r.db.Model(&domain.EntryVersion{}).
		Where("entry_id = ?", entry.ID).
		UpdateColumn("deleted_at", entry.DeletedAt).Error
}

// HardDelete 버전 관리와 무관하게 엔트리 영구 삭제
func (r *entryRepository) HardDelete(entryID uint64) error {
	if err := r.db.Exec(
		"DELETE FROM "+entryVersionTagsTable+" WHERE entry_version_id IN (SELECT id FROM entry_versions WHERE entry_id = ?)",
		entryID,
	).Error; err != nil {
		return err
	}
	if err := r.db.Where("entry_id = ?", entryID).Delete(&domain.EntryVersion{}).Error; err != nil {
		return err
	}
	return r.deleteEntryRow(entryID)
}

func (r *entryRepository) deleteEntryRow(entryID uint64) error {
	if err := r.db.Exec("DELETE FROM "+entryTagsTable+" WHERE entry_id = ?", entryID).Error; err != nil {
		return err
	}
	if err := r.db.Where("entry_id = ?", entryID).Delete(&domain.Media{}).Error; err != nil {
		return err
	}
	return r.db.Where("id = ?", entryID).Delete(&domain.Entry{}).Error
}

// CountForUserBetween [start, end) 구간에 작성된 활성 엔트리 수. 비교는 UTC 기준.
func (r *entryRepository) CountForUserBetween(userID uint64, start, end time.Time) (int64, error) {
	start, end = start.UTC(), end.UTC()
	var count int64
	err := r.db.Model(&domain.Entry{}).
		Joins("JOIN journals ON journals.id = entries.journal_id").
		Where("journals.user_id = ? AND entries.deleted_at IS NULL", userID).
		Where("entries.created_at >= ? AND entries.created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

// DistinctEntryDates 사용자의 활성 엔트리 날짜 (중복 제거)
func (r *entryRepository) DistinctEntryDates(userID uint64) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.Model(&domain.Entry{}).
		Joins("JOIN journals ON journals.id = entries.journal_id").
		Where("journals.user_id = ? AND entries.deleted_at IS NULL", userID).
		Distinct().
		Order("entries.entry_date ASC").
		Pluck("entries.entry_date", &dates).Error
	return dates, err
}

// FindDeletedWithoutVersions 삭제 상태이면서 버전이 하나도 없는 엔트리 ID
func (r *entryRepository) FindDeletedWithoutVersions() ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&domain.Entry{}).
		Where("deleted_at IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM entry_versions v WHERE v.entry_id = entries.id)").
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteIfOrphaned 트랜잭션 안에서 조건을 다시 확인한 뒤 삭제.
// 그 사이 복원되었거나 버전이 생겼으면 false.
func (r *entryRepository) DeleteIfOrphaned(entryID uint64) (bool, error) {
	var entry domain.Entry
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NOT NULL", entryID).
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var versions int64
	if err := r.db.Model(&domain.EntryVersion{}).Where("entry_id = ?", entryID).Count(&versions).Error; err != nil {
		return false, err
	}
	if versions > 0 {
		return false, nil
	}
	if err := r.deleteEntryRow(entryID); err != nil {
		return false, err
	}
	return true, nil
}

// replaceTagLinks 조인 테이블의 태그 연결을 주어진 집합으로 교체
func replaceTagLinks(db *gorm.DB, table, ownerColumn string, ownerID uint64, tags []*domain.Tag) error {
	if err := db.Exec("DELETE FROM "+table+" WHERE "+ownerColumn+" = ?", ownerID).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, map[string]interface{}{ownerColumn: ownerID, "tag_id": t.ID})
	}
	return db.Table(table).Create(rows).Error
}
