package migration

import (
	"github.com/journalkeep/journal-backend/internal/domain"
	"gorm.io/gorm"
)

// Models 스키마 대상 (의존 순서)
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.VerificationToken{},
		&domain.Journal{},
		&domain.Tag{},
		&domain.Entry{},
		&domain.EntryVersion{},
		&domain.Media{},
	}
}

// Run executes AutoMigrate for every table, including the
// entry_tags / entry_version_tags join tables.
func Run(db *gorm.DB) error {
	// 테이블 없으면 생성, 있으면 누락 컬럼/인덱스만 추가
	return db.AutoMigrate(Models()...)
}
