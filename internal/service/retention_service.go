package service

import (
	"context"
	"time"

	"github.com/journalkeep/journal-backend/internal/repository"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	purgedVersionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journal_purged_versions_total",
		Help: "Entry versions permanently removed by the retention purge",
	})
	purgedEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journal_purged_entries_total",
		Help: "Soft-deleted entries without versions permanently removed by the retention purge",
	})
	purgeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journal_purge_failures_total",
		Help: "Rows the retention purge failed to remove",
	})
)

// DefaultRetention 소프트 삭제 보존 기간
const DefaultRetention = 30 * 24 * time.Hour

// PurgeResult 한 번의 정리 실행 결과
type PurgeResult struct {
	Cutoff          time.Time `json:"cutoff"`
	VersionsDeleted int       `json:"versionsDeleted"`
	EntriesDeleted  int       `json:"entriesDeleted"`
	Failures        int       `json:"failures"`
}

// RetentionService permanently removes soft-deleted data past the retention
// window. Every row is removed in its own transaction after re-checking its
// state, so a restore that lands between selection and removal wins.
type RetentionService struct {
	db        *gorm.DB
	entries   repository.EntryRepository
	versions  repository.EntryVersionRepository
	media     repository.MediaRepository
	retention time.Duration

	indexer EntryIndexer
	objects ObjectRemover
	now     func() time.Time
}

// NewRetentionService creates a RetentionService; a non-positive retention
// falls back to DefaultRetention
func NewRetentionService(db *gorm.DB, retention time.Duration) *RetentionService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RetentionService{
		db:        db,
		entries:   repository.NewEntryRepository(db),
		versions:  repository.NewEntryVersionRepository(db),
		media:     repository.NewMediaRepository(db),
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetIndexer 정리된 엔트리의 검색 문서 제거용
func (s *RetentionService) SetIndexer(i EntryIndexer) {
	s.indexer = i
}

// SetObjectRemover 정리된 엔트리의 첨부 오브젝트 제거용
func (s *RetentionService) SetObjectRemover(o ObjectRemover) {
	s.objects = o
}

// SetClock 테스트용 시계 주입
func (s *RetentionService) SetClock(now func() time.Time) {
	s.now = now
}

// Purge runs one sweep: expired versions first, then deleted entries left
// without any version. Row failures are logged and counted, not returned.
func (s *RetentionService) Purge(ctx context.Context) (PurgeResult, error) {
	log := pkglogger.WithComponent("retention")
	result := PurgeResult{Cutoff: s.now().Add(-s.retention)}

	versionIDs, err := s.versions.WithTx(s.db.WithContext(ctx)).FindSoftDeletedBefore(result.Cutoff)
	if err != nil {
		return result, err
	}
	for _, id := range versionIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		deleted, err := s.purgeVersion(ctx, id, result.Cutoff)
		if err != nil {
			result.Failures++
			purgeFailuresTotal.Inc()
			log.Error().Err(err).Uint64("version_id", id).Msg("version purge failed")
			continue
		}
		if deleted {
			result.VersionsDeleted++
			purgedVersionsTotal.Inc()
		}
	}

	entryIDs, err := s.entries.WithTx(s.db.WithContext(ctx)).FindDeletedWithoutVersions()
	if err != nil {
		return result, err
	}
	for _, id := range entryIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		deleted, err := s.purgeEntry(ctx, id)
		if err != nil {
			result.Failures++
			purgeFailuresTotal.Inc()
			log.Error().Err(err).Uint64("entry_id", id).Msg("entry purge failed")
			continue
		}
		if deleted {
			result.EntriesDeleted++
			purgedEntriesTotal.Inc()
		}
	}

	log.Info().
		Time("cutoff", result.Cutoff).
		Int("versions", result.VersionsDeleted).
		Int("entries", result.EntriesDeleted).
		Int("failures", result.Failures).
		Msg("retention purge finished")
	return result, nil
}

func (s *RetentionService) purgeVersion(ctx context.Context, versionID uint64, cutoff time.Time) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.versions.WithTx(tx).DeleteIfStillDeletedBefore(versionID, cutoff)
		return err
	})
	return deleted, err
}

func (s *RetentionService) purgeEntry(ctx context.Context, entryID uint64) (bool, error) {
	var (
		deleted bool
		keys    []string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if keys, err = s.media.WithTx(tx).StorageKeysByEntry(entryID); err != nil {
			return err
		}
		deleted, err = s.entries.WithTx(tx).DeleteIfOrphaned(entryID)
		return err
	})
	if err != nil || !deleted {
		return deleted, err
	}

	// 커밋 이후 외부 정리
	if s.indexer != nil {
		if err := s.indexer.Remove(ctx, entryID); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Uint64("entry_id", entryID).Msg("entry index removal failed")
		}
	}
	if s.objects != nil {
		for _, key := range keys {
			if err := s.objects.Delete(ctx, key); err != nil {
				pkglogger.GetLogger().Warn().Err(err).Str("key", key).Msg("media object removal failed")
			}
		}
	}
	return true, nil
}
