package service

import (
	"context"
	"errors"
	"time"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	"github.com/journalkeep/journal-backend/pkg/cache"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"gorm.io/gorm"
)

// EntryIndexer keeps the full-text index in step with entry state
type EntryIndexer interface {
	Index(ctx context.Context, entry *domain.Entry) error
	Remove(ctx context.Context, entryID uint64) error
	Search(ctx context.Context, journalID uint64, query string) ([]uint64, error)
}

// ObjectRemover deletes stored media objects
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

// EntryService 엔트리 버전 관리 / 소프트 삭제 파사드.
// 모든 변경은 소유권 확인과 함께 하나의 트랜잭션 안에서 수행된다.
type EntryService struct {
	db       *gorm.DB
	users    repository.UserRepository
	journals repository.JournalRepository
	tags     repository.TagRepository
	entries  repository.EntryRepository
	versions repository.EntryVersionRepository
	media    repository.MediaRepository

	cache   cache.Service
	indexer EntryIndexer
	objects ObjectRemover
	now     func() time.Time
}

// NewEntryService creates an EntryService over db
func NewEntryService(db *gorm.DB) *EntryService {
	return &EntryService{
		db:       db,
		users:    repository.NewUserRepository(db),
		journals: repository.NewJournalRepository(db),
		tags:     repository.NewTagRepository(db),
		entries:  repository.NewEntryRepository(db),
		versions: repository.NewEntryVersionRepository(db),
		media:    repository.NewMediaRepository(db),
		cache:    cache.NewService(nil),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetCache 엔트리 뷰 캐시 설정
func (s *EntryService) SetCache(c cache.Service) {
	if c != nil {
		s.cache = c
	}
}

// SetIndexer 검색 인덱서 설정 (nil이면 검색 비활성)
func (s *EntryService) SetIndexer(i EntryIndexer) {
	s.indexer = i
}

// SetObjectRemover 하드 삭제 시 첨부 오브젝트 정리
func (s *EntryService) SetObjectRemover(o ObjectRemover) {
	s.objects = o
}

// SetClock 테스트용 시계 주입
func (s *EntryService) SetClock(now func() time.Time) {
	s.now = now
}

// txRepos 트랜잭션에 묶인 저장소 묶음
type txRepos struct {
	users    repository.UserRepository
	journals repository.JournalRepository
	tags     repository.TagRepository
	entries  repository.EntryRepository
	versions repository.EntryVersionRepository
	media    repository.MediaRepository
}

func (s *EntryService) bind(tx *gorm.DB) txRepos {
	return txRepos{
		users:    s.users.WithTx(tx),
		journals: s.journals.WithTx(tx),
		tags:     s.tags.WithTx(tx),
		entries:  s.entries.WithTx(tx),
		versions: s.versions.WithTx(tx),
		media:    s.media.WithTx(tx),
	}
}

// inTx runs fn in one transaction after resolving the acting user and journal
func (s *EntryService) inTx(ctx context.Context, journalID uint64, username string, fn func(r txRepos, user *domain.User) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := s.bind(tx)
		user, err := resolveUser(r.users, username)
		if err != nil {
			return err
		}
		if _, err := resolveOwnedJournal(r.journals, journalID, user.ID); err != nil {
			return err
		}
		return fn(r, user)
	})
}

// readRepos 읽기 전용 작업용 (트랜잭션 없음)
func (s *EntryService) readRepos(ctx context.Context) txRepos {
	return s.bind(s.db.WithContext(ctx))
}

func (s *EntryService) authorize(ctx context.Context, journalID uint64, username string) (txRepos, *domain.User, error) {
	r := s.readRepos(ctx)
	user, err := resolveUser(r.users, username)
	if err != nil {
		return r, nil, err
	}
	if _, err := resolveOwnedJournal(r.journals, journalID, user.ID); err != nil {
		return r, nil, err
	}
	return r, user, nil
}

func entryNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NotFound("Entry not found")
	}
	return err
}

func parseEntryDate(req *domain.EntryRequest) (time.Time, error) {
	date, err := req.ParseEntryDate()
	if err != nil {
		return time.Time{}, common.BadRequest("Invalid entry date: %s", req.EntryDate)
	}
	return date, nil
}

// CreateEntry creates an entry with its single initial version
func (s *EntryService) CreateEntry(ctx context.Context, journalID uint64, req *domain.EntryRequest, username string) (*domain.EntryResponse, error) {
	date, err := parseEntryDate(req)
	if err != nil {
		return nil, err
	}

	var entry *domain.Entry
	err = s.inTx(ctx, journalID, username, func(r txRepos, user *domain.User) error {
		tags, err := resolveOwnedTags(r.tags, req.TagIDs, user.ID)
		if err != nil {
			return err
		}
		entry = domain.NewEntry(journalID, req.Title, req.Body, date, user.ID, tags, s.now())
		return r.entries.Create(entry)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entry)
	resp := entry.ToResponse()
	return &resp, nil
}

// GetEntriesByJournalID lists non-deleted entries of an owned journal
func (s *EntryService) GetEntriesByJournalID(ctx context.Context, journalID uint64, username string) ([]domain.EntryResponse, error) {
	r, _, err := s.authorize(ctx, journalID, username)
	if err != nil {
		return nil, err
	}

	var cached []domain.EntryResponse
	if err := s.cache.GetEntries(ctx, journalID, &cached); err == nil {
		return cached, nil
	}

	entries, err := r.entries.ListActive(journalID)
	if err != nil {
		return nil, err
	}
	resp := domain.EntryResponses(entries)
	if err := s.cache.SetEntries(ctx, journalID, resp); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Uint64("journal_id", journalID).Msg("entry list cache set failed")
	}
	return resp, nil
}

// GetEntryByID returns one non-deleted entry
func (s *EntryService) GetEntryByID(ctx context.Context, journalID, entryID uint64, username string) (*domain.EntryResponse, error) {
	r, _, err := s.authorize(ctx, journalID, username)
	if err != nil {
		return nil, err
	}

	var cached domain.EntryResponse
	if err := s.cache.GetEntry(ctx, journalID, entryID, &cached); err == nil {
		return &cached, nil
	}

	entry, err := r.entries.FindActive(journalID, entryID, false)
	if err != nil {
		return nil, entryNotFound(err)
	}
	resp := entry.ToResponse()
	if err := s.cache.SetEntry(ctx, journalID, entryID, resp); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Uint64("entry_id", entryID).Msg("entry cache set failed")
	}
	return &resp, nil
}

// GetEntryTags returns the tag set of one non-deleted entry
func (s *EntryService) GetEntryTags(ctx context.Context, journalID, entryID uint64, username string) ([]domain.TagResponse, error) {
	entry, err := s.GetEntryByID(ctx, journalID, entryID, username)
	if err != nil {
		return nil, err
	}
	if entry.Tags == nil {
		return []domain.TagResponse{}, nil
	}
	return entry.Tags, nil
}

// GetRecycleBinEntriesByJournal lists soft-deleted entries
func (s *EntryService) GetRecycleBinEntriesByJournal(ctx context.Context, journalID uint64, username string) ([]domain.EntryResponse, error) {
	r, _, err := s.authorize(ctx, journalID, username)
	if err != nil {
		return nil, err
	}
	entries, err := r.entries.ListDeleted(journalID)
	if err != nil {
		return nil, err
	}
	return domain.EntryResponses(entries), nil
}

// UpdateEntry appends a version when title or body change, otherwise
// replaces the current version's tags in place.
func (s *EntryService) UpdateEntry(ctx context.Context, journalID, entryID uint64, req *domain.EntryRequest, username string) (*domain.EntryResponse, error) {
	date, err := parseEntryDate(req)
	if err != nil {
		return nil, err
	}

	var entry *domain.Entry
	err = s.inTx(ctx, journalID, username, func(r txRepos, user *domain.User) error {
		entry, err = r.entries.FindActive(journalID, entryID, true)
		if err != nil {
			return entryNotFound(err)
		}
		return s.applyUpdate(r, entry, user, req.Title, req.Body, date, req.TagIDs)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entry)
	resp := entry.ToResponse()
	return &resp, nil
}

// applyUpdate is the versioning policy shared by UpdateEntry and RestoreVersion
func (s *EntryService) applyUpdate(r txRepos, entry *domain.Entry, user *domain.User, title, body string, date time.Time, tagIDs []uint64) error {
	tags, err := resolveOwnedTags(r.tags, tagIDs, user.ID)
	if err != nil {
		return err
	}
	now := s.now()

	current := entry.CurrentVersion
	if domain.IsSignificantChange(current, title, body) {
		number := domain.InitialVersion
		if current != nil {
			number = domain.NextVersion(current.VersionNumber)
		}
		version := domain.NewEntryVersion(title, body, date, number, user.ID, tags, now)
		if err := r.entries.AppendVersion(entry, version); err != nil {
			return err
		}
	} else {
		current.Tags = tags
		current.UpdatedAt = &now
		if err := r.entries.TouchVersion(current); err != nil {
			return err
		}
	}

	entry.Touch(date, now)
	return r.entries.SaveState(entry)
}

// SoftDeleteEntry moves an active entry and all its versions to the recycle bin
func (s *EntryService) SoftDeleteEntry(ctx context.Context, journalID, entryID uint64, username string) error {
	err := s.inTx(ctx, journalID, username, func(r txRepos, _ *domain.User) error {
		entry, err := r.entries.FindActive(journalID, entryID, true)
		if err != nil {
			return entryNotFound(err)
		}
		entry.SoftDelete(s.now())
		return r.entries.SaveDeletion(entry)
	})
	if err != nil {
		return err
	}

	s.afterRemove(ctx, journalID, entryID)
	return nil
}

// RestoreEntry clears the deletion timestamp on the entry and all versions
func (s *EntryService) RestoreEntry(ctx context.Context, journalID, entryID uint64, username string) (*domain.EntryResponse, error) {
	var entry *domain.Entry
	err := s.inTx(ctx, journalID, username, func(r txRepos, _ *domain.User) error {
		var err error
		entry, err = r.entries.FindIncludeDeleted(journalID, entryID, true)
		if err != nil {
			return entryNotFound(err)
		}
		if !entry.IsDeleted() {
			return common.BadRequest("Entry is not deleted")
		}
		entry.Restore()
		return r.entries.SaveDeletion(entry)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entry)
	resp := entry.ToResponse()
	return &resp, nil
}

// RestoreVersion re-applies a historical version's content as a new current
// version, restoring the entry first when it is in the recycle bin.
// Intervening versions are kept.
func (s *EntryService) RestoreVersion(ctx context.Context, journalID, entryID, versionID uint64, username string) (*domain.EntryResponse, error) {
	var entry *domain.Entry
	err := s.inTx(ctx, journalID, username, func(r txRepos, user *domain.User) error {
		var err error
		entry, err = r.entries.FindIncludeDeleted(journalID, entryID, true)
		if err != nil {
			return entryNotFound(err)
		}

		if entry.IsDeleted() {
			entry.Restore()
			if err := r.entries.SaveDeletion(entry); err != nil {
				return err
			}
		}

		target, err := r.versions.FindByIDAndEntry(versionID, entryID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFound("Version not found")
		}
		if err != nil {
			return err
		}

		return s.applyUpdate(r, entry, user, target.Title, target.Body, entry.EntryDate, domain.TagIDs(target.Tags))
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entry)
	resp := entry.ToResponse()
	return &resp, nil
}

// GetEntryVersions returns the current view plus the full history,
// soft-deleted versions included
func (s *EntryService) GetEntryVersions(ctx context.Context, journalID, entryID uint64, username string) (*domain.EntryHistoryResponse, error) {
	r, _, err := s.authorize(ctx, journalID, username)
	if err != nil {
		return nil, err
	}
	entry, err := r.entries.FindIncludeDeleted(journalID, entryID, false)
	if err != nil {
		return nil, entryNotFound(err)
	}
	resp := entry.ToHistoryResponse()
	return &resp, nil
}

// DeleteEntry permanently removes an entry, bypassing versioning
func (s *EntryService) DeleteEntry(ctx context.Context, journalID, entryID uint64, username string) error {
	var keys []string
	err := s.inTx(ctx, journalID, username, func(r txRepos, _ *domain.User) error {
		if _, err := r.entries.FindIncludeDeleted(journalID, entryID, true); err != nil {
			return entryNotFound(err)
		}
		var err error
		if keys, err = r.media.StorageKeysByEntry(entryID); err != nil {
			return err
		}
		return r.entries.HardDelete(entryID)
	})
	if err != nil {
		return err
	}

	s.afterRemove(ctx, journalID, entryID)
	s.removeObjects(ctx, keys)
	return nil
}

// SearchEntries full-text search within one journal, best match first
func (s *EntryService) SearchEntries(ctx context.Context, journalID uint64, query, username string) ([]domain.EntryResponse, error) {
	r, _, err := s.authorize(ctx, journalID, username)
	if err != nil {
		return nil, err
	}
	if s.indexer == nil {
		return nil, common.BadRequest("Search is not enabled")
	}
	if query == "" {
		return nil, common.BadRequest("Search query is required")
	}

	ids, err := s.indexer.Search(ctx, journalID, query)
	if err != nil {
		return nil, err
	}
	entries, err := r.entries.ListActiveByIDs(journalID, ids)
	if err != nil {
		return nil, err
	}

	// 검색 점수 순서 유지, 인덱스에만 남은 문서는 제외
	byID := make(map[uint64]*domain.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	ordered := make([]*domain.Entry, 0, len(entries))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return domain.EntryResponses(ordered), nil
}

// afterWrite 커밋 후 캐시 무효화 + 재색인. 실패는 로그만 남긴다.
func (s *EntryService) afterWrite(ctx context.Context, entry *domain.Entry) {
	s.invalidate(ctx, entry.JournalID, entry.ID)
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, entry); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Uint64("entry_id", entry.ID).Msg("entry index failed")
	}
}

func (s *EntryService) afterRemove(ctx context.Context, journalID, entryID uint64) {
	s.invalidate(ctx, journalID, entryID)
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Remove(ctx, entryID); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Uint64("entry_id", entryID).Msg("entry index removal failed")
	}
}

func (s *EntryService) invalidate(ctx context.Context, journalID, entryID uint64) {
	if err := s.cache.InvalidateEntry(ctx, journalID, entryID); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Uint64("entry_id", entryID).Msg("entry cache invalidation failed")
	}
}

func (s *EntryService) removeObjects(ctx context.Context, keys []string) {
	if s.objects == nil {
		return
	}
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Str("key", key).Msg("media object removal failed")
		}
	}
}
