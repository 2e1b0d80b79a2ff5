package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"github.com/journalkeep/journal-backend/pkg/storage"
	"gorm.io/gorm"
)

// ObjectStorage S3 호환 오브젝트 저장소
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// MediaService handles entry attachments: bytes in object storage, metadata in the DB
type MediaService struct {
	db       *gorm.DB
	users    repository.UserRepository
	journals repository.JournalRepository
	entries  repository.EntryRepository
	media    repository.MediaRepository
	store    ObjectStorage
	maxSize  int64
	now      func() time.Time
}

// NewMediaService creates a new MediaService
func NewMediaService(db *gorm.DB, store ObjectStorage, maxSize int64) *MediaService {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024 // 10MB
	}
	return &MediaService{
		db:       db,
		users:    repository.NewUserRepository(db),
		journals: repository.NewJournalRepository(db),
		entries:  repository.NewEntryRepository(db),
		media:    repository.NewMediaRepository(db),
		store:    store,
		maxSize:  maxSize,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ownedEntry 사용자 -> 저널 소유권 -> 활성 엔트리 확인
func (s *MediaService) ownedEntry(journalID, entryID uint64, username string) error {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return err
	}
	if _, err := resolveOwnedJournal(s.journals, journalID, user.ID); err != nil {
		return err
	}
	if _, err := s.entries.FindActive(journalID, entryID, false); err != nil {
		return entryNotFound(err)
	}
	return nil
}

// Upload stores file under entries/<entryID>/ and records its metadata
func (s *MediaService) Upload(ctx context.Context, journalID, entryID uint64, file *multipart.FileHeader, description, username string) (*domain.MediaResponse, error) {
	if s.store == nil {
		return nil, common.BadRequest("Media storage is not enabled")
	}
	if err := s.ownedEntry(journalID, entryID, username); err != nil {
		return nil, err
	}
	if file.Size > s.maxSize {
		return nil, common.BadRequest("File too large (max %dMB)", s.maxSize/(1024*1024))
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// Detect content type from first 512 bytes
	buf := make([]byte, 512)
	n, readErr := src.Read(buf)
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return nil, fmt.Errorf("failed to read file header: %w", readErr)
	}
	contentType := http.DetectContentType(buf[:n])
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !domain.AllowedMediaTypes[contentType] {
		return nil, common.BadRequest("File type not allowed: %s", contentType)
	}

	// Reset reader
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file reader: %w", err)
	}

	key := storage.EntryObjectKey(entryID, file.Filename)
	if err := s.store.Put(ctx, key, src, contentType, file.Size); err != nil {
		return nil, err
	}

	m := &domain.Media{
		EntryID:          entryID,
		StorageKey:       key,
		Filename:         path.Base(key),
		OriginalFilename: sanitizeFilename(file.Filename),
		FileType:         contentType,
		FileSize:         file.Size,
		Description:      description,
		UploadDate:       s.now(),
	}
	if err := s.media.WithTx(s.db.WithContext(ctx)).Create(m); err != nil {
		// 메타데이터 저장 실패 시 업로드한 오브젝트 정리
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			pkglogger.GetLogger().Warn().Err(delErr).Str("key", key).Msg("orphaned media object")
		}
		return nil, err
	}

	pkglogger.GetLogger().Info().
		Str("key", key).
		Int64("size", file.Size).
		Str("content_type", contentType).
		Msg("media uploaded")

	return s.toResponse(ctx, m), nil
}

// List returns the attachments of an entry, oldest first
func (s *MediaService) List(ctx context.Context, journalID, entryID uint64, username string) ([]domain.MediaResponse, error) {
	if err := s.ownedEntry(journalID, entryID, username); err != nil {
		return nil, err
	}
	items, err := s.media.WithTx(s.db.WithContext(ctx)).ListByEntry(entryID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, *s.toResponse(ctx, m))
	}
	return out, nil
}

// Delete removes one attachment row and its object
func (s *MediaService) Delete(ctx context.Context, journalID, entryID, mediaID uint64, username string) error {
	if err := s.ownedEntry(journalID, entryID, username); err != nil {
		return err
	}
	repo := s.media.WithTx(s.db.WithContext(ctx))
	m, err := repo.FindByIDAndEntry(mediaID, entryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.NotFound("Media not found")
	}
	if err != nil {
		return err
	}
	if err := repo.Delete(m.ID); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Delete(ctx, m.StorageKey); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Str("key", m.StorageKey).Msg("media object removal failed")
		}
	}
	return nil
}

func (s *MediaService) toResponse(ctx context.Context, m *domain.Media) *domain.MediaResponse {
	var url string
	if s.store != nil {
		u, err := s.store.URL(ctx, m.StorageKey)
		if err != nil {
			pkglogger.GetLogger().Warn().Err(err).Str("key", m.StorageKey).Msg("media url resolution failed")
		}
		url = u
	}
	resp := m.ToResponse(url)
	return &resp
}

// maxFilenameBytes media.filename 컬럼 길이
const maxFilenameBytes = 255

// sanitizeFilename keeps the base name, dropping any client-supplied path
func sanitizeFilename(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	if len(base) > maxFilenameBytes {
		// 확장자 보존을 위해 뒤쪽을 남기되 UTF-8 문자 경계에서 자른다
		start := len(base) - maxFilenameBytes
		for start < len(base) && !utf8.RuneStart(base[start]) {
			start++
		}
		base = base[start:]
	}
	return base
}
