package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/migration"
	"github.com/journalkeep/journal-backend/pkg/cache"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 테스트용 in-memory SQLite
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// :memory: DB는 커넥션마다 별도이므로 하나로 고정
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration.Run(db))
	return db
}

// fixedClock 테스트 시계
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *fixedClock {
	return &fixedClock{now: t.UTC()}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Timezone:     "UTC",
		Verified:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedJournal(t *testing.T, db *gorm.DB, owner *domain.User, title string) *domain.Journal {
	t.Helper()
	j := &domain.Journal{UserID: owner.ID, Title: title}
	require.NoError(t, db.Create(j).Error)
	return j
}

func seedTag(t *testing.T, db *gorm.DB, owner *domain.User, name string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{UserID: owner.ID, Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func entryReq(title, body, date string, tagIDs ...uint64) *domain.EntryRequest {
	return &domain.EntryRequest{Title: title, Body: body, EntryDate: date, TagIDs: tagIDs}
}

// fakeIndexer 메모리 색인 기록
type fakeIndexer struct {
	mu      sync.Mutex
	indexed map[uint64]string
	removed []uint64
	hits    []uint64
	err     error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[uint64]string{}}
}

func (f *fakeIndexer) Index(_ context.Context, entry *domain.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.indexed[entry.ID] = entry.Title
	return nil
}

func (f *fakeIndexer) Remove(_ context.Context, entryID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, entryID)
	f.removed = append(f.removed, entryID)
	return f.err
}

func (f *fakeIndexer) Search(_ context.Context, _ uint64, _ string) ([]uint64, error) {
	return f.hits, nil
}

// fakeObjects 삭제된 오브젝트 키 기록
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) Put(_ context.Context, key string, body io.Reader, _ string, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeObjects) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// recordingCache nil Redis 캐시 + 무효화 기록
type recordingCache struct {
	cache.Service
	invalidated []uint64
}

func newRecordingCache() *recordingCache {
	return &recordingCache{Service: cache.NewService(nil)}
}

func (c *recordingCache) InvalidateEntry(ctx context.Context, journalID, entryID uint64) error {
	c.invalidated = append(c.invalidated, entryID)
	return c.Service.InvalidateEntry(ctx, journalID, entryID)
}
