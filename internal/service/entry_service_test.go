package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type EntryServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	clock   *fixedClock
	svc     *EntryService
	indexer *fakeIndexer
	cache   *recordingCache
	ctx     context.Context

	owner   *domain.User
	other   *domain.User
	journal *domain.Journal
}

func TestEntryServiceSuite(t *testing.T) {
	suite.Run(t, new(EntryServiceSuite))
}

func (s *EntryServiceSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.clock = newClock(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC))
	s.indexer = newFakeIndexer()
	s.cache = newRecordingCache()
	s.ctx = context.Background()

	s.svc = NewEntryService(s.db)
	s.svc.SetClock(s.clock.Now)
	s.svc.SetIndexer(s.indexer)
	s.svc.SetCache(s.cache)

	s.owner = seedUser(s.T(), s.db, "owner")
	s.other = seedUser(s.T(), s.db, "other")
	s.journal = seedJournal(s.T(), s.db, s.owner, "Daily")
}

func (s *EntryServiceSuite) create(title, body string, tagIDs ...uint64) *domain.EntryResponse {
	resp, err := s.svc.CreateEntry(s.ctx, s.journal.ID, entryReq(title, body, "2024-05-10", tagIDs...), "owner")
	s.Require().NoError(err)
	return resp
}

func (s *EntryServiceSuite) history(entryID uint64) *domain.EntryHistoryResponse {
	h, err := s.svc.GetEntryVersions(s.ctx, s.journal.ID, entryID, "owner")
	s.Require().NoError(err)
	return h
}

func (s *EntryServiceSuite) requireKind(err error, kind common.ErrorKind, msg string) {
	s.Require().Error(err)
	var appErr *common.AppError
	s.Require().True(errors.As(err, &appErr), "expected AppError, got %v", err)
	s.Equal(kind, appErr.Kind)
	if msg != "" {
		s.Equal(msg, appErr.Message)
	}
}

func (s *EntryServiceSuite) TestCreateEntry_InitialVersion() {
	tag := seedTag(s.T(), s.db, s.owner, "travel")
	resp := s.create("A", "x", tag.ID)

	s.Equal("A", resp.Title)
	s.Equal("2024-05-10", resp.EntryDate)
	s.Require().Len(resp.Tags, 1)
	s.Equal("travel", resp.Tags[0].Name)

	h := s.history(resp.ID)
	s.Require().Len(h.Versions, 1)
	s.Equal(domain.InitialVersion, h.Versions[0].VersionNumber)
	s.Len(h.Versions[0].Tags, 1)
	s.Nil(h.Versions[0].DeletedAt)

	var entry domain.Entry
	s.Require().NoError(s.db.First(&entry, resp.ID).Error)
	s.Require().NotNil(entry.CurrentVersionID)
	s.Equal(h.Versions[0].ID, *entry.CurrentVersionID)

	s.Equal("A", s.indexer.indexed[resp.ID])
}

func (s *EntryServiceSuite) TestCreateEntry_Ownership() {
	_, err := s.svc.CreateEntry(s.ctx, s.journal.ID, entryReq("A", "x", "2024-05-10"), "other")
	s.requireKind(err, common.KindForbidden, "You don't have access to this journal")

	_, err = s.svc.CreateEntry(s.ctx, 9999, entryReq("A", "x", "2024-05-10"), "owner")
	s.requireKind(err, common.KindNotFound, "Journal not found")

	_, err = s.svc.CreateEntry(s.ctx, s.journal.ID, entryReq("A", "x", "2024-05-10"), "ghost")
	s.requireKind(err, common.KindNotFound, "User not found")
}

func (s *EntryServiceSuite) TestCreateEntry_TagChecks() {
	foreign := seedTag(s.T(), s.db, s.other, "secret")

	_, err := s.svc.CreateEntry(s.ctx, s.journal.ID, entryReq("A", "x", "2024-05-10", foreign.ID), "owner")
	s.requireKind(err, common.KindForbidden, fmt.Sprintf("Access denied to tag: %d", foreign.ID))

	_, err = s.svc.CreateEntry(s.ctx, s.journal.ID, entryReq("A", "x", "2024-05-10", 77), "owner")
	s.requireKind(err, common.KindNotFound, "Tag not found: 77")

	// 실패한 요청은 아무것도 남기지 않음
	var count int64
	s.db.Model(&domain.Entry{}).Count(&count)
	s.Zero(count)
}

func (s *EntryServiceSuite) TestCreateEntry_InvalidDate() {
	_, err := s.svc.CreateEntry(s.ctx, s.journal.ID, entryReq("A", "x", "10/05/2024"), "owner")
	s.requireKind(err, common.KindBadRequest, "")
}

func (s *EntryServiceSuite) TestUpdateEntry_IdenticalContentAppendsNothing() {
	tag := seedTag(s.T(), s.db, s.owner, "mood")
	created := s.create("A", "x")

	s.clock.Advance(time.Hour)
	resp, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("A", "x", "2024-05-11", tag.ID), "owner")
	s.Require().NoError(err)

	h := s.history(created.ID)
	s.Require().Len(h.Versions, 1)
	s.Equal(domain.InitialVersion, h.Versions[0].VersionNumber)
	// 태그는 현재 버전에서 교체
	s.Require().Len(h.Versions[0].Tags, 1)
	s.Equal(tag.ID, h.Versions[0].Tags[0].ID)
	s.Require().NotNil(h.Versions[0].UpdatedAt)
	s.True(h.Versions[0].UpdatedAt.Equal(s.clock.Now()))

	s.Equal("2024-05-11", resp.EntryDate)
	s.True(resp.LastEditedAt.Equal(s.clock.Now()))
	s.Len(resp.Tags, 1)
}

// tagIds는 병합이 아니라 현재 버전의 태그 집합을 통째로 교체
func (s *EntryServiceSuite) TestUpdateEntry_TagsReplaceNotMerge() {
	a := seedTag(s.T(), s.db, s.owner, "a")
	b := seedTag(s.T(), s.db, s.owner, "b")
	created := s.create("A", "x", a.ID)

	resp, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("A", "x", "2024-05-10", b.ID), "owner")
	s.Require().NoError(err)
	s.Equal([]uint64{b.ID}, tagIDsOf(resp.Tags))

	h := s.history(created.ID)
	s.Require().Len(h.Versions, 1)
	s.Equal([]uint64{b.ID}, tagIDsOf(h.Versions[0].Tags))
	s.Equal([]uint64{b.ID}, s.storedEntryTags(created.ID))

	// tagIds 생략 = 빈 집합
	resp, err = s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("A", "x", "2024-05-10"), "owner")
	s.Require().NoError(err)
	s.Empty(resp.Tags)

	h = s.history(created.ID)
	s.Require().Len(h.Versions, 1)
	s.Empty(h.Versions[0].Tags)
	s.Empty(s.storedEntryTags(created.ID))

	var versionTagRows int64
	s.Require().NoError(s.db.Table("entry_version_tags").Count(&versionTagRows).Error)
	s.Zero(versionTagRows)
}

// storedEntryTags reads the entry's tag ids back from the database
func (s *EntryServiceSuite) storedEntryTags(entryID uint64) []uint64 {
	var entry domain.Entry
	s.Require().NoError(s.db.Preload("Tags").First(&entry, entryID).Error)
	return domain.TagIDs(entry.Tags)
}

func tagIDsOf(tags []domain.TagResponse) []uint64 {
	ids := make([]uint64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func (s *EntryServiceSuite) TestUpdateEntry_ChangedContentAppendsSuccessor() {
	created := s.create("A", "x")

	resp, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "x", "2024-05-10"), "owner")
	s.Require().NoError(err)
	s.Equal("B", resp.Title)

	resp, err = s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "y", "2024-05-10"), "owner")
	s.Require().NoError(err)
	s.Equal("y", resp.Body)

	h := s.history(created.ID)
	s.Require().Len(h.Versions, 3)
	s.Equal([]string{"1.0.0", "1.0.1", "1.0.2"}, []string{
		h.Versions[0].VersionNumber, h.Versions[1].VersionNumber, h.Versions[2].VersionNumber,
	})
	s.Equal("A", h.Versions[0].Title)
	s.Equal("B", h.Entry.Title)
	s.Equal("B", s.indexer.indexed[created.ID])
	s.Contains(s.cache.invalidated, created.ID)
}

func (s *EntryServiceSuite) TestUpdateEntry_MalformedCurrentVersion() {
	created := s.create("A", "x")
	s.Require().NoError(s.db.Model(&domain.EntryVersion{}).
		Where("entry_id = ?", created.ID).
		Update("version_number", "1.0").Error)

	_, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "x", "2024-05-10"), "owner")
	s.Require().NoError(err)

	h := s.history(created.ID)
	s.Require().Len(h.Versions, 2)
	s.Equal("1.0.1", h.Versions[1].VersionNumber)
}

func (s *EntryServiceSuite) TestUpdateEntry_NotFoundAndForbidden() {
	created := s.create("A", "x")

	_, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, 424242, entryReq("B", "x", "2024-05-10"), "owner")
	s.requireKind(err, common.KindNotFound, "Entry not found")

	_, err = s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "x", "2024-05-10"), "other")
	s.requireKind(err, common.KindForbidden, "")

	// 다른 저널 경로로는 접근 불가
	otherJournal := seedJournal(s.T(), s.db, s.owner, "Work")
	_, err = s.svc.UpdateEntry(s.ctx, otherJournal.ID, created.ID, entryReq("B", "x", "2024-05-10"), "owner")
	s.requireKind(err, common.KindNotFound, "Entry not found")
}

func (s *EntryServiceSuite) TestSoftDeleteAndRestore() {
	created := s.create("A", "x")
	_, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "x", "2024-05-10"), "owner")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.SoftDeleteEntry(s.ctx, s.journal.ID, created.ID, "owner"))

	h := s.history(created.ID)
	for _, v := range h.Versions {
		s.Require().NotNil(v.DeletedAt)
		s.True(v.DeletedAt.Equal(s.clock.Now()))
	}

	_, err = s.svc.GetEntryByID(s.ctx, s.journal.ID, created.ID, "owner")
	s.requireKind(err, common.KindNotFound, "Entry not found")

	list, err := s.svc.GetEntriesByJournalID(s.ctx, s.journal.ID, "owner")
	s.Require().NoError(err)
	s.Empty(list)

	bin, err := s.svc.GetRecycleBinEntriesByJournal(s.ctx, s.journal.ID, "owner")
	s.Require().NoError(err)
	s.Require().Len(bin, 1)
	s.Equal(created.ID, bin[0].ID)
	s.Contains(s.indexer.removed, created.ID)

	// 이미 삭제된 엔트리는 다시 삭제 불가
	err = s.svc.SoftDeleteEntry(s.ctx, s.journal.ID, created.ID, "owner")
	s.requireKind(err, common.KindNotFound, "Entry not found")

	restored, err := s.svc.RestoreEntry(s.ctx, s.journal.ID, created.ID, "owner")
	s.Require().NoError(err)
	s.Equal("B", restored.Title)

	h = s.history(created.ID)
	s.Len(h.Versions, 2)
	for _, v := range h.Versions {
		s.Nil(v.DeletedAt)
	}
}

func (s *EntryServiceSuite) TestRestoreEntry_NotDeleted() {
	created := s.create("A", "x")

	_, err := s.svc.RestoreEntry(s.ctx, s.journal.ID, created.ID, "owner")
	s.requireKind(err, common.KindBadRequest, "Entry is not deleted")

	_, err = s.svc.RestoreEntry(s.ctx, s.journal.ID, 999, "owner")
	s.requireKind(err, common.KindNotFound, "Entry not found")
}

// A/x -> 동일 수정 -> B -> 삭제 -> 1.0.0 복원 = 1.0.2 (A/x), 중간 버전 유지
func (s *EntryServiceSuite) TestRestoreVersion_FullScenario() {
	created := s.create("A", "x")
	first := s.history(created.ID).Versions[0]

	_, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("A", "x", "2024-05-10"), "owner")
	s.Require().NoError(err)
	s.Len(s.history(created.ID).Versions, 1)

	_, err = s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "x", "2024-05-12"), "owner")
	s.Require().NoError(err)
	s.Equal("1.0.1", s.history(created.ID).Versions[1].VersionNumber)

	s.clock.Advance(24 * time.Hour)
	s.Require().NoError(s.svc.SoftDeleteEntry(s.ctx, s.journal.ID, created.ID, "owner"))

	s.clock.Advance(24 * time.Hour)
	resp, err := s.svc.RestoreVersion(s.ctx, s.journal.ID, created.ID, first.ID, "owner")
	s.Require().NoError(err)
	s.Equal("A", resp.Title)
	s.Equal("x", resp.Body)
	// 복원 시 엔트리의 현재 날짜 유지
	s.Equal("2024-05-12", resp.EntryDate)

	h := s.history(created.ID)
	s.Require().Len(h.Versions, 3)
	s.Equal("1.0.0", h.Versions[0].VersionNumber)
	s.Equal("B", h.Versions[1].Title)
	s.Equal("1.0.2", h.Versions[2].VersionNumber)
	s.Equal("A", h.Versions[2].Title)
	for _, v := range h.Versions {
		s.Nil(v.DeletedAt)
	}

	var entry domain.Entry
	s.Require().NoError(s.db.First(&entry, created.ID).Error)
	s.Nil(entry.DeletedAt)
	s.Require().NotNil(entry.CurrentVersionID)
	s.Equal(h.Versions[2].ID, *entry.CurrentVersionID)
}

func (s *EntryServiceSuite) TestRestoreVersion_CarriesHistoricalTags() {
	tagA := seedTag(s.T(), s.db, s.owner, "a")
	tagB := seedTag(s.T(), s.db, s.owner, "b")
	created := s.create("A", "x", tagA.ID)
	first := s.history(created.ID).Versions[0]

	_, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "y", "2024-05-10", tagB.ID), "owner")
	s.Require().NoError(err)

	resp, err := s.svc.RestoreVersion(s.ctx, s.journal.ID, created.ID, first.ID, "owner")
	s.Require().NoError(err)
	s.Require().Len(resp.Tags, 1)
	s.Equal("a", resp.Tags[0].Name)
}

func (s *EntryServiceSuite) TestRestoreVersion_MissingVersionRollsBack() {
	created := s.create("A", "x")
	s.Require().NoError(s.svc.SoftDeleteEntry(s.ctx, s.journal.ID, created.ID, "owner"))

	_, err := s.svc.RestoreVersion(s.ctx, s.journal.ID, created.ID, 5555, "owner")
	s.requireKind(err, common.KindNotFound, "Version not found")

	var entry domain.Entry
	s.Require().NoError(s.db.First(&entry, created.ID).Error)
	s.NotNil(entry.DeletedAt, "restore must roll back with the failed lookup")
}

func (s *EntryServiceSuite) TestDeleteEntry_HardDelete() {
	tag := seedTag(s.T(), s.db, s.owner, "t")
	created := s.create("A", "x", tag.ID)
	_, err := s.svc.UpdateEntry(s.ctx, s.journal.ID, created.ID, entryReq("B", "x", "2024-05-10", tag.ID), "owner")
	s.Require().NoError(err)

	objects := newFakeObjects()
	s.svc.SetObjectRemover(objects)
	s.Require().NoError(s.db.Create(&domain.Media{
		EntryID: created.ID, StorageKey: "entries/1/a.png", Filename: "a.png",
		OriginalFilename: "a.png", FileType: "image/png", FileSize: 3, UploadDate: s.clock.Now(),
	}).Error)

	s.Require().NoError(s.svc.DeleteEntry(s.ctx, s.journal.ID, created.ID, "owner"))

	for table, want := range map[string]int64{
		"entries": 0, "entry_versions": 0, "entry_tags": 0, "entry_version_tags": 0, "media": 0, "tags": 1,
	} {
		var n int64
		s.Require().NoError(s.db.Table(table).Count(&n).Error)
		s.Equal(want, n, table)
	}
	s.Equal([]string{"entries/1/a.png"}, objects.deleted)

	err = s.svc.DeleteEntry(s.ctx, s.journal.ID, created.ID, "owner")
	s.requireKind(err, common.KindNotFound, "Entry not found")
}

func (s *EntryServiceSuite) TestDeleteEntry_WorksFromRecycleBin() {
	created := s.create("A", "x")
	s.Require().NoError(s.svc.SoftDeleteEntry(s.ctx, s.journal.ID, created.ID, "owner"))
	s.Require().NoError(s.svc.DeleteEntry(s.ctx, s.journal.ID, created.ID, "owner"))

	_, err := s.svc.GetEntryVersions(s.ctx, s.journal.ID, created.ID, "owner")
	s.requireKind(err, common.KindNotFound, "Entry not found")
}

func (s *EntryServiceSuite) TestGetEntriesByJournalID_NewestFirst() {
	first := s.create("first", "1")
	s.clock.Advance(time.Minute)
	second := s.create("second", "2")

	list, err := s.svc.GetEntriesByJournalID(s.ctx, s.journal.ID, "owner")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(second.ID, list[0].ID)
	s.Equal(first.ID, list[1].ID)

	_, err = s.svc.GetEntriesByJournalID(s.ctx, s.journal.ID, "other")
	s.requireKind(err, common.KindForbidden, "")
}

func (s *EntryServiceSuite) TestSearchEntries() {
	a := s.create("beach day", "sun")
	b := s.create("rainy", "beach walk")
	deleted := s.create("beach party", "gone")
	s.Require().NoError(s.svc.SoftDeleteEntry(s.ctx, s.journal.ID, deleted.ID, "owner"))

	s.indexer.hits = []uint64{b.ID, deleted.ID, a.ID}
	results, err := s.svc.SearchEntries(s.ctx, s.journal.ID, "beach", "owner")
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal(b.ID, results[0].ID)
	s.Equal(a.ID, results[1].ID)

	_, err = s.svc.SearchEntries(s.ctx, s.journal.ID, "", "owner")
	s.requireKind(err, common.KindBadRequest, "")

	s.svc.SetIndexer(nil)
	_, err = s.svc.SearchEntries(s.ctx, s.journal.ID, "beach", "owner")
	s.requireKind(err, common.KindBadRequest, "Search is not enabled")
}

// 권한 검사가 검색 활성 여부/질의 검증보다 먼저
func (s *EntryServiceSuite) TestSearchEntries_AuthorizesFirst() {
	_, err := s.svc.SearchEntries(s.ctx, s.journal.ID, "", "other")
	s.requireKind(err, common.KindForbidden, "You don't have access to this journal")

	s.svc.SetIndexer(nil)
	_, err = s.svc.SearchEntries(s.ctx, s.journal.ID, "beach", "other")
	s.requireKind(err, common.KindForbidden, "")

	_, err = s.svc.SearchEntries(s.ctx, 9999, "", "owner")
	s.requireKind(err, common.KindNotFound, "Journal not found")
}

func (s *EntryServiceSuite) TestGetEntryTags() {
	tag := seedTag(s.T(), s.db, s.owner, "travel")
	tagged := s.create("A", "x", tag.ID)
	plain := s.create("B", "y")

	tags, err := s.svc.GetEntryTags(s.ctx, s.journal.ID, tagged.ID, "owner")
	s.Require().NoError(err)
	s.Equal([]uint64{tag.ID}, tagIDsOf(tags))

	tags, err = s.svc.GetEntryTags(s.ctx, s.journal.ID, plain.ID, "owner")
	s.Require().NoError(err)
	s.NotNil(tags)
	s.Empty(tags)

	_, err = s.svc.GetEntryTags(s.ctx, s.journal.ID, tagged.ID, "other")
	s.requireKind(err, common.KindForbidden, "")

	s.Require().NoError(s.svc.SoftDeleteEntry(s.ctx, s.journal.ID, tagged.ID, "owner"))
	_, err = s.svc.GetEntryTags(s.ctx, s.journal.ID, tagged.ID, "owner")
	s.requireKind(err, common.KindNotFound, "")
}

func (s *EntryServiceSuite) TestIndexFailureDoesNotFailWrite() {
	s.indexer.err = errors.New("es down")
	resp, err := s.svc.CreateEntry(s.ctx, s.journal.ID, entryReq("A", "x", "2024-05-10"), "owner")
	s.Require().NoError(err)
	s.NotZero(resp.ID)
}
