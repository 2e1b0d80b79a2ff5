package service

import (
	"context"
	"errors"
	"testing"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalService_CRUD(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "owner")
	seedUser(t, db, "other")
	svc := NewJournalService(repository.NewUserRepository(db), repository.NewJournalRepository(db))

	created, err := svc.CreateJournal(&domain.JournalRequest{Title: "Travel"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Travel", created.Title)

	list, err := svc.ListJournals("owner")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	others, err := svc.ListJournals("other")
	require.NoError(t, err)
	assert.Empty(t, others)

	updated, err := svc.UpdateJournal(created.ID, &domain.JournalUpdateRequest{Title: "Trips"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Trips", updated.Title)

	got, err := svc.GetJournal(created.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Trips", got.Title)

	_, err = svc.GetJournal(created.ID, "other")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	_, err = svc.UpdateJournal(created.ID, &domain.JournalUpdateRequest{Title: "Mine"}, "other")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	_, err = svc.GetJournal(404, "owner")
	assert.EqualError(t, err, "Journal not found")
}

func TestTagService(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	seedUser(t, db, "other")
	journal := seedJournal(t, db, owner, "Daily")

	svc := NewTagService(repository.NewUserRepository(db), repository.NewTagRepository(db), repository.NewEntryRepository(db))

	travel, err := svc.CreateTag(&domain.TagRequest{Name: "Travel"}, "owner")
	require.NoError(t, err)
	_, err = svc.CreateTag(&domain.TagRequest{Name: "food"}, "owner")
	require.NoError(t, err)

	_, err = svc.CreateTag(&domain.TagRequest{Name: "Travel"}, "owner")
	assert.True(t, errors.Is(err, common.ErrConflict))
	assert.EqualError(t, err, "Tag already exists")

	// 다른 사용자는 같은 이름 사용 가능
	_, err = svc.CreateTag(&domain.TagRequest{Name: "Travel"}, "other")
	require.NoError(t, err)

	tags, err := svc.ListTags("owner")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Travel", tags[0].Name)
	assert.Equal(t, "food", tags[1].Name)

	found, err := svc.SearchTags("trav", "owner")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, travel.ID, found[0].ID)

	entries := NewEntryService(db)
	tagged, err := entries.CreateEntry(context.Background(), journal.ID, entryReq("Rome", "pasta", "2024-05-01", travel.ID), "owner")
	require.NoError(t, err)
	untagged, err := entries.CreateEntry(context.Background(), journal.ID, entryReq("Home", "rest", "2024-05-02"), "owner")
	require.NoError(t, err)
	deleted, err := entries.CreateEntry(context.Background(), journal.ID, entryReq("Paris", "bread", "2024-05-03", travel.ID), "owner")
	require.NoError(t, err)
	require.NoError(t, entries.SoftDeleteEntry(context.Background(), journal.ID, deleted.ID, "owner"))

	byTag, err := svc.GetEntriesByTag(travel.ID, "owner")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, tagged.ID, byTag[0].ID)
	assert.NotEqual(t, untagged.ID, byTag[0].ID)

	_, err = svc.GetEntriesByTag(travel.ID, "other")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	_, err = svc.GetEntriesByTag(999, "owner")
	assert.EqualError(t, err, "Tag not found: 999")
}
