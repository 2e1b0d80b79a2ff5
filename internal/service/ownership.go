package service

import (
	"errors"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	"gorm.io/gorm"
)

// resolveUser username -> User
func resolveUser(users repository.UserRepository, username string) (*domain.User, error) {
	user, err := users.FindByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// resolveOwnedJournal journal id + acting user -> Journal
func resolveOwnedJournal(journals repository.JournalRepository, journalID, userID uint64) (*domain.Journal, error) {
	journal, err := journals.FindByID(journalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("Journal not found")
	}
	if err != nil {
		return nil, err
	}
	if !journal.OwnedBy(userID) {
		return nil, common.Forbidden("You don't have access to this journal")
	}
	return journal, nil
}

// resolveOwnedTags resolves every id to a tag owned by userID, or fails as a whole.
// Duplicate ids collapse to one tag; order of first appearance is kept.
func resolveOwnedTags(tags repository.TagRepository, ids []uint64, userID uint64) ([]*domain.Tag, error) {
	resolved := make([]*domain.Tag, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		tag, err := tags.FindByID(id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("Tag not found: %d", id)
		}
		if err != nil {
			return nil, err
		}
		if tag.UserID != userID {
			return nil, common.Forbidden("Access denied to tag: %d", id)
		}
		resolved = append(resolved, tag)
	}
	return resolved, nil
}
