package service

import (
	"errors"
	"strings"

	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	"gorm.io/gorm"
)

// TagService tag business logic
type TagService interface {
	CreateTag(req *domain.TagRequest, username string) (*domain.TagResponse, error)
	ListTags(username string) ([]domain.TagResponse, error)
	SearchTags(query, username string) ([]domain.TagResponse, error)
	GetEntriesByTag(tagID uint64, username string) ([]domain.EntryResponse, error)
}

type tagService struct {
	users   repository.UserRepository
	tags    repository.TagRepository
	entries repository.EntryRepository
}

// NewTagService creates a new TagService
func NewTagService(users repository.UserRepository, tags repository.TagRepository, entries repository.EntryRepository) TagService {
	return &tagService{users: users, tags: tags, entries: entries}
}

func (s *tagService) CreateTag(req *domain.TagRequest, username string) (*domain.TagResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, common.BadRequest("Tag name is required")
	}
	exists, err := s.tags.ExistsByUserAndName(user.ID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.Conflict("Tag already exists")
	}

	tag := &domain.Tag{UserID: user.ID, Name: name}
	if err := s.tags.Create(tag); err != nil {
		return nil, err
	}
	resp := tag.ToResponse()
	return &resp, nil
}

// ListTags 이름순
func (s *tagService) ListTags(username string) ([]domain.TagResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListByUser(user.ID)
	if err != nil {
		return nil, err
	}
	return domain.TagResponses(tags), nil
}

// SearchTags case-insensitive substring match on the user's own tags
func (s *tagService) SearchTags(query, username string) ([]domain.TagResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.SearchByUser(user.ID, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	return domain.TagResponses(tags), nil
}

// GetEntriesByTag non-deleted entries currently carrying an owned tag
func (s *tagService) GetEntriesByTag(tagID uint64, username string) ([]domain.EntryResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}
	tag, err := s.tags.FindByID(tagID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NotFound("Tag not found: %d", tagID)
	}
	if err != nil {
		return nil, err
	}
	if tag.UserID != user.ID {
		return nil, common.Forbidden("Access denied to tag: %d", tagID)
	}

	entries, err := s.entries.ListActiveByTag(tagID)
	if err != nil {
		return nil, err
	}
	return domain.EntryResponses(entries), nil
}
