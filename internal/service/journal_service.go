package service

import (
	"time"

	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
)

// JournalService journal business logic
type JournalService interface {
	CreateJournal(req *domain.JournalRequest, username string) (*domain.JournalResponse, error)
	ListJournals(username string) ([]domain.JournalResponse, error)
	GetJournal(journalID uint64, username string) (*domain.JournalResponse, error)
	UpdateJournal(journalID uint64, req *domain.JournalUpdateRequest, username string) (*domain.JournalResponse, error)
}

type journalService struct {
	users    repository.UserRepository
	journals repository.JournalRepository
	now      func() time.Time
}

// NewJournalService creates a new JournalService
func NewJournalService(users repository.UserRepository, journals repository.JournalRepository) JournalService {
	return &journalService{
		users:    users,
		journals: journals,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *journalService) CreateJournal(req *domain.JournalRequest, username string) (*domain.JournalResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}
	now := s.now()
	journal := &domain.Journal{
		UserID:    user.ID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.journals.Create(journal); err != nil {
		return nil, err
	}
	resp := journal.ToResponse()
	return &resp, nil
}

// ListJournals 최신순
func (s *journalService) ListJournals(username string) ([]domain.JournalResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}
	journals, err := s.journals.ListByUser(user.ID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.JournalResponse, 0, len(journals))
	for _, j := range journals {
		out = append(out, j.ToResponse())
	}
	return out, nil
}

func (s *journalService) GetJournal(journalID uint64, username string) (*domain.JournalResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}
	journal, err := resolveOwnedJournal(s.journals, journalID, user.ID)
	if err != nil {
		return nil, err
	}
	resp := journal.ToResponse()
	return &resp, nil
}

func (s *journalService) UpdateJournal(journalID uint64, req *domain.JournalUpdateRequest, username string) (*domain.JournalResponse, error) {
	user, err := resolveUser(s.users, username)
	if err != nil {
		return nil, err
	}
	journal, err := resolveOwnedJournal(s.journals, journalID, user.ID)
	if err != nil {
		return nil, err
	}
	journal.Title = req.Title
	journal.UpdatedAt = s.now()
	if err := s.journals.UpdateTitle(journal); err != nil {
		return nil, err
	}
	resp := journal.ToResponse()
	return &resp, nil
}
