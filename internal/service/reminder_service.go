package service

import (
	"context"
	"time"

	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/repository"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var remindersPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "journal_reminders_published_total",
		Help: "Reminder messages published, by queue",
	},
	[]string{"queue"},
)

// memoryLaneMonths N개월 전 오늘 (1..11)
const memoryLaneMonths = 11

// ReminderPublisher puts reminder messages on a named queue
type ReminderPublisher interface {
	Publish(ctx context.Context, queue string, msg domain.ReminderMessage) error
}

// ReminderService computes reminder candidates for verified users and
// publishes one message per hit. Dates are evaluated in each user's zone.
type ReminderService struct {
	users     repository.UserRepository
	entries   repository.EntryRepository
	publisher ReminderPublisher
	now       func() time.Time
}

// NewReminderService creates a ReminderService
func NewReminderService(users repository.UserRepository, entries repository.EntryRepository, publisher ReminderPublisher) *ReminderService {
	return &ReminderService{
		users:     users,
		entries:   entries,
		publisher: publisher,
		now:       time.Now,
	}
}

// SetClock 테스트용 시계 주입
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

// SendMonthlyReminders publishes last month's entry count for every verified
// user whose local date is the 1st and who wrote at least one entry.
func (s *ReminderService) SendMonthlyReminders(ctx context.Context) (int, error) {
	users, err := s.users.ListVerified()
	if err != nil {
		return 0, err
	}

	sent := 0
	now := s.now()
	for _, user := range users {
		local := now.In(user.Location())
		if local.Day() != 1 {
			continue
		}
		start, end := PreviousMonthRange(now, user.Location())
		count, err := s.entries.CountForUserBetween(user.ID, start, end)
		if err != nil {
			s.logFailure(err, user, domain.QueueMonthlyReminders)
			continue
		}
		if count == 0 {
			continue
		}
		if s.publish(ctx, domain.QueueMonthlyReminders, domain.NewReminderMessage(user, count, start.In(user.Location()))) {
			sent++
		}
	}
	return sent, nil
}

// SendMemoryLaneReminders publishes, per verified user, each of the last 11
// months in which the user wrote on today's day-of-month.
func (s *ReminderService) SendMemoryLaneReminders(ctx context.Context) (int, error) {
	users, err := s.users.ListVerified()
	if err != nil {
		return 0, err
	}

	sent := 0
	now := s.now()
	for _, user := range users {
		for _, day := range MemoryLaneDays(now, user.Location()) {
			count, err := s.entries.CountForUserBetween(user.ID, day, day.AddDate(0, 0, 1))
			if err != nil {
				s.logFailure(err, user, domain.QueueMemoryLaneReminders)
				continue
			}
			if count == 0 {
				continue
			}
			if s.publish(ctx, domain.QueueMemoryLaneReminders, domain.NewReminderMessage(user, count, day)) {
				sent++
			}
		}
	}
	return sent, nil
}

// SendAnniversaryReminders publishes one message per past entry date of a
// verified user that falls on today's month and day, with the years elapsed
// carried as the entry count.
func (s *ReminderService) SendAnniversaryReminders(ctx context.Context) (int, error) {
	users, err := s.users.ListVerified()
	if err != nil {
		return 0, err
	}

	sent := 0
	now := s.now()
	for _, user := range users {
		dates, err := s.entries.DistinctEntryDates(user.ID)
		if err != nil {
			s.logFailure(err, user, domain.QueueAnniversaryReminders)
			continue
		}
		for _, a := range Anniversaries(now.In(user.Location()), dates) {
			if s.publish(ctx, domain.QueueAnniversaryReminders, domain.NewReminderMessage(user, int64(a.YearsAgo), a.Date)) {
				sent++
			}
		}
	}
	return sent, nil
}

func (s *ReminderService) publish(ctx context.Context, queue string, msg domain.ReminderMessage) bool {
	if err := s.publisher.Publish(ctx, queue, msg); err != nil {
		pkglogger.GetLogger().Error().Err(err).
			Str("queue", queue).
			Uint64("user_id", msg.UserID).
			Msg("reminder publish failed")
		return false
	}
	remindersPublishedTotal.WithLabelValues(queue).Inc()
	return true
}

func (s *ReminderService) logFailure(err error, user *domain.User, queue string) {
	pkglogger.GetLogger().Error().Err(err).
		Str("queue", queue).
		Uint64("user_id", user.ID).
		Msg("reminder query failed")
}

// PreviousMonthRange returns [first instant of last month, first instant of
// this month) in loc, as of now.
func PreviousMonthRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	end := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	start := end.AddDate(0, -1, 0)
	return start, end
}

// MemoryLaneDays returns the start of today's day-of-month in each of the
// previous 11 months, in loc. Months too short to contain the day are skipped.
func MemoryLaneDays(now time.Time, loc *time.Location) []time.Time {
	local := now.In(loc)
	day := local.Day()
	firstOfMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)

	days := make([]time.Time, 0, memoryLaneMonths)
	for i := 1; i <= memoryLaneMonths; i++ {
		first := firstOfMonth.AddDate(0, -i, 0)
		if day > daysIn(first) {
			continue
		}
		days = append(days, time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc))
	}
	return days
}

// Anniversary 기념일 후보
type Anniversary struct {
	Date     time.Time
	YearsAgo int
}

// Anniversaries picks the dates sharing today's month and day from at least
// one year ago. Duplicate calendar dates are reported once.
func Anniversaries(today time.Time, dates []time.Time) []Anniversary {
	seen := make(map[string]bool, len(dates))
	out := []Anniversary{}
	for _, d := range dates {
		if d.Month() != today.Month() || d.Day() != today.Day() {
			continue
		}
		years := today.Year() - d.Year()
		if years < 1 {
			continue
		}
		key := d.Format(domain.DateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Anniversary{Date: d, YearsAgo: years})
	}
	return out
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
