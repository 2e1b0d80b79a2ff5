package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendMonthlySummary(to string, entryCount int64, month time.Time) error {
	return m.Called(to, entryCount, month).Error(0)
}

func (m *mockSender) SendMemoryLane(to string, date time.Time, entryCount int64) error {
	return m.Called(to, date, entryCount).Error(0)
}

func (m *mockSender) SendAnniversary(to string, date time.Time, yearsAgo int64) error {
	return m.Called(to, date, yearsAgo).Error(0)
}

func payload(t *testing.T, count int64, date string) []byte {
	t.Helper()
	data, err := domain.ReminderMessage{
		UserID:     7,
		Email:      "kim@example.com",
		EntryCount: count,
		MonthYear:  date,
		Timezone:   "Asia/Seoul",
	}.Marshal()
	require.NoError(t, err)
	return data
}

func TestDispatch_RoutesByQueue(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	sender := new(mockSender)
	sender.On("SendMonthlySummary", "kim@example.com", int64(12), day).Return(nil).Once()
	sender.On("SendMemoryLane", "kim@example.com", day, int64(2)).Return(nil).Once()
	sender.On("SendAnniversary", "kim@example.com", day, int64(3)).Return(nil).Once()

	c := NewConsumer(nil, sender, 0)
	require.NoError(t, c.Dispatch(domain.QueueMonthlyReminders, payload(t, 12, "2024-03-01")))
	require.NoError(t, c.Dispatch(domain.QueueMemoryLaneReminders, payload(t, 2, "2024-03-01")))
	require.NoError(t, c.Dispatch(domain.QueueAnniversaryReminders, payload(t, 3, "2024-03-01")))

	sender.AssertExpectations(t)
}

func TestDispatch_SendFailureReturned(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendMemoryLane", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	c := NewConsumer(nil, sender, time.Second)
	err := c.Dispatch(domain.QueueMemoryLaneReminders, payload(t, 1, "2024-02-10"))
	assert.EqualError(t, err, "smtp down")
}

func TestDispatch_RejectsBadInput(t *testing.T) {
	sender := new(mockSender)
	c := NewConsumer(nil, sender, time.Second)

	assert.Error(t, c.Dispatch(domain.QueueMonthlyReminders, []byte("{not json")))
	assert.Error(t, c.Dispatch(domain.QueueMonthlyReminders, payload(t, 1, "March")))
	assert.Error(t, c.Dispatch("unknown-queue", payload(t, 1, "2024-03-01")))

	sender.AssertNotCalled(t, "SendMonthlySummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueueKey(t *testing.T) {
	assert.Equal(t, "queue:anniversary-reminders", queueKey(domain.QueueAnniversaryReminders))
	assert.Len(t, ReminderQueues, 3)
}
