package domain

import (
	"encoding/json"
	"time"
)

// Reminder queue names
const (
	QueueMonthlyReminders     = "monthly-reminders-queue"
	QueueMemoryLaneReminders  = "memory-lane-reminders"
	QueueAnniversaryReminders = "anniversary-reminders"
)

// ReminderMessage is the payload published to the reminder queues.
// EntryCount carries the years-ago value for anniversary reminders.
type ReminderMessage struct {
	UserID     uint64 `json:"userId"`
	Email      string `json:"email"`
	EntryCount int64  `json:"entryCount"`
	MonthYear  string `json:"monthYear"`
	Timezone   string `json:"timezone"`
}

// NewReminderMessage builds a message for user with the date formatted as YYYY-MM-DD
func NewReminderMessage(user *User, count int64, date time.Time) ReminderMessage {
	tz := user.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return ReminderMessage{
		UserID:     user.ID,
		Email:      user.Email,
		EntryCount: count,
		MonthYear:  date.Format(DateLayout),
		Timezone:   tz,
	}
}

// Date parses MonthYear
func (m ReminderMessage) Date() (time.Time, error) {
	return time.Parse(DateLayout, m.MonthYear)
}

// Marshal encodes the message as JSON
func (m ReminderMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
