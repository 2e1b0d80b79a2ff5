package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/journalkeep/journal-backend/internal/domain"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ReminderQueues 리마인더 큐 목록 (소비 순서)
var ReminderQueues = []string{
	domain.QueueMonthlyReminders,
	domain.QueueMemoryLaneReminders,
	domain.QueueAnniversaryReminders,
}

const keyPrefix = "queue:"

// queueKey Redis 리스트 키
func queueKey(queue string) string {
	return keyPrefix + queue
}

// Producer Redis 리스트 기반 리마인더 큐 발행자
type Producer struct {
	client *redis.Client
}

// NewProducer 생성자
func NewProducer(client *redis.Client) *Producer {
	return &Producer{client: client}
}

// Publish 메시지를 큐 끝에 추가
func (p *Producer) Publish(ctx context.Context, queue string, msg domain.ReminderMessage) error {
	payload, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}
	return p.client.RPush(ctx, queueKey(queue), payload).Err()
}

// Sender delivers reminder emails
type Sender interface {
	SendMonthlySummary(to string, entryCount int64, month time.Time) error
	SendMemoryLane(to string, date time.Time, entryCount int64) error
	SendAnniversary(to string, date time.Time, yearsAgo int64) error
}

// Consumer pops reminder messages and sends one email per message.
// A failed send is logged and dropped.
type Consumer struct {
	client      *redis.Client
	sender      Sender
	pollTimeout time.Duration
}

// NewConsumer 생성자
func NewConsumer(client *redis.Client, sender Sender, pollTimeout time.Duration) *Consumer {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Consumer{client: client, sender: sender, pollTimeout: pollTimeout}
}

// Run blocks until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) {
	log := pkglogger.WithComponent("reminder-consumer")
	keys := make([]string, 0, len(ReminderQueues))
	for _, q := range ReminderQueues {
		keys = append(keys, queueKey(q))
	}
	log.Info().Strs("queues", ReminderQueues).Msg("reminder consumer started")

	for {
		if ctx.Err() != nil {
			log.Info().Msg("reminder consumer stopped")
			return
		}

		// BLPop 결과: [key, value]
		res, err := c.client.BLPop(ctx, c.pollTimeout, keys...).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("queue poll failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if len(res) != 2 {
			continue
		}

		queue := strings.TrimPrefix(res[0], keyPrefix)
		if err := c.Dispatch(queue, []byte(res[1])); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("reminder delivery failed")
		}
	}
}

// Dispatch decodes one payload from queue and sends the matching email
func (c *Consumer) Dispatch(queue string, payload []byte) error {
	var msg domain.ReminderMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("메시지 역직렬화 실패: %w", err)
	}
	date, err := msg.Date()
	if err != nil {
		return fmt.Errorf("invalid reminder date %q: %w", msg.MonthYear, err)
	}

	switch queue {
	case domain.QueueMonthlyReminders:
		err = c.sender.SendMonthlySummary(msg.Email, msg.EntryCount, date)
	case domain.QueueMemoryLaneReminders:
		err = c.sender.SendMemoryLane(msg.Email, date, msg.EntryCount)
	case domain.QueueAnniversaryReminders:
		err = c.sender.SendAnniversary(msg.Email, date, msg.EntryCount)
	default:
		return fmt.Errorf("unknown reminder queue: %s", queue)
	}
	if err != nil {
		return err
	}

	pkglogger.GetLogger().Info().
		Str("queue", queue).
		Uint64("user_id", msg.UserID).
		Msg("reminder email sent")
	return nil
}
