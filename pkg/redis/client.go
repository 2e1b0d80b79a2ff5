package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options Redis 접속 설정
type Options struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NewClient connects and pings Redis. The client is shared by the entry
// cache, the reminder queues and the rate limiter, so blocking reads
// (BLPOP) get a read timeout longer than the consumer poll interval.
func NewClient(opts Options, blockingPoll time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  blockingPoll + 3*time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis %s: %w", client.Options().Addr, err)
	}

	return client, nil
}
