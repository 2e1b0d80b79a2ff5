package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLEntry   = 5 * time.Minute  // 단일 엔트리 뷰
	TTLEntries = 30 * time.Second // 저널별 엔트리 목록 (자주 갱신)
	TTLDefault = 5 * time.Minute  // 기본값
)

// 캐시 키 접두사
const (
	PrefixEntry   = "entry:"
	PrefixEntries = "entries:"
)

// ErrMiss 캐시에 값이 없거나 Redis를 사용할 수 없음
var ErrMiss = errors.New("cache miss")

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	// 기본 캐시 연산
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// 엔트리 뷰 캐시
	GetEntry(ctx context.Context, journalID, entryID uint64, dest interface{}) error
	SetEntry(ctx context.Context, journalID, entryID uint64, data interface{}) error
	GetEntries(ctx context.Context, journalID uint64, dest interface{}) error
	SetEntries(ctx context.Context, journalID uint64, data interface{}) error
	InvalidateEntry(ctx context.Context, journalID, entryID uint64) error

	// 유틸리티
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성. client가 nil이면 모든 조회가 miss.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable Redis 연결 가능 여부
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping Redis 연결 테스트
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get 캐시에서 값 조회
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set 캐시에 값 저장
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Redis 없으면 무시
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete 캐시 삭제
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// ========================================
// 엔트리 캐시
// ========================================

// EntryKey 단일 엔트리 키
func EntryKey(journalID, entryID uint64) string {
	return PrefixEntry + strconv.FormatUint(journalID, 10) + ":" + strconv.FormatUint(entryID, 10)
}

// EntriesKey 저널 엔트리 목록 키
func EntriesKey(journalID uint64) string {
	return PrefixEntries + strconv.FormatUint(journalID, 10)
}

func (c *redisCache) GetEntry(ctx context.Context, journalID, entryID uint64, dest interface{}) error {
	return c.Get(ctx, EntryKey(journalID, entryID), dest)
}

func (c *redisCache) SetEntry(ctx context.Context, journalID, entryID uint64, data interface{}) error {
	return c.Set(ctx, EntryKey(journalID, entryID), data, TTLEntry)
}

func (c *redisCache) GetEntries(ctx context.Context, journalID uint64, dest interface{}) error {
	return c.Get(ctx, EntriesKey(journalID), dest)
}

func (c *redisCache) SetEntries(ctx context.Context, journalID uint64, data interface{}) error {
	return c.Set(ctx, EntriesKey(journalID), data, TTLEntries)
}

// InvalidateEntry 엔트리 뷰와 저널 목록을 함께 무효화
func (c *redisCache) InvalidateEntry(ctx context.Context, journalID, entryID uint64) error {
	return c.Delete(ctx, EntryKey(journalID, entryID), EntriesKey(journalID))
}
