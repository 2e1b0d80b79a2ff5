package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"github.com/rs/zerolog"
)

// Handler 주기 작업 본문
type Handler func(ctx context.Context) error

// Task 등록된 주기적 작업
type Task struct {
	Name      string
	Interval  time.Duration
	Handler   Handler
	LastRun   time.Time
	NextRun   time.Time
	RunCount  int64
	LastError error
	running   bool

	// daily 작업은 매일 At(UTC) 시각에 실행
	daily bool
	at    time.Duration
}

// Scheduler in-process interval scheduler (retention purge, reminders)
type Scheduler struct {
	tasks  []*Task
	mu     sync.Mutex
	logger zerolog.Logger
	tickEv time.Duration
	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New 스케줄러 생성. tickEvery는 실행 대상 확인 주기.
func New(tickEvery time.Duration) *Scheduler {
	if tickEvery <= 0 {
		tickEvery = 30 * time.Second
	}
	return &Scheduler{
		tasks:  make([]*Task, 0),
		logger: pkglogger.WithComponent("scheduler"),
		tickEv: tickEvery,
		now:    time.Now,
	}
}

// Register 주기적 작업 등록. 첫 실행은 등록 후 interval 경과 시점.
func (s *Scheduler) Register(name string, interval time.Duration, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
		NextRun:  s.now().Add(interval),
	})

	s.logger.Info().Str("task", name).Dur("interval", interval).Msg("scheduled task registered")
}

// RegisterDaily 매일 고정 시각(HH:MM, UTC)에 실행되는 작업 등록.
// 다음 실행 시각은 프로세스 시작 시점과 무관하게 벽시계 기준으로 잡힌다.
func (s *Scheduler) RegisterDaily(name, at string, handler Handler) error {
	offset, err := ParseTimeOfDay(at)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: 24 * time.Hour,
		Handler:  handler,
		NextRun:  nextDaily(now, offset),
		daily:    true,
		at:       offset,
	})

	s.logger.Info().Str("task", name).Str("at", at).Time("next_run", nextDaily(now, offset)).Msg("daily task registered")
	return nil
}

// ParseTimeOfDay "HH:MM" -> 자정 기준 오프셋
func ParseTimeOfDay(at string) (time.Duration, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM): %w", at, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// nextDaily now 이후(초과) 가장 가까운 UTC 기준 offset 시각
func nextDaily(now time.Time, offset time.Duration) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	next := midnight.Add(offset)
	if !next.After(now) {
		next = midnight.AddDate(0, 0, 1).Add(offset)
	}
	return next
}

// Start 스케줄러 시작 (백그라운드 goroutine)
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tickEv)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.tick(ctx, now)
			}
		}
	}()
	s.logger.Info().Msg("scheduler started")
}

// Stop 스케줄러 중지, 실행 중인 작업 종료까지 대기
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow 이름으로 작업 즉시 실행 (다음 실행 시각도 갱신)
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	task := s.find(name)
	if task == nil {
		return fmt.Errorf("scheduled task not found: %s", name)
	}
	return s.run(ctx, task, s.now())
}

func (s *Scheduler) find(name string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// tick 실행 대상 작업 체크 및 실행
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !now.Before(t.NextRun) && !t.running {
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		if ctx.Err() != nil {
			return
		}
		_ = s.run(ctx, task, now) //nolint:errcheck // 결과는 LastError에 기록
	}
}

func (s *Scheduler) run(ctx context.Context, task *Task, now time.Time) error {
	s.mu.Lock()
	if task.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduled task already running: %s", task.Name)
	}
	task.running = true
	s.mu.Unlock()

	s.logger.Info().Str("task", task.Name).Msg("running scheduled task")
	started := time.Now()
	err := task.Handler(ctx)

	s.mu.Lock()
	task.running = false
	task.LastError = err
	task.LastRun = now
	if task.daily {
		task.NextRun = nextDaily(now, task.at)
	} else {
		task.NextRun = now.Add(task.Interval)
	}
	task.RunCount++
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("task", task.Name).Msg("scheduled task failed")
	} else {
		s.logger.Info().Str("task", task.Name).Dur("took", time.Since(started)).Msg("scheduled task finished")
	}
	return err
}

// GetTasks 등록된 작업 목록 조회 (모니터링용)
func (s *Scheduler) GetTasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]TaskInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		info := TaskInfo{
			Name:     t.Name,
			Interval: t.Interval.String(),
			LastRun:  t.LastRun,
			NextRun:  t.NextRun,
			RunCount: t.RunCount,
		}
		if t.LastError != nil {
			errMsg := t.LastError.Error()
			info.LastError = &errMsg
		}
		result = append(result, info)
	}
	return result
}

// TaskInfo 작업 정보 (JSON 응답용)
type TaskInfo struct {
	Name      string    `json:"name"`
	Interval  string    `json:"interval"`
	LastRun   time.Time `json:"last_run"`
	NextRun   time.Time `json:"next_run"`
	RunCount  int64     `json:"run_count"`
	LastError *string   `json:"last_error,omitempty"`
}
