package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/lockfile"
)

// Target — полезная нагрузка job. Возвращённая запись дополняет
// запись планировщика; nil допустим.
type Target func(ctx context.Context) (*domain.RunRecord, error)

// Recorder принимает записи запусков и пропусков планировщика.
type Recorder interface {
	Append(rec *domain.RunRecord) error
}

// Job — запланированная задача.
type Job struct {
	// Name — уникальное имя job.
	Name string

	// Expr — исходное cron-выражение (шесть полей).
	Expr string

	// LockPath — путь маркера блокировки job.
	LockPath string

	// Conditions — предикаты окружения; все должны быть true.
	Conditions []Condition

	target   Target
	schedule cron.Schedule
	next     time.Time
	active   int
}

// JobInfo — снимок состояния job для наблюдения.
type JobInfo struct {
	Name    string    `json:"name"`
	Expr    string    `json:"cron"`
	NextRun time.Time `json:"next_run"`
	Running bool      `json:"running"`
}

// Config — конфигурация Scheduler.
type Config struct {
	// Recorder — приёмник записей. Может быть nil.
	Recorder Recorder

	// Logger — логгер. Может быть nil.
	Logger *slog.Logger

	// PollInterval — период опроса (default: 1s).
	PollInterval time.Duration
}

// Scheduler запускает jobs по шестипольным cron-выражениям.
//
// Перед каждым срабатыванием проверяются условия окружения и
// захватывается файловая блокировка job. Ложное условие или занятая
// блокировка дают запись SKIPPED; пропуск — не ошибка.
type Scheduler struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	recorder Recorder
	logger   *slog.Logger
	interval time.Duration
	wg       sync.WaitGroup
}

// New создаёт Scheduler.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		jobs:     make(map[string]*Job),
		recorder: cfg.Recorder,
		logger:   logger,
		interval: interval,
	}
}

// AddJob регистрирует job. Невалидное cron-выражение — ошибка.
// Имя должно быть уникально.
func (s *Scheduler) AddJob(name, expr, lockPath string, target Target, conds ...Condition) error {
	schedule, err := ParseExpr(expr)
	if err != nil {
		return err
	}
	if lockPath == "" {
		return fmt.Errorf("job %s: lock path is required", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	s.jobs[name] = &Job{
		Name:       name,
		Expr:       expr,
		LockPath:   lockPath,
		Conditions: conds,
		target:     target,
		schedule:   schedule,
		next:       schedule.Next(time.Now()),
	}
	s.logger.Info("job registered", "job", name, "cron", expr)
	return nil
}

// Jobs возвращает снимки всех jobs, отсортированные по имени.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		infos = append(infos, JobInfo{
			Name:    j.Name,
			Expr:    j.Expr,
			NextRun: j.next,
			Running: j.active > 0,
		})
	}
	sort.Slice(infos, func(i, k int) bool { return infos[i].Name < infos[k].Name })
	return infos
}

// Run крутит цикл опроса до отмены ctx. Запущенные jobs дорабатывают
// до конца перед возвратом.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "poll_interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			s.wg.Wait()
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick запускает все jobs, чьё время пришло.
//
// Срабатывание диспетчеризуется безусловно, даже если предыдущее
// выполнение job ещё идёт: перекрытие разрешает исключительно
// блокировка job в fire. next всегда продвигается вперёд, поэтому
// проигравшее срабатывание пропускается, а не откладывается.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*Job
	for _, j := range s.jobs {
		if j.next.After(now) {
			continue
		}
		j.next = j.schedule.Next(now)
		j.active++
		due = append(due, j)
	}
	s.mu.Unlock()

	for _, j := range due {
		job := j
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.setIdle(job)
			s.fire(ctx, job)
		}()
	}
}

func (s *Scheduler) setIdle(j *Job) {
	s.mu.Lock()
	j.active--
	s.mu.Unlock()
}

// fire выполняет одно срабатывание job: условия, блокировка, target.
func (s *Scheduler) fire(ctx context.Context, j *Job) {
	log := s.logger.With("job", j.Name)

	for _, cond := range j.Conditions {
		if !cond() {
			rec := domain.NewRunRecord(j.Name, domain.TriggerSchedule)
			rec.MarkSkipped(domain.ReasonConditionFalse)
			s.record(rec)
			log.Info("job skipped", "reason", domain.ReasonConditionFalse)
			return
		}
	}

	lock, err := lockfile.Acquire(j.LockPath)
	if err != nil {
		if errors.Is(err, lockfile.ErrLockBusy) {
			rec := domain.NewRunRecord(j.Name, domain.TriggerSchedule)
			rec.MarkSkipped(domain.ReasonLockBusy)
			s.record(rec)
			log.Info("job skipped", "reason", domain.ReasonLockBusy, "lock", j.LockPath)
			return
		}
		log.Error("acquire job lock failed", "error", err)
		return
	}
	defer lock.Release()

	defer func() {
		if p := recover(); p != nil {
			rec := domain.NewRunRecord(j.Name, domain.TriggerSchedule)
			rec.MarkFailed("", domain.ReasonPanic)
			s.record(rec)
			log.Error("job panicked", "panic", p)
		}
	}()

	log.Info("job fired")
	rec, err := j.target(ctx)
	if err != nil && rec == nil {
		rec = domain.NewRunRecord(j.Name, domain.TriggerSchedule)
		rec.MarkFailed("", domain.ReasonActionError)
		s.record(rec)
	}
	if err != nil {
		log.Error("job failed", "error", err)
		return
	}
	if rec != nil {
		log.Info("job finished", "status", rec.Status, "duration", rec.Duration())
	}
}

// record передаёт запись рекордеру, если он задан.
func (s *Scheduler) record(rec *domain.RunRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Append(rec); err != nil {
		s.logger.Warn("append run record failed", "run_id", rec.RunID, "error", err)
	}
}
