package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/shaiso/Robota/internal/actions"
	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/engine"
	"github.com/shaiso/Robota/internal/lockfile"
)

// ErrPermissionDenied — роль не имеет права на операцию.
var ErrPermissionDenied = errors.New("permission denied")

// defaultLockPath — путь маркера блокировки запусков по умолчанию.
const defaultLockPath = "runs/runner.lock"

// Recorder принимает записи завершённых запусков.
type Recorder interface {
	// Append сохраняет запись запуска.
	Append(rec *domain.RunRecord) error
}

// Config — зависимости Runner.
type Config struct {
	// Registry — реестр действий.
	Registry *actions.Registry

	// LockPath — путь маркера блокировки. Пустой — runs/runner.lock.
	LockPath string

	// Recorder — приёмник записей запусков. Может быть nil.
	Recorder Recorder

	// Logger — логгер. Может быть nil.
	Logger *slog.Logger
}

// Runner выполняет flow пошагово: подстановка переменных,
// диспетчеризация действий через реестр, запись результата.
//
// Запуски сериализуются файловой блокировкой: пока маркер занят,
// повторный запуск немедленно завершается отказом lock_busy.
type Runner struct {
	registry *actions.Registry
	lockPath string
	recorder Recorder
	logger   *slog.Logger
	stop     atomic.Bool
}

// New создаёт Runner.
func New(cfg Config) *Runner {
	lockPath := cfg.LockPath
	if lockPath == "" {
		lockPath = defaultLockPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: cfg.Registry,
		lockPath: lockPath,
		recorder: cfg.Recorder,
		logger:   logger,
	}
}

// Stop выставляет флаг остановки: текущий запуск прервётся
// на границе следующего шага с причиной cancelled.
func (r *Runner) Stop() {
	r.stop.Store(true)
}

// Execute выполняет flow от имени роли actorRole с входными
// переменными inputs.
//
// Отказ в праве run возвращает ErrPermissionDenied без записи и
// побочных эффектов. Занятая блокировка возвращает запись FAILED
// с причиной lock_busy и ErrLockBusy. Отказ шага внутри flow —
// это записанный FAILED-результат, не ошибка вызова.
func (r *Runner) Execute(ctx context.Context, flow *domain.Flow, inputs map[string]any, actorRole string) (*domain.RunRecord, error) {
	return r.execute(ctx, flow, inputs, actorRole, domain.TriggerManual)
}

// ExecuteScheduled выполняет flow от имени планировщика.
// Семантика совпадает с Execute, но запись помечается trigger=schedule.
func (r *Runner) ExecuteScheduled(ctx context.Context, flow *domain.Flow, inputs map[string]any, actorRole string) (*domain.RunRecord, error) {
	return r.execute(ctx, flow, inputs, actorRole, domain.TriggerSchedule)
}

func (r *Runner) execute(ctx context.Context, flow *domain.Flow, inputs map[string]any, actorRole string, trigger domain.Trigger) (*domain.RunRecord, error) {
	if !flow.Meta.Roles.Allows(domain.OpRun, actorRole) {
		return nil, fmt.Errorf("%w: role %q cannot run flow %q", ErrPermissionDenied, actorRole, flow.Name())
	}
	if err := engine.Validate(flow); err != nil {
		return nil, err
	}

	rec := domain.NewRunRecord(flow.Name(), trigger)
	log := r.logger.With("run_id", rec.RunID, "flow", rec.Flow)

	lock, err := lockfile.Acquire(r.lockPath)
	if err != nil {
		if errors.Is(err, lockfile.ErrLockBusy) {
			rec.MarkFailed("", domain.ReasonLockBusy)
			r.record(rec)
			log.Warn("run rejected: lock busy", "lock", r.lockPath)
			return rec, err
		}
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	defer lock.Release()

	r.stop.Store(false)
	log.Info("run started", "steps", len(flow.Steps))

	return r.run(ctx, flow, inputs, rec, log)
}

// run выполняет шаги flow. Блокировка уже захвачена вызывающим.
func (r *Runner) run(ctx context.Context, flow *domain.Flow, inputs map[string]any, rec *domain.RunRecord, log *slog.Logger) (outRec *domain.RunRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			rec.MarkFailed("", domain.ReasonPanic)
			r.record(rec)
			log.Error("run panicked", "panic", p)
			outRec, err = rec, fmt.Errorf("run panicked: %v", p)
		}
	}()

	vars := engine.NewContext(flow.Variables)
	for k, v := range inputs {
		vars.Set(k, v)
	}

	for _, step := range flow.Steps {
		if r.stop.Load() || ctx.Err() != nil {
			rec.MarkFailed(step.ID, domain.ReasonCancelled)
			r.record(rec)
			log.Warn("run cancelled", "step", step.ID)
			return rec, nil
		}

		selector, err := engine.RenderMap(step.Selector, vars)
		if err != nil {
			rec.MarkFailed(step.ID, domain.ReasonActionError)
			r.record(rec)
			log.Error("selector render failed", "step", step.ID, "error", err)
			return rec, nil
		}
		params, err := engine.RenderMap(step.Params, vars)
		if err != nil {
			rec.MarkFailed(step.ID, domain.ReasonActionError)
			r.record(rec)
			log.Error("params render failed", "step", step.ID, "error", err)
			return rec, nil
		}

		act, err := r.registry.Get(step.Action)
		if err != nil {
			rec.MarkFailed(step.ID, domain.ReasonUnknownAction)
			r.record(rec)
			log.Error("unknown action", "step", step.ID, "action", step.Action)
			return rec, nil
		}

		result, err := act.Execute(ctx, &actions.Request{
			StepID:   step.ID,
			Selector: selector,
			Params:   params,
			Vars:     vars,
		})
		rec.AddSelectorOutcome(actions.SelectorKey(selector), err == nil)
		if err != nil {
			reason := actions.Categorize(err)
			rec.MarkFailed(step.ID, reason)
			r.record(rec)
			log.Error("step failed", "step", step.ID, "action", step.Action, "reason", reason, "error", err)
			return rec, nil
		}

		if step.Out != "" {
			vars.Set(step.Out, result)
		}
		log.Debug("step done", "step", step.ID, "action", step.Action)
	}

	rec.MarkSuccess()
	r.record(rec)
	log.Info("run finished", "status", rec.Status, "duration", rec.Duration())
	return rec, nil
}

// record передаёт запись рекордеру, если он задан.
func (r *Runner) record(rec *domain.RunRecord) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Append(rec); err != nil {
		r.logger.Warn("append run record failed", "run_id", rec.RunID, "error", err)
	}
}

// ViewFlow проверяет право роли на просмотр flow.
func ViewFlow(flow *domain.Flow, role string) error {
	return checkRole(flow, domain.OpView, role)
}

// EditFlow проверяет право роли на редактирование flow.
func EditFlow(flow *domain.Flow, role string) error {
	return checkRole(flow, domain.OpEdit, role)
}

// PublishFlow проверяет право роли на публикацию flow.
func PublishFlow(flow *domain.Flow, role string) error {
	return checkRole(flow, domain.OpPublish, role)
}

// ApproveFlow проверяет право роли на утверждение flow.
func ApproveFlow(flow *domain.Flow, role string) error {
	return checkRole(flow, domain.OpApprove, role)
}

func checkRole(flow *domain.Flow, op domain.Operation, role string) error {
	if !flow.Meta.Roles.Allows(op, role) {
		return fmt.Errorf("%w: role %q cannot %s flow %q", ErrPermissionDenied, role, op, flow.Name())
	}
	return nil
}
