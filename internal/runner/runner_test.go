package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shaiso/Robota/internal/actions"
	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/lockfile"
)

// memRecorder накапливает записи запусков в памяти.
type memRecorder struct {
	records []*domain.RunRecord
}

func (m *memRecorder) Append(rec *domain.RunRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func testFlow(steps ...domain.Step) *domain.Flow {
	return &domain.Flow{
		Meta: domain.Meta{
			Name:  "test-flow",
			Roles: domain.RoleMap{domain.OpRun: {"operator"}},
		},
		Steps: steps,
	}
}

func newTestRunner(t *testing.T, registry *actions.Registry, rec Recorder) *Runner {
	t.Helper()
	return New(Config{
		Registry: registry,
		LockPath: filepath.Join(t.TempDir(), "runner.lock"),
		Recorder: rec,
	})
}

func echoRegistry() *actions.Registry {
	r := actions.NewRegistry()
	r.Register(actions.New("echo", func(ctx context.Context, req *actions.Request) (any, error) {
		return req.Params["value"], nil
	}))
	r.Register(actions.New("fail", func(ctx context.Context, req *actions.Request) (any, error) {
		return nil, fmt.Errorf("%w: element", actions.ErrNotFound)
	}))
	return r
}

func TestExecute_Success(t *testing.T) {
	rec := &memRecorder{}
	r := newTestRunner(t, echoRegistry(), rec)

	flow := testFlow(
		domain.Step{ID: "s1", Action: "echo", Params: map[string]any{"value": "hello"}, Out: "greeting"},
		domain.Step{ID: "s2", Action: "echo", Params: map[string]any{"value": "{{ .Vars.greeting }} world"}},
	)

	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != domain.RunStatusSuccess {
		t.Errorf("expected SUCCESS, got %s (reason %s)", record.Status, record.Reason)
	}
	if record.Trigger != domain.TriggerManual {
		t.Errorf("expected manual trigger, got %s", record.Trigger)
	}
	if len(rec.records) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(rec.records))
	}
}

// Выходная переменная шага видна последующим шагам того же запуска.
func TestExecute_OutVariablePipeline(t *testing.T) {
	var secondValue any
	registry := actions.NewRegistry()
	registry.Register(actions.New("echo", func(ctx context.Context, req *actions.Request) (any, error) {
		return "result-1", nil
	}))
	registry.Register(actions.New("check", func(ctx context.Context, req *actions.Request) (any, error) {
		secondValue = req.Params["input"]
		return nil, nil
	}))

	r := newTestRunner(t, registry, nil)
	flow := testFlow(
		domain.Step{ID: "s1", Action: "echo", Out: "first"},
		domain.Step{ID: "s2", Action: "check", Params: map[string]any{"input": "{{ .Vars.first }}"}},
	)

	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != domain.RunStatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", record.Status)
	}
	if secondValue != "result-1" {
		t.Errorf("out variable not propagated, got %v", secondValue)
	}
}

// Входные переменные запуска перекрывают начальные переменные flow.
func TestExecute_InputsOverrideVariables(t *testing.T) {
	var seen any
	registry := actions.NewRegistry()
	registry.Register(actions.New("probe", func(ctx context.Context, req *actions.Request) (any, error) {
		seen, _ = req.Vars.Get("env")
		return nil, nil
	}))

	r := newTestRunner(t, registry, nil)
	flow := testFlow(domain.Step{ID: "s1", Action: "probe"})
	flow.Variables = map[string]any{"env": "default"}

	if _, err := r.Execute(context.Background(), flow, map[string]any{"env": "prod"}, "operator"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "prod" {
		t.Errorf("expected prod, got %v", seen)
	}
}

// Отказ в праве run — ошибка вызова без записи и побочных эффектов.
func TestExecute_PermissionDenied(t *testing.T) {
	rec := &memRecorder{}
	r := newTestRunner(t, echoRegistry(), rec)
	flow := testFlow(domain.Step{ID: "s1", Action: "echo"})

	record, err := r.Execute(context.Background(), flow, nil, "auditor")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if record != nil {
		t.Error("denied run must not produce a record")
	}
	if len(rec.records) != 0 {
		t.Error("denied run must not be recorded")
	}
}

// Занятая блокировка — записанный FAILED lock_busy, не пропуск.
func TestExecute_LockBusy(t *testing.T) {
	rec := &memRecorder{}
	lockPath := filepath.Join(t.TempDir(), "runner.lock")
	r := New(Config{Registry: echoRegistry(), LockPath: lockPath, Recorder: rec})

	held, err := lockfile.Acquire(lockPath)
	if err != nil {
		t.Fatalf("setup lock failed: %v", err)
	}
	defer held.Release()

	flow := testFlow(domain.Step{ID: "s1", Action: "echo"})
	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if !errors.Is(err, lockfile.ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}
	if record == nil {
		t.Fatal("lock-busy run must produce a record")
	}
	if record.Status != domain.RunStatusFailed || record.Reason != domain.ReasonLockBusy {
		t.Errorf("expected FAILED/lock_busy, got %s/%s", record.Status, record.Reason)
	}
	if len(rec.records) != 1 {
		t.Errorf("lock-busy run must be recorded, got %d records", len(rec.records))
	}
}

// Блокировка освобождается на каждом пути завершения.
func TestExecute_LockReleased(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "runner.lock")
	r := New(Config{Registry: echoRegistry(), LockPath: lockPath})

	// Успех.
	flow := testFlow(domain.Step{ID: "s1", Action: "echo"})
	if _, err := r.Execute(context.Background(), flow, nil, "operator"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lockfile.Held(lockPath) {
		t.Error("lock should be released after success")
	}

	// Отказ шага.
	flow = testFlow(domain.Step{ID: "s1", Action: "fail"})
	if _, err := r.Execute(context.Background(), flow, nil, "operator"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lockfile.Held(lockPath) {
		t.Error("lock should be released after failure")
	}
}

// Незнакомое действие — FAILED unknown_action на точном шаге.
func TestExecute_UnknownAction(t *testing.T) {
	rec := &memRecorder{}
	r := newTestRunner(t, echoRegistry(), rec)

	flow := testFlow(
		domain.Step{ID: "s1", Action: "echo"},
		domain.Step{ID: "s2", Action: "ghost"},
	)

	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if err != nil {
		t.Fatalf("step failure is not a call error: %v", err)
	}
	if record.Status != domain.RunStatusFailed {
		t.Fatalf("expected FAILED, got %s", record.Status)
	}
	if record.FailedStep != "s2" || record.Reason != domain.ReasonUnknownAction {
		t.Errorf("expected s2/unknown_action, got %s/%s", record.FailedStep, record.Reason)
	}
}

// Отказ шага прерывает запуск: последующие шаги не выполняются.
func TestExecute_StopsAtFailedStep(t *testing.T) {
	executed := false
	registry := echoRegistry()
	registry.Register(actions.New("after", func(ctx context.Context, req *actions.Request) (any, error) {
		executed = true
		return nil, nil
	}))

	r := newTestRunner(t, registry, nil)
	flow := testFlow(
		domain.Step{ID: "s1", Action: "fail", Selector: map[string]any{"css": "#gone"}},
		domain.Step{ID: "s2", Action: "after"},
	)

	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Reason != domain.ReasonNotFound {
		t.Errorf("expected not_found, got %s", record.Reason)
	}
	if executed {
		t.Error("steps after failure must not execute")
	}
}

// Результаты разрешения селекторов попадают в запись.
func TestExecute_SelectorOutcomes(t *testing.T) {
	r := newTestRunner(t, echoRegistry(), nil)
	flow := testFlow(
		domain.Step{ID: "s1", Action: "echo", Selector: map[string]any{"css": "#ok"}},
		domain.Step{ID: "s2", Action: "fail", Selector: map[string]any{"css": "#gone"}},
	)

	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(record.Selectors) != 2 {
		t.Fatalf("expected 2 selector outcomes, got %d", len(record.Selectors))
	}
	if !record.Selectors[0].OK || record.Selectors[0].Selector != "css=#ok" {
		t.Errorf("unexpected first outcome: %+v", record.Selectors[0])
	}
	if record.Selectors[1].OK {
		t.Error("failed step selector should be recorded as not OK")
	}
}

// Stop прерывает запуск на границе шага с причиной cancelled.
func TestExecute_Stop(t *testing.T) {
	registry := actions.NewRegistry()
	r := newTestRunner(t, registry, nil)

	registry.Register(actions.New("trip", func(ctx context.Context, req *actions.Request) (any, error) {
		r.Stop()
		return nil, nil
	}))

	flow := testFlow(
		domain.Step{ID: "s1", Action: "trip"},
		domain.Step{ID: "s2", Action: "trip"},
	)

	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != domain.RunStatusFailed || record.Reason != domain.ReasonCancelled {
		t.Errorf("expected FAILED/cancelled, got %s/%s", record.Status, record.Reason)
	}
	if record.FailedStep != "s2" {
		t.Errorf("expected stop at s2, got %s", record.FailedStep)
	}
}

// Паника действия не роняет процесс и освобождает блокировку.
func TestExecute_PanicRecovered(t *testing.T) {
	registry := actions.NewRegistry()
	registry.Register(actions.New("boom", func(ctx context.Context, req *actions.Request) (any, error) {
		panic("boom")
	}))

	rec := &memRecorder{}
	lockPath := filepath.Join(t.TempDir(), "runner.lock")
	r := New(Config{Registry: registry, LockPath: lockPath, Recorder: rec})

	flow := testFlow(domain.Step{ID: "s1", Action: "boom"})
	record, err := r.Execute(context.Background(), flow, nil, "operator")
	if err == nil {
		t.Fatal("panic should surface as error")
	}
	if record == nil || record.Reason != domain.ReasonPanic {
		t.Fatalf("expected panic record, got %+v", record)
	}
	if lockfile.Held(lockPath) {
		t.Error("lock should be released after panic")
	}
}

// Невалидный flow отклоняется до захвата блокировки.
func TestExecute_InvalidFlow(t *testing.T) {
	rec := &memRecorder{}
	r := newTestRunner(t, echoRegistry(), rec)

	flow := testFlow() // без шагов
	if _, err := r.Execute(context.Background(), flow, nil, "operator"); err == nil {
		t.Fatal("expected validation error")
	}
	if len(rec.records) != 0 {
		t.Error("invalid flow must not be recorded")
	}
}

func TestRoleChecks(t *testing.T) {
	flow := &domain.Flow{
		Meta: domain.Meta{
			Name: "guarded",
			Roles: domain.RoleMap{
				domain.OpView:    {"auditor"},
				domain.OpEdit:    {"author"},
				domain.OpPublish: {"author"},
				domain.OpApprove: {"approver"},
			},
		},
		Steps: []domain.Step{{ID: "s1", Action: "echo"}},
	}

	if err := ViewFlow(flow, "auditor"); err != nil {
		t.Errorf("auditor should view: %v", err)
	}
	if err := ViewFlow(flow, "author"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("author should not view, got %v", err)
	}
	if err := EditFlow(flow, "author"); err != nil {
		t.Errorf("author should edit: %v", err)
	}
	if err := PublishFlow(flow, "approver"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("approver should not publish, got %v", err)
	}
	if err := ApproveFlow(flow, "approver"); err != nil {
		t.Errorf("approver should approve: %v", err)
	}
}
