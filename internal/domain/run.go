package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus — терминальный статус выполнения.
type RunStatus string

const (
	// RunStatusSuccess — все шаги выполнены успешно.
	RunStatusSuccess RunStatus = "SUCCESS"

	// RunStatusFailed — выполнение прервано ошибкой.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusSkipped — запуск пропущен (условие или занятая блокировка).
	// Пропуск — не ошибка.
	RunStatusSkipped RunStatus = "SKIPPED"
)

// Trigger — источник запуска.
type Trigger string

const (
	// TriggerManual — запуск пользователем.
	TriggerManual Trigger = "manual"

	// TriggerSchedule — запуск планировщиком.
	TriggerSchedule Trigger = "schedule"
)

// Категории причин отказа. Набор открытый: агрегатор статистики
// обязан принимать и считать незнакомые категории.
const (
	ReasonLockBusy       = "lock_busy"
	ReasonUnknownAction  = "unknown_action"
	ReasonCancelled      = "cancelled"
	ReasonConditionFalse = "condition_false"
	ReasonActionError    = "action_error"
	ReasonNotFound       = "not_found"
	ReasonTimeout        = "timeout"
	ReasonPanic          = "panic"
)

// SelectorOutcome — результат разрешения одного селектора в рамках запуска.
type SelectorOutcome struct {
	// Selector — каноническое строковое представление селектора.
	Selector string `json:"selector"`

	// OK — true, если действие над селектором завершилось успешно.
	OK bool `json:"ok"`
}

// RunRecord — записанный результат одного запуска flow или job.
//
// Записи потребляет агрегатор статистики; Runner и Scheduler
// формируют их на каждом пути завершения.
type RunRecord struct {
	// RunID — уникальный идентификатор запуска.
	RunID uuid.UUID `json:"run_id"`

	// Flow — имя flow или job.
	Flow string `json:"flow"`

	// Trigger — источник запуска.
	Trigger Trigger `json:"trigger"`

	// StartedAt — время начала.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения.
	FinishedAt time.Time `json:"finished_at"`

	// Status — терминальный статус.
	Status RunStatus `json:"status"`

	// FailedStep — ID шага, на котором произошёл отказ (если FAILED).
	FailedStep string `json:"failed_step,omitempty"`

	// Reason — категория причины отказа или пропуска.
	Reason string `json:"reason,omitempty"`

	// Selectors — результаты разрешения селекторов по шагам.
	Selectors []SelectorOutcome `json:"selectors,omitempty"`
}

// NewRunRecord создаёт запись для начавшегося запуска.
func NewRunRecord(flow string, trigger Trigger) *RunRecord {
	return &RunRecord{
		RunID:     uuid.New(),
		Flow:      flow,
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
}

// Duration возвращает продолжительность запуска.
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// MarkSuccess завершает запись успехом.
func (r *RunRecord) MarkSuccess() {
	r.FinishedAt = time.Now()
	r.Status = RunStatusSuccess
}

// MarkFailed завершает запись отказом на шаге step с категорией reason.
func (r *RunRecord) MarkFailed(step, reason string) {
	r.FinishedAt = time.Now()
	r.Status = RunStatusFailed
	r.FailedStep = step
	r.Reason = reason
}

// MarkSkipped завершает запись пропуском с категорией reason.
func (r *RunRecord) MarkSkipped(reason string) {
	r.FinishedAt = time.Now()
	r.Status = RunStatusSkipped
	r.Reason = reason
}

// AddSelectorOutcome добавляет результат разрешения селектора.
func (r *RunRecord) AddSelectorOutcome(selector string, ok bool) {
	if selector == "" {
		return
	}
	r.Selectors = append(r.Selectors, SelectorOutcome{Selector: selector, OK: ok})
}
