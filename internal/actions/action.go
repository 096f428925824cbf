package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/engine"
)

// Ошибки действий.
var (
	// ErrUnknownAction — имя действия не найдено в реестре.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidParams — невалидные параметры действия.
	ErrInvalidParams = errors.New("invalid action params")

	// ErrNotFound — цель действия не найдена (элемент, изображение, строка).
	ErrNotFound = errors.New("target not found")

	// ErrTimeout — действие превысило собственный таймаут.
	ErrTimeout = errors.New("action timeout")

	// ErrCancelled — выполнение действия отменено.
	ErrCancelled = errors.New("action cancelled")
)

// Request — входные данные для выполнения действия.
type Request struct {
	// StepID — идентификатор шага.
	StepID string

	// Selector — локатор цели (уже с подставленными переменными).
	Selector map[string]any

	// Params — параметры действия (уже с подставленными переменными).
	Params map[string]any

	// Vars — контекст выполнения с переменными запуска.
	Vars *engine.Context
}

// Action — именованная возможность автоматизации.
type Action interface {
	// Name возвращает имя действия (ключ реестра).
	Name() string

	// Execute выполняет действие и возвращает результат.
	// Действие должно проверять ctx.Done() в длительных операциях.
	Execute(ctx context.Context, req *Request) (any, error)
}

// ExecFunc — функция выполнения действия.
type ExecFunc func(ctx context.Context, req *Request) (any, error)

// funcAction — действие, заданное функцией.
type funcAction struct {
	name string
	fn   ExecFunc
}

// New создаёт действие с именем name и функцией выполнения fn.
func New(name string, fn ExecFunc) Action {
	return &funcAction{name: name, fn: fn}
}

func (a *funcAction) Name() string {
	return a.name
}

func (a *funcAction) Execute(ctx context.Context, req *Request) (any, error) {
	return a.fn(ctx, req)
}

// Categorize сопоставляет ошибку действия с категорией причины
// для RunRecord. Категории — открытое множество, незнакомые ошибки
// попадают в action_error.
func Categorize(err error) string {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return domain.ReasonUnknownAction
	case errors.Is(err, ErrNotFound):
		return domain.ReasonNotFound
	case errors.Is(err, ErrTimeout):
		return domain.ReasonTimeout
	case errors.Is(err, ErrCancelled):
		return domain.ReasonCancelled
	case errors.Is(err, ErrInvalidParams):
		return "invalid_params"
	default:
		return domain.ReasonActionError
	}
}

// SelectorKey возвращает каноническое строковое представление
// селектора для статистики: ключи в алфавитном порядке, пары
// "ключ=значение" через запятую.
func SelectorKey(selector map[string]any) string {
	if len(selector) == 0 {
		return ""
	}
	keys := make([]string, 0, len(selector))
	for k := range selector {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, selector[k]))
	}
	return strings.Join(parts, ",")
}

// String извлекает строковое значение из map параметров.
func String(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int извлекает числовое значение из map параметров.
func Int(m map[string]any, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// IntDefault извлекает числовое значение из map параметров;
// defaultVal подставляется только при отсутствии ключа, явный ноль
// остаётся нулём.
func IntDefault(m map[string]any, key string, defaultVal int) int {
	if _, ok := m[key]; !ok {
		return defaultVal
	}
	return Int(m, key)
}

// Float извлекает число с плавающей точкой из map параметров.
func Float(m map[string]any, key string, defaultVal float64) float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return defaultVal
}

// Bool извлекает булево значение из map параметров.
func Bool(m map[string]any, key string, defaultVal bool) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// Map извлекает вложенный map из map параметров.
func Map(m map[string]any, key string) map[string]any {
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]any); ok {
			return mm
		}
	}
	return nil
}
