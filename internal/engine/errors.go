package engine

import "errors"

// Ошибки валидации документа flow.
var (
	// ErrEmptyFlow — документ отсутствует или не содержит шагов.
	ErrEmptyFlow = errors.New("flow has no steps")

	// ErrEmptyName — flow не имеет имени.
	ErrEmptyName = errors.New("flow has empty name")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")

	// ErrEmptyAction — шаг не указывает действие.
	ErrEmptyAction = errors.New("step has empty action")
)

// Ошибки подстановки и вычисления выражений.
var (
	// ErrTemplateParse — ошибка парсинга шаблона подстановки.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrTemplateRender — ошибка рендеринга шаблона подстановки.
	ErrTemplateRender = errors.New("template render failed")

	// ErrEval — ошибка вычисления выражения.
	ErrEval = errors.New("expression evaluation failed")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	StepID  string // ID шага, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "step " + e.StepID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stepID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StepID:  stepID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
