package engine

import (
	"fmt"

	"github.com/shaiso/Robota/internal/domain"
)

// Validate выполняет полную валидацию документа flow.
//
// Проверяет:
// - Наличие имени и шагов
// - Уникальность и непустоту ID шагов
// - Наличие имени действия у каждого шага
//
// Резолвится ли действие в реестре, проверяется при выполнении,
// а не здесь: набор действий зависит от подключённых бэкендов.
func Validate(flow *domain.Flow) error {
	if flow == nil || len(flow.Steps) == 0 {
		return ErrEmptyFlow
	}

	if flow.Meta.Name == "" {
		return NewValidationError("", "meta.name", "flow has empty name", ErrEmptyName)
	}

	stepIDs := make(map[string]bool, len(flow.Steps))

	for i := range flow.Steps {
		step := &flow.Steps[i]

		if step.ID == "" {
			return NewValidationError("", "id", "step has empty ID", ErrEmptyStepID)
		}

		if stepIDs[step.ID] {
			return NewValidationError(step.ID, "id",
				fmt.Sprintf("duplicate step ID: %s", step.ID), ErrDuplicateStepID)
		}
		stepIDs[step.ID] = true

		if step.Action == "" {
			return NewValidationError(step.ID, "action",
				"step has empty action", ErrEmptyAction)
		}
	}

	return nil
}
