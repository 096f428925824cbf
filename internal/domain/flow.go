package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Flow — декларативное описание автоматизации.
//
// Flow — это "сценарий" RPA: упорядоченный список шагов,
// выполняемых строго в порядке документа. После загрузки flow
// неизменяем в рамках одного запуска; изменение возможно только
// через операцию edit, защищённую RBAC.
type Flow struct {
	// Version — версия формата документа.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Meta — метаданные flow (имя, описание, карта ролей).
	Meta Meta `json:"meta" yaml:"meta"`

	// Variables — начальные переменные контекста выполнения.
	Variables map[string]any `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Steps — упорядоченный список шагов.
	Steps []Step `json:"steps" yaml:"steps"`
}

// Meta — метаданные flow.
type Meta struct {
	// Name — уникальное имя flow (например, "invoice-export").
	Name string `json:"name" yaml:"name"`

	// Desc — описание назначения flow.
	Desc string `json:"desc,omitempty" yaml:"desc,omitempty"`

	// Roles — карта ролей: операция → список разрешённых ролей.
	// Операции: view, edit, publish, approve, run.
	Roles RoleMap `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// Step — один шаг flow: вызов действия из реестра.
type Step struct {
	// ID — уникальный идентификатор шага в рамках flow.
	ID string `json:"id" yaml:"id"`

	// Action — имя действия (ключ в реестре действий).
	Action string `json:"action" yaml:"action"`

	// Selector — локатор цели действия (структура зависит от действия).
	Selector map[string]any `json:"selector,omitempty" yaml:"selector,omitempty"`

	// Params — параметры действия.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`

	// Out — имя переменной контекста для результата шага.
	// Пустая строка — результат не сохраняется.
	Out string `json:"out,omitempty" yaml:"out,omitempty"`
}

// ParseFlow парсит документ flow из JSON или YAML.
//
// Формат определяется по содержимому: валидный JSON разбирается
// через encoding/json, всё остальное — через YAML.
func ParseFlow(data []byte) (*Flow, error) {
	var flow Flow

	if json.Valid(data) {
		if err := json.Unmarshal(data, &flow); err != nil {
			return nil, fmt.Errorf("parse flow json: %w", err)
		}
		return &flow, nil
	}

	if err := yaml.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("parse flow yaml: %w", err)
	}
	return &flow, nil
}

// Name возвращает имя flow из метаданных.
func (f *Flow) Name() string {
	return f.Meta.Name
}
