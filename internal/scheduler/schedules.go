package scheduler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// JobSpec — декларативное описание job из файла расписаний.
type JobSpec struct {
	// Name — уникальное имя job.
	Name string `yaml:"name"`

	// Cron — шестипольное cron-выражение.
	Cron string `yaml:"cron"`

	// Flow — имя запускаемого flow.
	Flow string `yaml:"flow"`

	// Role — роль, от имени которой выполняется запуск.
	Role string `yaml:"role"`

	// Inputs — входные переменные запуска.
	Inputs map[string]any `yaml:"inputs"`

	// Lock — путь маркера блокировки. Пустой — locks/<name>.lock.
	Lock string `yaml:"lock"`

	// Conditions — имена встроенных условий окружения.
	Conditions []string `yaml:"conditions"`
}

// scheduleFile — корень YAML-файла расписаний.
type scheduleFile struct {
	Jobs []JobSpec `yaml:"jobs"`
}

// LoadFile читает и валидирует файл расписаний.
//
// Каждая запись проверяется на имя, валидность cron-выражения и
// известность условий; первая ошибка прерывает загрузку.
func LoadFile(path string) ([]JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedules: %w", err)
	}

	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schedules: %w", err)
	}

	seen := make(map[string]bool, len(file.Jobs))
	for i := range file.Jobs {
		spec := &file.Jobs[i]
		if spec.Name == "" {
			return nil, fmt.Errorf("schedules: job #%d has no name", i)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("schedules: duplicate job %s", spec.Name)
		}
		seen[spec.Name] = true

		if spec.Flow == "" {
			return nil, fmt.Errorf("schedules: job %s has no flow", spec.Name)
		}
		if err := ValidateExpr(spec.Cron); err != nil {
			return nil, fmt.Errorf("schedules: job %s: %w", spec.Name, err)
		}
		for _, cond := range spec.Conditions {
			if _, err := BuiltinCondition(cond); err != nil {
				return nil, fmt.Errorf("schedules: job %s: %w", spec.Name, err)
			}
		}
		if spec.Lock == "" {
			spec.Lock = fmt.Sprintf("locks/%s.lock", spec.Name)
		}
	}
	return file.Jobs, nil
}
