// Package lockfile реализует взаимное исключение через файлы-маркеры.
//
// Маркер по пути означает, что блокировка занята; отсутствие —
// свободна. Механизм используется глобальной блокировкой запуска
// (runs/runner.lock) и per-job блокировками планировщика.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrLockBusy — блокировка уже занята.
	ErrLockBusy = errors.New("lock busy")

	// ErrNotStale — маркер моложе порога устаревания, принудительная
	// очистка отклонена.
	ErrNotStale = errors.New("lock is not stale")
)

// Info — сведения о держателе блокировки, записанные в маркер.
//
// Штамп позволяет диагностировать маркеры, оставшиеся после
// аварийного завершения процесса, и даёт ForceClear основание
// для очистки.
type Info struct {
	// PID — идентификатор процесса-держателя.
	PID int `json:"pid"`

	// Host — имя хоста держателя.
	Host string `json:"host"`

	// AcquiredAt — время захвата.
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock — захваченная блокировка.
type Lock struct {
	path string
}

// Acquire атомарно создаёт маркер по пути path.
//
// Если маркер уже существует, возвращает ErrLockBusy немедленно —
// без ожидания. Родительская директория создаётся при необходимости.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLockBusy, path)
		}
		return nil, fmt.Errorf("create lock marker: %w", err)
	}
	defer f.Close()

	host, _ := os.Hostname()
	info := Info{
		PID:        os.Getpid(),
		Host:       host,
		AcquiredAt: time.Now(),
	}
	if err := json.NewEncoder(f).Encode(&info); err != nil {
		// Маркер создан, но штамп не записался: освобождаем,
		// чтобы не оставить неопознаваемый маркер.
		os.Remove(path)
		return nil, fmt.Errorf("stamp lock marker: %w", err)
	}

	return &Lock{path: path}, nil
}

// Release удаляет маркер блокировки.
// Повторный вызов безопасен.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Path возвращает путь маркера.
func (l *Lock) Path() string {
	return l.path
}

// Held проверяет, существует ли маркер по пути.
func Held(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Inspect читает штамп держателя из маркера.
// Если маркер отсутствует, возвращает os.ErrNotExist.
func Inspect(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock marker: %w", err)
	}
	return &info, nil
}

// ForceClear удаляет маркер, оставшийся после аварийного завершения
// держателя, если он старше maxAge.
//
// Очистка — явное действие оператора, автоматически она не
// выполняется. Если маркер моложе порога, возвращает ErrNotStale;
// если маркер отсутствует — nil.
func ForceClear(path string, maxAge time.Duration) error {
	info, err := Inspect(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if time.Since(info.AcquiredAt) < maxAge {
		return fmt.Errorf("%w: held by pid %d on %s since %s",
			ErrNotStale, info.PID, info.Host, info.AcquiredAt.Format(time.RFC3339))
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear stale lock: %w", err)
	}
	return nil
}
