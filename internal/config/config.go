// Package config собирает конфигурацию из переменных окружения.
package config

import (
	"os"
	"time"
)

// Config — конфигурация сервиса.
type Config struct {
	// Addr — адрес HTTP-сервера (ROBOTA_ADDR, default :8080).
	Addr string

	// DBPath — путь базы статистики (ROBOTA_DB, default robota.db).
	DBPath string

	// FlowsDir — директория документов flow (ROBOTA_FLOWS_DIR, default flows).
	FlowsDir string

	// RunLock — путь маркера блокировки запусков
	// (ROBOTA_RUN_LOCK, default runs/runner.lock).
	RunLock string

	// SchedulesPath — путь файла расписаний
	// (ROBOTA_SCHEDULES, default schedules.yaml).
	SchedulesPath string

	// PollInterval — период опроса планировщика (default 1s).
	PollInterval time.Duration
}

// FromEnv читает конфигурацию из окружения, подставляя умолчания.
func FromEnv() Config {
	return Config{
		Addr:          getenv("ROBOTA_ADDR", ":8080"),
		DBPath:        getenv("ROBOTA_DB", "robota.db"),
		FlowsDir:      getenv("ROBOTA_FLOWS_DIR", "flows"),
		RunLock:       getenv("ROBOTA_RUN_LOCK", "runs/runner.lock"),
		SchedulesPath: getenv("ROBOTA_SCHEDULES", "schedules.yaml"),
		PollInterval:  time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
