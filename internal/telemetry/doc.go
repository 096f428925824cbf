// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики запусков
//
// Сервис экспортирует метрики на /metrics endpoint.
package telemetry
