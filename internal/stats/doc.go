// Package stats реализует агрегатор статистики запусков.
//
// Записи запусков сохраняются в встраиваемую базу SQLite
// (modernc.org/sqlite, без cgo). Агрегат собирается в Snapshot и
// отдаётся в двух представлениях одного и того же снимка:
// машинном (JSON) и человекочитаемом (HTML-дашборд с теплокартой
// активности).
//
// Структура:
//   - store.go    — схема, запись и запросы агрегации
//   - snapshot.go — единый снимок агрегата
//   - html.go     — HTML-дашборд
package stats
