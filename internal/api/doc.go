// Package api реализует HTTP API сервиса.
//
// Структура:
//   - handler.go       — Handler и его зависимости
//   - routes.go        — маршруты
//   - middleware.go    — Logging и Recovery
//   - response.go      — формат ответов и маппинг ошибок на статусы
//   - flow_handler.go  — операции над flow (просмотр, правка, публикация)
//   - run_handler.go   — запуски, jobs, действия
//   - stats_handler.go — агрегат статистики (JSON и HTML)
//
// Авторизация ролевая: роль вызывающего передаётся заголовком
// X-Actor-Role и проверяется против ролевой карты flow. Отсутствие
// права — 403, занятая блокировка запусков — 409.
package api
