// Package cli реализует инструмент командной строки Robota.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Robota API.
// Работает через HTTP, не импортирует внутренние пакеты сервиса.
// CLI используется для управления flows, запусками и просмотра
// статистики.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Robota API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Роль вызывающего передаётся заголовком
// X-Actor-Role (флаг --role).
//
//	client := cli.NewClient("http://localhost:8080", "operator")
//	flows, err := client.ListFlows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: robota flow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - flow: list, show, update, publish, approve
//   - run: list, start, stop
//   - job: list
//   - action: list
//   - stats: show, selectors
//
// Каждая группа создаётся через фабричную функцию (NewFlowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
