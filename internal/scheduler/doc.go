// Package scheduler реализует планировщик запусков по cron-расписанию.
//
// Scheduler опрашивает зарегистрированные jobs раз в секунду и
// запускает те, чьё время пришло. Перед срабатыванием проверяются
// условия окружения (VPN, питание, блокировка экрана) и захватывается
// файловая блокировка job. Ложное условие или занятая блокировка
// оставляют запись SKIPPED и не считаются ошибкой.
//
// Структура:
//   - scheduler.go  — цикл опроса и выполнение jobs
//   - cron.go       — разбор шестипольных cron-выражений
//   - conditions.go — встроенные условия окружения
//   - schedules.go  — загрузка декларативного файла расписаний
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{Recorder: store, Logger: logger})
//	err := sched.AddJob("nightly-report", "0 0 3 * * *", "locks/nightly.lock", target,
//	    scheduler.VPNConnected)
//	go sched.Run(ctx)
package scheduler
