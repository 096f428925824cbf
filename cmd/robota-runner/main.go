// Robota Runner — сервис выполнения flows настольной автоматизации.
//
// Поднимает HTTP API, планировщик cron-запусков и агрегатор
// статистики. Конфигурируется переменными окружения ROBOTA_*
// (см. internal/config).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Robota/internal/actions"
	"github.com/shaiso/Robota/internal/api"
	"github.com/shaiso/Robota/internal/config"
	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/runner"
	"github.com/shaiso/Robota/internal/scheduler"
	"github.com/shaiso/Robota/internal/stats"
	"github.com/shaiso/Robota/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting robota-runner")

	cfg := config.FromEnv()

	// Агрегатор статистики поверх SQLite
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	statsStore, err := stats.Open(cfg.DBPath, metrics)
	if err != nil {
		logger.Error("failed to open stats db", "error", err)
		os.Exit(1)
	}
	defer statsStore.Close()
	logger.Info("stats db opened", "path", cfg.DBPath)

	// Хранилище flows
	flows, err := runner.NewStore(cfg.FlowsDir)
	if err != nil {
		logger.Error("failed to open flows dir", "error", err)
		os.Exit(1)
	}

	// Реестр действий. Настольные бэкенды (браузер, указатель,
	// поиск изображений) подключаются платформенной сборкой;
	// здесь регистрируются только базовые действия.
	registry := actions.NewRegistry()
	actions.RegisterBasic(registry, logger)
	actions.RegisterHTTP(registry, nil)

	run := runner.New(runner.Config{
		Registry: registry,
		LockPath: cfg.RunLock,
		Recorder: statsStore,
		Logger:   logger,
	})

	// Планировщик
	sched := scheduler.New(scheduler.Config{
		Recorder:     statsStore,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
	})
	if err := registerJobs(cfg, sched, flows, run, logger); err != nil {
		logger.Error("failed to register jobs", "error", err)
		os.Exit(1)
	}

	// API handler
	handler := api.NewHandler(api.Config{
		Flows:    flows,
		Runner:   run,
		Sched:    sched,
		Stats:    statsStore,
		Registry: registry,
		Logger:   logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Цикл планировщика
	go sched.Run(ctx)

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// registerJobs загружает файл расписаний и регистрирует jobs.
// Отсутствующий файл — не ошибка.
func registerJobs(cfg config.Config, sched *scheduler.Scheduler, flows *runner.Store, run *runner.Runner, logger *slog.Logger) error {
	specs, err := scheduler.LoadFile(cfg.SchedulesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no schedules file", "path", cfg.SchedulesPath)
			return nil
		}
		return err
	}

	for _, spec := range specs {
		spec := spec

		conds := make([]scheduler.Condition, 0, len(spec.Conditions))
		for _, name := range spec.Conditions {
			cond, err := scheduler.BuiltinCondition(name)
			if err != nil {
				return err
			}
			conds = append(conds, cond)
		}

		target := func(ctx context.Context) (*domain.RunRecord, error) {
			flow, err := flows.Load(spec.Flow)
			if err != nil {
				return nil, err
			}
			return run.ExecuteScheduled(ctx, flow, spec.Inputs, spec.Role)
		}

		if err := sched.AddJob(spec.Name, spec.Cron, spec.Lock, target, conds...); err != nil {
			return err
		}
	}
	return nil
}
